// Package cache mirrors the latest normalized order book per symbol into Redis.
//
// BookCache is a feed renderer. RenderOrderBook only records the book as
// pending; a worker goroutine writes it as JSON under <prefix><symbol> with
// a TTL. Pending books for the same symbol coalesce, so a slow Redis never
// backs up the feed.
package cache
