// Package writer archives ticks in batches.
//
// TickWriter is a feed renderer. RenderTick never blocks: ticks go onto a
// bounded queue and are dropped (and counted) when the queue is full. A
// consumer goroutine accumulates batches that are flushed to a
// database.TickStore when they reach the batch size or on a timer.
//
// Writes are append-only. A repeated (symbol, ts) pair counts as a conflict.
package writer
