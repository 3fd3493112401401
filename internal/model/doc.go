// Package model defines the normalized records produced by the feed.
//
// Every record is shaped the same way regardless of how the upstream venue
// spelled its fields.
//
// Conventions:
//   - Timestamps: int64 milliseconds since Unix epoch
//   - Tick prices: float64 (chart input)
//   - Orderbook levels: decimal strings, Total = Price * Size
//   - Missing text fields: Placeholder ("—"); missing numbers: 0
package model
