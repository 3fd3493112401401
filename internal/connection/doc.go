// Package connection wraps a single market-data WebSocket connection.
//
// The Client:
//   - Dials the resolved feed URL (no auth headers)
//   - Reads text frames in a loop and stamps them with the local receive time
//   - Pings on an interval and reports a stale connection
//   - Reports the first read error on a non-blocking error channel
//
// Reconnection is owned by the caller.
package connection
