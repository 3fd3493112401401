// Package feed implements the market-data Feed Client.
//
// The Client:
//   - Opens one session per selected symbol, tagged with a UUID
//   - Subscribes over WebSocket, or polls REST endpoints when no socket is configured
//   - Drops messages for any symbol other than the active one
//   - Reconnects after a fixed delay until the session is replaced
//   - Normalizes payloads and pushes them to a Renderer
//
// Only a trailing window of ticks is kept; books, positions, history and
// quotes hold the latest value and are cleared on every symbol change.
package feed
