// Package market holds the UI's market selection.
//
// The State:
//   - Tracks the selected symbol, chart timeframe, margin mode and leverage
//   - Is changed through the controller (the symbol via the feed client, which
//     owns session teardown) and read by the feed to scope messages
//   - Publishes a typed event on every change
//   - Is never persisted
package market
