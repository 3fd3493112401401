// Package poller implements REST polling for one feed session.
//
// The Poller:
//   - Fetches every configured endpoint immediately, then on a fixed interval
//   - Runs the fetches of a cycle in parallel with bounded concurrency
//   - Treats each endpoint independently; a failure never stops the timer
//   - Hands bodies and errors to a Handler for normalization
package poller
