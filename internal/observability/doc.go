// Package observability exposes process health over HTTP and the standard
// gRPC health protocol. Serving status follows the feed's connection state.
package observability
