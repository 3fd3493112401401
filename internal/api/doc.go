// Package api provides the REST client used for polling feed endpoints.
//
// Endpoints are absolute URL templates from the feed config, already resolved
// for the active symbol. Responses are JSON; a configured API key is sent as a
// Bearer token.
package api
