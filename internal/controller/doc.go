// Package controller exposes the feed's user actions over HTTP.
//
// Every service is injected through Deps. POST routes stand in for the UI
// controls (symbol picker, timeframe buttons, margin toggle, leverage slider,
// wallet button); GET routes expose the cached feed state, recent
// notifications and health.
package controller
