// Package router decodes feed frames into typed envelopes.
//
// Frames are JSON objects shaped {type, symbol?, payload}. The type selects
// the record kind; the symbol is taken from the envelope or, failing that,
// from the payload's symbol, market, pair or s key.
package router
