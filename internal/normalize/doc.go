// Package normalize reshapes heterogeneous upstream payloads into canonical
// model records.
//
// Upstreams disagree on key spelling (price/p/last, size/qty/amount,
// market/symbol/pair) and on number encoding (JSON numbers or strings). Every
// function here is pure: no I/O, no logging, no shared state.
package normalize
