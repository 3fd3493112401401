package router

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Errors
var (
	ErrUnknownKind = errors.New("unknown message type")
	ErrMissingKind = errors.New("message has no type")
)

// Kind discriminates feed records.
type Kind string

// Record kinds carried by the feed.
const (
	KindTicker    Kind = "ticker"
	KindOrderBook Kind = "orderbook"
	KindPositions Kind = "positions"
	KindHistory   Kind = "history"
	KindRFQ       Kind = "rfq"
)

// Kinds lists every known kind in dispatch order.
var Kinds = []Kind{KindTicker, KindOrderBook, KindPositions, KindHistory, KindRFQ}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTicker, KindOrderBook, KindPositions, KindHistory, KindRFQ:
		return true
	}
	return false
}

// Envelope is a decoded frame.
type Envelope struct {
	Kind       Kind
	Symbol     string // Empty when neither envelope nor payload names one
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// Stats contains runtime statistics.
type Stats struct {
	MessagesReceived int64
	MessagesRouted   int64
	ParseErrors      int64
	UnknownMessages  int64
}

// wireFrame is the outer JSON shape.
type wireFrame struct {
	Type    string          `json:"type"`
	Symbol  string          `json:"symbol"`
	Market  string          `json:"market"`
	Payload json.RawMessage `json:"payload"`
	Data    json.RawMessage `json:"data"`
}

// symbolKeys are payload keys that name the record's market, in precedence order.
var symbolKeys = []string{"symbol", "market", "pair", "s"}
