package model

import "time"

// Placeholder is rendered for text fields the upstream payload did not carry.
const Placeholder = "—"

// -----------------------------------------------------------------------------
// Market Data
// -----------------------------------------------------------------------------

// Tick is a single price point for the chart.
type Tick struct {
	Symbol    string  `json:"symbol"` // Symbol the tick belongs to (e.g., "BTC-USD")
	Timestamp int64   `json:"ts"`     // Exchange or receive time (ms since epoch)
	Price     float64 `json:"price"`  // Last price
}

// Time returns the tick timestamp as a time.Time.
func (t Tick) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// OrderBookLevel is one price level of a book side.
type OrderBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
	Total string `json:"total"` // Price * Size
}

// OrderBook is a full book for one symbol.
type OrderBook struct {
	Symbol    string           `json:"symbol"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
	Synthetic bool             `json:"synthetic"` // true when generated as a placeholder, never live data
	UpdatedAt int64            `json:"updated_at"`
}

// Empty reports whether neither side has levels.
func (b *OrderBook) Empty() bool {
	return b == nil || (len(b.Bids) == 0 && len(b.Asks) == 0)
}

// -----------------------------------------------------------------------------
// Account Data
// -----------------------------------------------------------------------------

// Position is an open forward position.
type Position struct {
	Market     string  `json:"market" mapstructure:"market"`
	Side       string  `json:"side" mapstructure:"side"`
	Size       float64 `json:"size" mapstructure:"size"`
	EntryPrice float64 `json:"entry_price" mapstructure:"entry_price"`
	MarkPrice  float64 `json:"mark_price" mapstructure:"mark_price"`
	PnL        float64 `json:"pnl" mapstructure:"pnl"`
	Leverage   float64 `json:"leverage" mapstructure:"leverage"`
	Margin     float64 `json:"margin" mapstructure:"margin"`
}

// HistoryEntry is a filled or cancelled order.
type HistoryEntry struct {
	ID        string  `json:"id" mapstructure:"id"`
	Market    string  `json:"market" mapstructure:"market"`
	Side      string  `json:"side" mapstructure:"side"`
	Price     float64 `json:"price" mapstructure:"price"`
	Size      float64 `json:"size" mapstructure:"size"`
	Fee       float64 `json:"fee" mapstructure:"fee"`
	Status    string  `json:"status" mapstructure:"status"`
	Timestamp int64   `json:"timestamp" mapstructure:"timestamp"` // ms since epoch
}

// Quote is a response to a request-for-quote.
type Quote struct {
	ID        string  `json:"id" mapstructure:"id"`
	Market    string  `json:"market" mapstructure:"market"`
	Side      string  `json:"side" mapstructure:"side"`
	Price     float64 `json:"price" mapstructure:"price"`
	Size      float64 `json:"size" mapstructure:"size"`
	Maker     string  `json:"maker" mapstructure:"maker"`
	ExpiresAt int64   `json:"expires_at" mapstructure:"expires_at"` // ms since epoch
}
