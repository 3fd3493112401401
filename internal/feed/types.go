package feed

import (
	"errors"

	"github.com/rickgao/forwards-feed/internal/model"
	"github.com/rickgao/forwards-feed/internal/router"
)

// Errors
var (
	ErrStopped          = errors.New("feed client stopped")
	ErrAlreadyConnected = errors.New("feed client already connected")
	errAbandoned        = errors.New("session abandoned")
)

// Status is the client's connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusLive         Status = "live"
	StatusReconnecting Status = "reconnecting"
)

// Snapshot is a read-only copy of the client's cached state.
type Snapshot struct {
	Status    Status               `json:"status"`
	SessionID string               `json:"session_id,omitempty"`
	Symbol    string               `json:"symbol"`
	Loading   bool                 `json:"loading"`
	Window    int                  `json:"chart_window"`
	Ticks     []model.Tick         `json:"ticks"`
	OrderBook *model.OrderBook     `json:"orderbook,omitempty"`
	Positions []model.Position     `json:"positions"`
	History   []model.HistoryEntry `json:"history"`
	Quotes    []model.Quote        `json:"quotes"`
	Router    router.Stats         `json:"router"`
}
