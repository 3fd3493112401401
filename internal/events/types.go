package events

import "time"

// Event is implemented by every event published on the bus.
type Event interface {
	Name() string
	isEvent()
}

// SymbolChanged is published when the selected trading symbol changes.
type SymbolChanged struct {
	Old string
	New string
}

// TimeframeChanged is published when the chart timeframe changes.
type TimeframeChanged struct {
	Old string
	New string
}

// MarginModeChanged is published when the margin mode toggles between cross and isolated.
type MarginModeChanged struct {
	Old string
	New string
}

// LeverageChanged is published when the leverage slider moves.
type LeverageChanged struct {
	Old int
	New int
}

// StatusChanged is published on every feed session state transition.
type StatusChanged struct {
	SessionID string
	Symbol    string
	Status    string // "disconnected", "connecting", "live", "reconnecting"
}

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient, user-facing message (a toast).
type Notification struct {
	Level   Level
	Source  string // Component that raised it, e.g. "poller"
	Message string
	At      time.Time
}

// WalletConnected is published after a wallet provider returns an account.
type WalletConnected struct {
	Account string
	ChainID string
}

func (SymbolChanged) Name() string     { return "symbol_changed" }
func (TimeframeChanged) Name() string  { return "timeframe_changed" }
func (MarginModeChanged) Name() string { return "margin_mode_changed" }
func (LeverageChanged) Name() string   { return "leverage_changed" }
func (StatusChanged) Name() string     { return "status_changed" }
func (Notification) Name() string      { return "notification" }
func (WalletConnected) Name() string   { return "wallet_connected" }

func (SymbolChanged) isEvent()     {}
func (TimeframeChanged) isEvent()  {}
func (MarginModeChanged) isEvent() {}
func (LeverageChanged) isEvent()   {}
func (StatusChanged) isEvent()     {}
func (Notification) isEvent()      {}
func (WalletConnected) isEvent()   {}
