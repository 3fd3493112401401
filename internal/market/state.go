package market

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rickgao/forwards-feed/internal/events"
)

// Margin modes.
const (
	MarginCross    = "cross"
	MarginIsolated = "isolated"
)

// Leverage bounds.
const (
	MinLeverage = 1
	MaxLeverage = 125
)

// Errors
var (
	ErrEmptySymbol      = errors.New("symbol is required")
	ErrUnknownTimeframe = errors.New("unknown timeframe")
	ErrMarginMode       = errors.New("margin mode must be cross or isolated")
	ErrLeverageRange    = fmt.Errorf("leverage must be between %d and %d", MinLeverage, MaxLeverage)
)

// Snapshot is a point-in-time copy of the selection.
type Snapshot struct {
	Symbol     string `json:"symbol"`
	Timeframe  string `json:"timeframe"`
	MarginMode string `json:"margin_mode"`
	Leverage   int    `json:"leverage"`
}

// State is the thread-safe market selection.
type State struct {
	mu sync.RWMutex

	symbol     string
	timeframe  string
	marginMode string
	leverage   int

	timeframes []string
	bus        *events.Bus
}

// NewState creates the selection with its initial values. timeframes lists the
// accepted chart timeframes; bus may be nil.
func NewState(initial Snapshot, timeframes []string, bus *events.Bus) (*State, error) {
	s := &State{
		timeframes: append([]string(nil), timeframes...),
		bus:        bus,
	}

	if err := s.validateSymbol(initial.Symbol); err != nil {
		return nil, err
	}
	if err := s.validateTimeframe(initial.Timeframe); err != nil {
		return nil, err
	}
	if err := validateMarginMode(initial.MarginMode); err != nil {
		return nil, err
	}
	if err := validateLeverage(initial.Leverage); err != nil {
		return nil, err
	}

	s.symbol = normalizeSymbol(initial.Symbol)
	s.timeframe = initial.Timeframe
	s.marginMode = initial.MarginMode
	s.leverage = initial.Leverage
	return s, nil
}

// Symbol returns the selected symbol (read-locked).
func (s *State) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol
}

// Snapshot returns a copy of the selection (read-locked).
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Symbol:     s.symbol,
		Timeframe:  s.timeframe,
		MarginMode: s.marginMode,
		Leverage:   s.leverage,
	}
}

// SetSymbol changes the selected symbol. Returns false if it was already selected.
func (s *State) SetSymbol(symbol string) (changed bool, err error) {
	if err := s.validateSymbol(symbol); err != nil {
		return false, err
	}
	symbol = normalizeSymbol(symbol)

	s.mu.Lock()
	old := s.symbol
	s.symbol = symbol
	s.mu.Unlock()

	if old == symbol {
		return false, nil
	}
	s.bus.Publish(events.SymbolChanged{Old: old, New: symbol})
	return true, nil
}

// SetTimeframe changes the chart timeframe.
func (s *State) SetTimeframe(tf string) error {
	if err := s.validateTimeframe(tf); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.timeframe
	s.timeframe = tf
	s.mu.Unlock()

	if old != tf {
		s.bus.Publish(events.TimeframeChanged{Old: old, New: tf})
	}
	return nil
}

// SetMarginMode switches between cross and isolated margin.
func (s *State) SetMarginMode(mode string) error {
	if err := validateMarginMode(mode); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.marginMode
	s.marginMode = mode
	s.mu.Unlock()

	if old != mode {
		s.bus.Publish(events.MarginModeChanged{Old: old, New: mode})
	}
	return nil
}

// SetLeverage changes the leverage multiplier.
func (s *State) SetLeverage(leverage int) error {
	if err := validateLeverage(leverage); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.leverage
	s.leverage = leverage
	s.mu.Unlock()

	if old != leverage {
		s.bus.Publish(events.LeverageChanged{Old: old, New: leverage})
	}
	return nil
}

func (s *State) validateSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return ErrEmptySymbol
	}
	return nil
}

func (s *State) validateTimeframe(tf string) error {
	if !slices.Contains(s.timeframes, tf) {
		return fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
	}
	return nil
}

func validateMarginMode(mode string) error {
	if mode != MarginCross && mode != MarginIsolated {
		return fmt.Errorf("%w, got %q", ErrMarginMode, mode)
	}
	return nil
}

func validateLeverage(leverage int) error {
	if leverage < MinLeverage || leverage > MaxLeverage {
		return fmt.Errorf("%w, got %d", ErrLeverageRange, leverage)
	}
	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
