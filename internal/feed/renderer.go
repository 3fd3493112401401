package feed

import "github.com/rickgao/forwards-feed/internal/model"

// Renderer consumes normalized records, one method per record kind.
//
// Methods are called with the client lock held, in arrival order, and only
// for the active session. They must return quickly and must not call back
// into the Client.
type Renderer interface {
	// RenderTick receives the new tick and the retained window, oldest first.
	RenderTick(tick model.Tick, window []model.Tick)
	RenderOrderBook(book model.OrderBook)
	RenderPositions(positions []model.Position)
	RenderHistory(entries []model.HistoryEntry)
	RenderQuotes(quotes []model.Quote)
	// Reset is called when a symbol change clears all cached state.
	Reset(symbol string)
}

// NopRenderer ignores everything. Embed it to implement a subset of Renderer.
type NopRenderer struct{}

func (NopRenderer) RenderTick(model.Tick, []model.Tick) {}
func (NopRenderer) RenderOrderBook(model.OrderBook) {}
func (NopRenderer) RenderPositions([]model.Position) {}
func (NopRenderer) RenderHistory([]model.HistoryEntry) {}
func (NopRenderer) RenderQuotes([]model.Quote) {}
func (NopRenderer) Reset(string) {}

// MultiRenderer fans out to every renderer in order.
type MultiRenderer []Renderer

func (m MultiRenderer) RenderTick(tick model.Tick, window []model.Tick) {
	for _, r := range m {
		r.RenderTick(tick, window)
	}
}

func (m MultiRenderer) RenderOrderBook(book model.OrderBook) {
	for _, r := range m {
		r.RenderOrderBook(book)
	}
}

func (m MultiRenderer) RenderPositions(positions []model.Position) {
	for _, r := range m {
		r.RenderPositions(positions)
	}
}

func (m MultiRenderer) RenderHistory(entries []model.HistoryEntry) {
	for _, r := range m {
		r.RenderHistory(entries)
	}
}

func (m MultiRenderer) RenderQuotes(quotes []model.Quote) {
	for _, r := range m {
		r.RenderQuotes(quotes)
	}
}

func (m MultiRenderer) Reset(symbol string) {
	for _, r := range m {
		r.Reset(symbol)
	}
}
