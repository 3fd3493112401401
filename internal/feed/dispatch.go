package feed

import (
	"errors"

	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/market"
	"github.com/rickgao/forwards-feed/internal/normalize"
	"github.com/rickgao/forwards-feed/internal/router"
)

// HandleMessage parses a raw frame received by session sessionID and, if the
// session is still active and the frame names the active symbol (or none),
// normalizes it and delivers it to the renderer. Returns true if the frame
// was delivered. Malformed frames are logged and dropped.
func (c *Client) HandleMessage(sessionID string, raw []byte) bool {
	env, ok := c.router.Route(raw, c.now())
	if !ok {
		return false
	}
	return c.dispatch(sessionID, env)
}

// dispatch applies env under the client lock after checking its session tag
// and symbol. The first record applied for a connecting session moves it to
// Live.
func (c *Client) dispatch(sessionID string, env router.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || s.id != sessionID {
		c.logger.Debug("dropping message from stale session",
			zap.String("session", sessionID),
			zap.String("type", string(env.Kind)),
		)
		return false
	}

	if env.Symbol != "" && !market.SameSymbol(env.Symbol, s.symbol) {
		c.logger.Debug("dropping message for inactive symbol",
			zap.String("symbol", env.Symbol),
			zap.String("active", s.symbol),
			zap.String("type", string(env.Kind)),
		)
		return false
	}

	if !c.applyLocked(s, env) {
		return false
	}
	if c.status == StatusConnecting {
		c.setStatusLocked(s, StatusLive)
	}
	return true
}

// applyLocked normalizes env, replaces the cached record and renders it.
// Caller holds mu.
func (c *Client) applyLocked(s *session, env router.Envelope) bool {
	logger := c.logger.With(
		zap.String("session", s.id),
		zap.String("type", string(env.Kind)),
	)

	switch env.Kind {
	case router.KindTicker:
		tick, err := normalize.Tick(env.Payload, s.symbol, env.ReceivedAt)
		if err != nil {
			logger.Warn("dropping ticker", zap.Error(err))
			return false
		}
		if !c.ownSymbolLocked(logger, tick.Symbol, s.symbol) {
			return false
		}
		tick.Symbol = s.symbol
		c.ticks.Push(tick)
		c.renderer.RenderTick(tick, c.ticks.Ticks())

	case router.KindOrderBook:
		book, err := normalize.OrderBook(env.Payload, s.symbol, env.ReceivedAt)
		if err != nil {
			if !errors.Is(err, normalize.ErrUnrecognizedShape) || !c.cfg.SyntheticEnabled() {
				logger.Warn("dropping orderbook", zap.Error(err))
				return false
			}
			ref := c.referencePriceLocked()
			logger.Warn("orderbook shape unrecognized, rendering synthetic book",
				zap.Error(err),
				zap.Float64("reference_price", ref),
			)
			book = normalize.Synthetic(s.symbol, ref, normalize.DefaultSyntheticDepth, c.rng, env.ReceivedAt)
		}
		if !c.ownSymbolLocked(logger, book.Symbol, s.symbol) {
			return false
		}
		book.Symbol = s.symbol
		c.book = &book
		c.renderer.RenderOrderBook(book)

	case router.KindPositions:
		positions, err := normalize.Positions(env.Payload)
		if err != nil {
			logger.Warn("dropping positions", zap.Error(err))
			return false
		}
		c.positions = positions
		c.renderer.RenderPositions(positions)

	case router.KindHistory:
		entries, err := normalize.History(env.Payload)
		if err != nil {
			logger.Warn("dropping history", zap.Error(err))
			return false
		}
		c.history = entries
		c.renderer.RenderHistory(entries)

	case router.KindRFQ:
		quotes, err := normalize.Quotes(env.Payload)
		if err != nil {
			logger.Warn("dropping quotes", zap.Error(err))
			return false
		}
		c.quotes = quotes
		c.renderer.RenderQuotes(quotes)

	default:
		return false
	}

	return true
}

// ownSymbolLocked reports whether a symbol found inside a normalized record
// names the active market. Nested payloads can carry a symbol the envelope
// check never saw. Caller holds mu.
func (c *Client) ownSymbolLocked(logger *zap.Logger, found, active string) bool {
	if found == "" || market.SameSymbol(found, active) {
		return true
	}
	logger.Debug("dropping nested record for inactive symbol",
		zap.String("symbol", found),
		zap.String("active", active),
	)
	return false
}

// referencePriceLocked is the last tick price, or the default when no tick
// has arrived. Caller holds mu.
func (c *Client) referencePriceLocked() float64 {
	if last, ok := c.ticks.Last(); ok && last.Price > 0 {
		return last.Price
	}
	return normalize.DefaultReferencePrice
}
