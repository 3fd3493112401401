package feed

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/api"
	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/connection"
	"github.com/rickgao/forwards-feed/internal/events"
	"github.com/rickgao/forwards-feed/internal/market"
	"github.com/rickgao/forwards-feed/internal/model"
	"github.com/rickgao/forwards-feed/internal/poller"
	"github.com/rickgao/forwards-feed/internal/router"
)

// Client is the market-data feed client. All cached state lives behind mu.
type Client struct {
	cfg       config.FeedConfig
	state     *market.State
	renderer  Renderer
	bus       *events.Bus
	logger    *zap.Logger
	fetcher   poller.Fetcher
	dial      DialFunc
	socketCfg connection.ClientConfig
	router    *router.Router
	now       func() time.Time

	// Session goroutines
	wg sync.WaitGroup

	mu        sync.Mutex
	baseCtx   context.Context
	session   *session
	status    Status
	stopped   bool
	inflight  int
	rng       *rand.Rand
	ticks     *TickWindow
	book      *model.OrderBook
	positions []model.Position
	history   []model.HistoryEntry
	quotes    []model.Quote
}

// New creates a feed client for the symbol selected in state. renderer and
// bus may be nil.
func New(cfg config.FeedConfig, state *market.State, renderer Renderer, bus *events.Bus, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = config.DefaultReconnectDelay
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = config.DefaultRequestTimeout
	}
	if cfg.SymbolSeparator == "" {
		cfg.SymbolSeparator = config.DefaultSymbolSeparator
	}
	if cfg.ChartWindow <= 0 {
		cfg.ChartWindow = config.DefaultChartWindow
	}

	c := &Client{
		cfg:       cfg,
		state:     state,
		renderer:  renderer,
		bus:       bus,
		logger:    logger.With(zap.String("component", "feed")),
		dial:      connection.NewClient,
		socketCfg: connection.DefaultClientConfig(),
		now:       time.Now,
		status:    StatusDisconnected,
		ticks:     NewTickWindow(cfg.ChartWindow),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		c.fetcher = api.NewClient(cfg.APIKey,
			api.WithTimeout(cfg.RequestTimeout),
			api.WithRetries(cfg.MaxRetries, 500*time.Millisecond),
			api.WithLogger(c.logger),
		)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	c.router = router.New(c.logger)

	return c
}

// Connect opens a session for the currently selected symbol. ctx bounds the
// lifetime of every session the client opens, including those opened later by
// SelectSymbol.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if c.baseCtx != nil {
		return ErrAlreadyConnected
	}

	c.baseCtx = ctx
	c.openLocked(c.state.Symbol())
	return nil
}

// SelectSymbol switches the active symbol: the current session is torn down,
// cached state is cleared and a new session is opened. Selecting the active
// symbol is a no-op. ctx bounds the wait for the old poller to exit.
func (c *Client) SelectSymbol(ctx context.Context, symbol string) error {
	c.mu.Lock()

	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}

	changed, err := c.state.SetSymbol(symbol)
	if err != nil || !changed {
		c.mu.Unlock()
		return err
	}

	old := c.session
	c.closeLocked(old)
	c.resetLocked()

	next := c.state.Symbol()
	c.logger.Info("symbol changed, reconnecting", zap.String("symbol", next))

	if c.baseCtx != nil {
		c.openLocked(next)
	}
	c.mu.Unlock()

	return old.wait(ctx)
}

// Stop tears down the active session and waits for its goroutines.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	old := c.session
	c.closeLocked(old)
	c.mu.Unlock()

	if err := old.wait(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("feed client stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the cached state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Status:    c.status,
		Symbol:    c.state.Symbol(),
		Loading:   c.inflight > 0,
		Window:    c.ticks.Cap(),
		Ticks:     c.ticks.Ticks(),
		Positions: slices.Clone(c.positions),
		History:   slices.Clone(c.history),
		Quotes:    slices.Clone(c.quotes),
		Router:    c.router.Stats(),
	}
	if c.session != nil {
		snap.SessionID = c.session.id
	}
	if c.book != nil {
		book := *c.book
		book.Bids = slices.Clone(book.Bids)
		book.Asks = slices.Clone(book.Asks)
		snap.OrderBook = &book
	}
	return snap
}

// SessionID returns the active session's tag, or "" when disconnected.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.id
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// openLocked starts a session for symbol. Caller holds mu.
func (c *Client) openLocked(symbol string) {
	ctx, cancel := context.WithCancel(c.baseCtx)
	s := &session{
		id:     uuid.NewString(),
		symbol: symbol,
		ctx:    ctx,
		cancel: cancel,
	}
	c.session = s

	logger := c.logger.With(zap.String("session", s.id), zap.String("symbol", symbol))

	// Live only once the first record is applied.
	c.setStatusLocked(s, StatusConnecting)

	if c.cfg.WS != "" {
		c.wg.Add(1)
		go c.runSocket(s, logger)
	}

	if c.cfg.WS == "" || c.cfg.PollWithWS {
		endpoints := c.endpoints(symbol)
		if len(endpoints) > 0 {
			s.poller = poller.New(poller.Config{
				Interval: c.cfg.PollInterval,
				Timeout:  c.cfg.RequestTimeout,
			}, loadingFetcher{c}, endpoints, sessionHandler{c: c, s: s}, logger)
			s.poller.Start(ctx)
		}
	}

	logger.Info("feed session opened",
		zap.Bool("websocket", c.cfg.WS != ""),
		zap.Bool("polling", s.poller != nil),
	)
}

// closeLocked cancels s; its socket goroutine closes the connection and its
// poller exits. Caller holds mu.
func (c *Client) closeLocked(s *session) {
	if s == nil {
		return
	}
	s.cancel()
	if c.session == s {
		c.session = nil
		c.setStatusLocked(s, StatusDisconnected)
	}
}

// resetLocked clears every cached record. Caller holds mu.
func (c *Client) resetLocked() {
	c.ticks.Reset()
	c.book = nil
	c.positions = nil
	c.history = nil
	c.quotes = nil
	c.renderer.Reset(c.state.Symbol())
}

// endpoints resolves the configured REST templates for symbol in Kinds order.
func (c *Client) endpoints(symbol string) []poller.Endpoint {
	templates := c.cfg.RESTEndpoints()
	var out []poller.Endpoint
	for _, kind := range router.Kinds {
		tmpl, ok := templates[string(kind)]
		if !ok {
			continue
		}
		out = append(out, poller.Endpoint{
			Name: string(kind),
			URL:  market.ResolveURL(tmpl, symbol, c.cfg.SymbolSeparator),
		})
	}
	return out
}

// setStatusLocked records a state transition and publishes it. s may be nil.
func (c *Client) setStatusLocked(s *session, status Status) {
	if c.status == status {
		return
	}
	c.status = status

	ev := events.StatusChanged{Status: string(status)}
	if s != nil {
		ev.SessionID = s.id
		ev.Symbol = s.symbol
	}
	c.bus.Publish(ev)
}

// setStatus transitions only if s is still the active session.
func (c *Client) setStatus(s *session, status Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return false
	}
	c.setStatusLocked(s, status)
	return true
}

func (c *Client) isActive(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == s
}

func (c *Client) beginLoading() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

func (c *Client) endLoading() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *Client) notify(level events.Level, source, message string) {
	c.bus.Publish(events.Notification{
		Level:   level,
		Source:  source,
		Message: message,
		At:      c.now(),
	})
}

// loadingFetcher marks the client as loading for the duration of each fetch.
type loadingFetcher struct {
	c *Client
}

func (f loadingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.c.beginLoading()
	defer f.c.endLoading()
	return f.c.fetcher.Fetch(ctx, url)
}
