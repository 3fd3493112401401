package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves an endpoint body. *api.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Endpoint is one resolved REST URL.
type Endpoint struct {
	Name string // Record kind served by the endpoint (e.g., "orderbook")
	URL  string
}

// Handler receives the outcome of each fetch.
type Handler interface {
	HandleResponse(ep Endpoint, body []byte)
	HandleError(ep Endpoint, err error)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 5s)
	Concurrency int           // Max concurrent requests per cycle (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Second,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Stats contains runtime statistics.
type Stats struct {
	Cycles  int64
	Fetched int64
	Errors  int64
}

// Poller periodically fetches a fixed set of endpoints.
type Poller struct {
	cfg       Config
	fetcher   Fetcher
	endpoints []Endpoint
	handler   Handler
	logger    *zap.Logger

	cycles  atomic.Int64
	fetched atomic.Int64
	errors  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, fetcher Fetcher, endpoints []Endpoint, handler Handler, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = d.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	return &Poller{
		cfg:       cfg,
		fetcher:   fetcher,
		endpoints: append([]Endpoint(nil), endpoints...),
		handler:   handler,
		logger:    logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Debug("rest poller started",
		zap.Duration("interval", p.cfg.Interval),
		zap.Int("endpoints", len(p.endpoints)),
	)

	return nil
}

// Stop cancels in-flight requests and waits for the loop to exit.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("rest poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (p *Poller) Stats() Stats {
	return Stats{
		Cycles:  p.cycles.Load(),
		Fetched: p.fetched.Load(),
		Errors:  p.errors.Load(),
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches every endpoint concurrently.
func (p *Poller) pollAll() {
	if len(p.endpoints) == 0 {
		return
	}
	start := time.Now()
	p.cycles.Add(1)

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	var fetched, failed atomic.Int64

	for _, ep := range p.endpoints {
		if p.ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := p.poll(ep); err != nil {
				failed.Add(1)
				return nil
			}
			fetched.Add(1)
			return nil
		})
	}

	g.Wait()

	p.fetched.Add(fetched.Load())
	p.errors.Add(failed.Load())

	p.logger.Debug("poll cycle complete",
		zap.Int("endpoints", len(p.endpoints)),
		zap.Int64("fetched", fetched.Load()),
		zap.Int64("errors", failed.Load()),
		zap.Duration("duration", time.Since(start)),
	)
}

// poll fetches one endpoint and hands the result to the handler.
func (p *Poller) poll(ep Endpoint) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	body, err := p.fetcher.Fetch(ctx, ep.URL)
	if err != nil {
		// Cancellation is a teardown, not a failure.
		if p.ctx.Err() != nil {
			return err
		}
		p.logger.Warn("failed to poll endpoint",
			zap.String("endpoint", ep.Name),
			zap.String("url", ep.URL),
			zap.Error(err),
		)
		if p.handler != nil {
			p.handler.HandleError(ep, err)
		}
		return err
	}

	if p.handler != nil {
		p.handler.HandleResponse(ep, body)
	}
	return nil
}
