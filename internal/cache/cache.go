package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/logging"
	"github.com/rickgao/forwards-feed/internal/model"
)

// ErrNotFound is returned by Latest when no book is cached for the symbol.
var ErrNotFound = errors.New("order book not cached")

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// NewRedisClient connects to Redis and verifies it with a ping.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

// Stats counts cache writes.
type Stats struct {
	Writes    int64
	Errors    int64
	Coalesced int64
}

// BookCache writes order books to Redis off the feed's hot path.
type BookCache struct {
	feed.NopRenderer

	store  Store
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]model.OrderBook
	order   []string
	stats   Stats

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a BookCache. Zero TTL or empty prefix take the config defaults.
func New(store Store, prefix string, ttl time.Duration, logger *zap.Logger) *BookCache {
	logger = logging.OrNop(logger)
	if prefix == "" {
		prefix = config.DefaultCacheKeyPrefix
	}
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	return &BookCache{
		store:   store,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger.With(zap.String("component", "book_cache")),
		pending: make(map[string]model.OrderBook),
		wake:    make(chan struct{}, 1),
	}
}

// Key returns the Redis key for symbol.
func (c *BookCache) Key(symbol string) string {
	return c.prefix + symbol
}

// RenderOrderBook records book for the worker without blocking.
func (c *BookCache) RenderOrderBook(book model.OrderBook) {
	c.mu.Lock()
	if _, ok := c.pending[book.Symbol]; ok {
		c.stats.Coalesced++
	} else {
		c.order = append(c.order, book.Symbol)
	}
	c.pending[book.Symbol] = book
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start launches the write worker.
func (c *BookCache) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
	c.logger.Info("book cache started", zap.String("prefix", c.prefix), zap.Duration("ttl", c.ttl))
	return nil
}

// Stop halts the worker and writes anything still pending with ctx.
func (c *BookCache) Stop(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.writePending(ctx)
	return nil
}

// Stats returns current counters.
func (c *BookCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Latest reads the cached book for symbol.
func (c *BookCache) Latest(ctx context.Context, symbol string) (model.OrderBook, error) {
	var book model.OrderBook
	data, err := c.store.Get(ctx, c.Key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return book, ErrNotFound
	}
	if err != nil {
		return book, fmt.Errorf("get %s: %w", c.Key(symbol), err)
	}
	if err := json.Unmarshal(data, &book); err != nil {
		return book, fmt.Errorf("decode cached book: %w", err)
	}
	return book, nil
}

func (c *BookCache) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			c.writePending(ctx)
		}
	}
}

// writePending writes every pending book in first-seen order.
func (c *BookCache) writePending(ctx context.Context) {
	c.mu.Lock()
	books := make([]model.OrderBook, 0, len(c.order))
	for _, symbol := range c.order {
		books = append(books, c.pending[symbol])
	}
	c.pending = make(map[string]model.OrderBook)
	c.order = c.order[:0]
	c.mu.Unlock()

	for _, book := range books {
		err := c.write(ctx, book)

		c.mu.Lock()
		if err != nil {
			c.stats.Errors++
		} else {
			c.stats.Writes++
		}
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("cache write failed", zap.String("symbol", book.Symbol), zap.Error(err))
		}
	}
}

func (c *BookCache) write(ctx context.Context, book model.OrderBook) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode book: %w", err)
	}
	return c.store.Set(ctx, c.Key(book.Symbol), data, c.ttl).Err()
}
