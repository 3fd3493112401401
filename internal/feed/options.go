package feed

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/connection"
	"github.com/rickgao/forwards-feed/internal/poller"
)

// DialFunc builds a WebSocket client for a resolved URL.
type DialFunc func(cfg connection.ClientConfig, logger *zap.Logger) connection.Client

// Option configures a Client.
type Option func(*Client)

// WithFetcher replaces the REST client used for polling.
func WithFetcher(f poller.Fetcher) Option {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithDialer replaces the WebSocket client constructor.
func WithDialer(d DialFunc) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// WithClock sets the time source for receive timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithRand sets the source for synthetic orderbooks.
func WithRand(rng *rand.Rand) Option {
	return func(c *Client) {
		c.rng = rng
	}
}

// WithSocketConfig sets timeouts and buffer size for WebSocket clients. The
// URL field is ignored.
func WithSocketConfig(cfg connection.ClientConfig) Option {
	return func(c *Client) {
		c.socketCfg = cfg
	}
}
