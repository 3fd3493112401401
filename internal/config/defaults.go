package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPollInterval    = 5 * time.Second
	DefaultReconnectDelay  = 3 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultSymbolSeparator = "-"
	DefaultChartWindow     = 240
	DefaultSymbol          = "BTC-USD"
	DefaultTimeframe       = "1m"
	DefaultMarginMode      = "cross"
	DefaultLeverage        = 10
	DefaultWalletTimeout   = 15 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultBatchSize       = 500
	DefaultFlushInterval   = 2 * time.Second
	DefaultBufferSize      = 4096
	DefaultCacheTTL        = time.Minute
	DefaultCacheKeyPrefix  = "orderbook:"
	DefaultStreamTopic     = "market.ticks"
	DefaultStreamClientID  = "forwards-feed"
	DefaultHTTPPort        = 8080
	DefaultLogLevel        = "info"
)

// DefaultTimeframes are the chart timeframes offered when none are configured.
var DefaultTimeframes = []string{"1m", "5m", "15m", "1h", "4h", "1d"}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	// Feed defaults
	if c.Feed.PollInterval == 0 {
		c.Feed.PollInterval = DefaultPollInterval
	}
	if c.Feed.ReconnectDelay == 0 {
		c.Feed.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Feed.RequestTimeout == 0 {
		c.Feed.RequestTimeout = DefaultRequestTimeout
	}
	if c.Feed.SymbolSeparator == "" {
		c.Feed.SymbolSeparator = DefaultSymbolSeparator
	}
	if c.Feed.ChartWindow == 0 {
		c.Feed.ChartWindow = DefaultChartWindow
	}

	// Market defaults
	if c.Market.Symbol == "" {
		c.Market.Symbol = DefaultSymbol
	}
	if len(c.Market.Timeframes) == 0 {
		c.Market.Timeframes = append([]string(nil), DefaultTimeframes...)
	}
	if c.Market.Timeframe == "" {
		c.Market.Timeframe = DefaultTimeframe
	}
	if c.Market.MarginMode == "" {
		c.Market.MarginMode = DefaultMarginMode
	}
	if c.Market.Leverage == 0 {
		c.Market.Leverage = DefaultLeverage
	}

	if c.Wallet.Timeout == 0 {
		c.Wallet.Timeout = DefaultWalletTimeout
	}

	// Archive defaults
	applyDBDefaults(&c.Archive.Postgres)
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	if c.Archive.BufferSize == 0 {
		c.Archive.BufferSize = DefaultBufferSize
	}

	// Cache defaults
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}

	// Stream defaults
	if c.Stream.Topic == "" {
		c.Stream.Topic = DefaultStreamTopic
	}
	if c.Stream.ClientID == "" {
		c.Stream.ClientID = DefaultStreamClientID
	}

	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = DefaultHTTPPort
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
