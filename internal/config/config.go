package config

import "time"

// Config is the root configuration for a feed instance.
type Config struct {
	Feed    FeedConfig    `yaml:"feed"`
	Market  MarketConfig  `yaml:"market"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Archive ArchiveConfig `yaml:"archive"`
	Cache   CacheConfig   `yaml:"cache"`
	Stream  StreamConfig  `yaml:"stream"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// FeedConfig holds the market-data endpoints. URL templates may contain
// {symbol}, {base} and {quote} placeholders. An empty template disables that feed kind.
type FeedConfig struct {
	WS        string `yaml:"ws"`
	OrderBook string `yaml:"orderbook"`
	Positions string `yaml:"positions"`
	History   string `yaml:"history"`
	RFQ       string `yaml:"rfq"`
	APIKey    string `yaml:"api_key"` // Bearer token for REST only

	PollInterval      time.Duration `yaml:"poll_interval"`
	PollWithWS        bool          `yaml:"poll_with_ws"` // Poll REST endpoints even when ws is set
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	SymbolSeparator   string        `yaml:"symbol_separator"`
	ChartWindow       int           `yaml:"chart_window"`
	SyntheticFallback *bool         `yaml:"synthetic_fallback"`
}

// RESTEndpoints returns the configured REST URL templates keyed by feed kind.
func (f FeedConfig) RESTEndpoints() map[string]string {
	endpoints := make(map[string]string, 4)
	for kind, tmpl := range map[string]string{
		"orderbook": f.OrderBook,
		"positions": f.Positions,
		"history":   f.History,
		"rfq":       f.RFQ,
	} {
		if tmpl != "" {
			endpoints[kind] = tmpl
		}
	}
	return endpoints
}

// SyntheticEnabled reports whether unrecognized orderbooks fall back to a synthetic book.
func (f FeedConfig) SyntheticEnabled() bool {
	return f.SyntheticFallback == nil || *f.SyntheticFallback
}

// MarketConfig holds the initial market selection.
type MarketConfig struct {
	Symbol     string   `yaml:"symbol"`
	Timeframe  string   `yaml:"timeframe"`
	Timeframes []string `yaml:"timeframes"`
	MarginMode string   `yaml:"margin_mode"`
	Leverage   int      `yaml:"leverage"`
}

// WalletConfig holds the JSON-RPC endpoint of the wallet provider.
type WalletConfig struct {
	RPCURL  string        `yaml:"rpc_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ArchiveConfig holds the optional tick archive.
// Driver is "postgres", "sqlite" or empty (disabled).
type ArchiveConfig struct {
	Driver        string        `yaml:"driver"`
	Postgres      DBConfig      `yaml:"postgres"`
	SQLitePath    string        `yaml:"sqlite_path"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig holds the optional Redis orderbook cache.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// StreamConfig holds the optional Kafka tick stream.
type StreamConfig struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
}

// ServerConfig holds the controller and health listeners.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
	GRPCPort int `yaml:"grpc_port"` // 0 disables the gRPC health service
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}
