package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Feed.validate(); err != nil {
		return err
	}

	if c.Market.Symbol == "" {
		return errors.New("market.symbol is required")
	}
	if !slices.Contains(c.Market.Timeframes, c.Market.Timeframe) {
		return fmt.Errorf("market.timeframe %q is not one of %v", c.Market.Timeframe, c.Market.Timeframes)
	}
	if c.Market.MarginMode != "cross" && c.Market.MarginMode != "isolated" {
		return fmt.Errorf("market.margin_mode must be cross or isolated, got %q", c.Market.MarginMode)
	}
	if c.Market.Leverage < 1 || c.Market.Leverage > 125 {
		return fmt.Errorf("market.leverage must be between 1 and 125, got %d", c.Market.Leverage)
	}

	switch c.Archive.Driver {
	case "":
	case "postgres":
		if err := c.Archive.Postgres.validate("archive.postgres"); err != nil {
			return err
		}
	case "sqlite":
		if c.Archive.SQLitePath == "" {
			return errors.New("archive.sqlite_path is required")
		}
	default:
		return fmt.Errorf("archive.driver must be postgres or sqlite, got %q", c.Archive.Driver)
	}
	if c.Archive.BatchSize < 1 {
		return errors.New("archive.batch_size must be >= 1")
	}
	if c.Archive.BufferSize < 1 {
		return errors.New("archive.buffer_size must be >= 1")
	}

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 1 and 65535, got %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port must be between 0 and 65535, got %d", c.Server.GRPCPort)
	}

	return nil
}

func (f *FeedConfig) validate() error {
	if f.WS == "" && len(f.RESTEndpoints()) == 0 {
		return errors.New("feed: at least one of ws, orderbook, positions, history, rfq is required")
	}
	if f.PollInterval <= 0 {
		return errors.New("feed.poll_interval must be > 0")
	}
	if f.ReconnectDelay <= 0 {
		return errors.New("feed.reconnect_delay must be > 0")
	}
	if f.ChartWindow < 1 {
		return errors.New("feed.chart_window must be >= 1")
	}
	if f.MaxRetries < 0 {
		return errors.New("feed.max_retries must be >= 0")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
