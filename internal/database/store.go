package database

import (
	"context"
	"fmt"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/model"
)

// Archive drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// TickStore persists ticks.
type TickStore interface {
	// InsertTicks appends ticks and returns how many rows were new.
	InsertTicks(ctx context.Context, ticks []model.Tick) (int, error)
	Close() error
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.ArchiveConfig) (TickStore, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pool, err := Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := NewPostgresTickStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case DriverSQLite:
		store, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
