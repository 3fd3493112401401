package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ticks (
	symbol TEXT NOT NULL,
	ts     TIMESTAMPTZ NOT NULL,
	price  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (symbol, ts)
)`

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresTickStore writes ticks to PostgreSQL or TimescaleDB.
type PostgresTickStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTickStore wraps an open pool. The store owns the pool.
func NewPostgresTickStore(pool *pgxpool.Pool) *PostgresTickStore {
	return &PostgresTickStore{pool: pool}
}

// Migrate creates the ticks table if it does not exist.
func (s *PostgresTickStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create ticks table: %w", err)
	}
	return nil
}

// InsertTicks queues one insert per tick in a single pgx.Batch.
func (s *PostgresTickStore) InsertTicks(ctx context.Context, ticks []model.Tick) (int, error) {
	if len(ticks) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, t := range ticks {
		batch.Queue(`
			INSERT INTO ticks (symbol, ts, price)
			VALUES ($1, $2, $3)
			ON CONFLICT (symbol, ts) DO NOTHING
		`, t.Symbol, t.Time().UTC(), t.Price)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range ticks {
		ct, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert tick: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

// Close closes the pool.
func (s *PostgresTickStore) Close() error {
	s.pool.Close()
	return nil
}
