package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rickgao/forwards-feed/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ticks (
	symbol TEXT NOT NULL,
	ts     INTEGER NOT NULL,
	price  REAL NOT NULL,
	PRIMARY KEY (symbol, ts)
)`

// SQLiteTickStore writes ticks to a local SQLite file.
type SQLiteTickStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteTickStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ticks table: %w", err)
	}
	return &SQLiteTickStore{db: db}, nil
}

// InsertTicks writes ticks in one transaction.
func (s *SQLiteTickStore) InsertTicks(ctx context.Context, ticks []model.Tick) (int, error) {
	if len(ticks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO ticks (symbol, ts, price) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range ticks {
		res, err := stmt.ExecContext(ctx, t.Symbol, t.Timestamp, t.Price)
		if err != nil {
			return 0, fmt.Errorf("insert tick: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Ticks returns the stored ticks for symbol in timestamp order.
func (s *SQLiteTickStore) Ticks(ctx context.Context, symbol string) ([]model.Tick, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, ts, price FROM ticks WHERE symbol = ? ORDER BY ts`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var out []model.Tick
	for rows.Next() {
		var t model.Tick
		if err := rows.Scan(&t.Symbol, &t.Timestamp, &t.Price); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteTickStore) Close() error {
	return s.db.Close()
}
