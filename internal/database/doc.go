// Package database provides the tick archive stores.
//
// Two backends implement TickStore:
//   - PostgreSQL/TimescaleDB through a pgx connection pool
//   - a local SQLite file through modernc.org/sqlite
//
// Both are append-only. A repeated (symbol, ts) pair is ignored.
package database
