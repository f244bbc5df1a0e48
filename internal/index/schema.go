// Package index mirrors the daily records into SQLite for range queries and summaries.
// The binary records stay authoritative; the index can be rebuilt from them at any time.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	metric     TEXT NOT NULL,
	date       TEXT NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	entries    INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS heart_rate (
	date       TEXT NOT NULL,
	hour       INTEGER NOT NULL,
	minute     INTEGER NOT NULL,
	heart_rate INTEGER,
	max        INTEGER,
	min        INTEGER,
	avg        INTEGER,
	UNIQUE(date, hour, minute)
);

CREATE TABLE IF NOT EXISTS steps (
	date   TEXT NOT NULL,
	hour   INTEGER NOT NULL,
	minute INTEGER NOT NULL,
	kind   TEXT NOT NULL,
	count  INTEGER NOT NULL,
	UNIQUE(date, hour, minute)
);

CREATE INDEX IF NOT EXISTS idx_records_metric_date ON records(metric, date);
CREATE INDEX IF NOT EXISTS idx_heart_rate_date ON heart_rate(date);
CREATE INDEX IF NOT EXISTS idx_steps_date ON steps(date);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
