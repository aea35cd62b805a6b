// Package storage provides SQLite-backed persistence for benchmark
// report history. The in-memory report held by the run controller stays
// authoritative for the live API; this store exists for inspection
// across restarts.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite doesn't handle concurrent writes well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &DB{db}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, migrationReports); err != nil {
		return fmt.Errorf("reports migration failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

const migrationReports = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,

	-- Summary columns for queries without unmarshalling
	total_tests INTEGER NOT NULL DEFAULT 0,
	successful INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	avg_tokens_per_second REAL NOT NULL DEFAULT 0,
	avg_cpu_percent REAL NOT NULL DEFAULT 0,
	peak_memory_gb REAL NOT NULL DEFAULT 0,
	utilization TEXT,
	error TEXT,

	-- Full JSON for detailed data
	full_report_json TEXT NOT NULL,

	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp);
`
