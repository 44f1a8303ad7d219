// Package state keeps the cycle journal in SQLite. By default the journal
// lives in memory for the duration of one session; a file path turns it into
// an audit log that `troupe history` can read back.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath is the DSN of a session-scoped in-memory journal.
const MemoryPath = ":memory:"

// DB wraps an SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens an SQLite database at the given path, or an in-memory database
// for MemoryPath. Parent directories are created for file databases.
func Open(path string) (*DB, error) {
	if path == "" {
		path = MemoryPath
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == MemoryPath {
		// Every pooled connection would otherwise see its own empty database.
		conn.SetMaxOpenConns(1)
	} else if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file, or MemoryPath.
func (db *DB) Path() string {
	return db.path
}

// InMemory reports whether the journal disappears with the process.
func (db *DB) InMemory() bool {
	return db.path == MemoryPath
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Cycles},
		{2, migrationV2TaskOutcomes},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Cycles = `
CREATE TABLE IF NOT EXISTS cycles (
	id TEXT PRIMARY KEY,
	request TEXT NOT NULL,
	process TEXT NOT NULL,
	plan_source TEXT NOT NULL,
	plan TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
`

const migrationV2TaskOutcomes = `
CREATE TABLE IF NOT EXISTS task_outcomes (
	cycle_id TEXT NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	task_id TEXT NOT NULL,
	agent_id TEXT,
	status TEXT NOT NULL,
	output TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	human_feedback TEXT,
	error TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (cycle_id, position)
);

CREATE INDEX IF NOT EXISTS idx_task_outcomes_status ON task_outcomes(status);
`

// timeLayout is RFC 3339 with fixed-width nanoseconds so stored values sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses a nullable time string, returning the zero time
// for NULL or unparsable values.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := parseTime(s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
