package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS duration_cache (
	cache_key TEXT PRIMARY KEY,
	start_lat REAL NOT NULL,
	start_lon REAL NOT NULL,
	end_lat REAL NOT NULL,
	end_lon REAL NOT NULL,
	mode TEXT NOT NULL,
	duration_seconds REAL NOT NULL,
	last_access INTEGER NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS duration_cache (
	cache_key TEXT PRIMARY KEY,
	start_lat DOUBLE PRECISION NOT NULL,
	start_lon DOUBLE PRECISION NOT NULL,
	end_lat DOUBLE PRECISION NOT NULL,
	end_lon DOUBLE PRECISION NOT NULL,
	mode TEXT NOT NULL,
	duration_seconds DOUBLE PRECISION NOT NULL,
	last_access BIGINT NOT NULL
);
`

const lastAccessIndex = `
CREATE INDEX IF NOT EXISTS idx_duration_cache_last_access
ON duration_cache(last_access);
`

// Initialize the SQLite duration cache schema.
func InitSQLiteSchema(db *sql.DB) error {
	return initSchema(db, sqliteSchema, lastAccessIndex)
}

// Initialize the Postgres duration cache schema.
func InitPostgresSchema(db *sql.DB) error {
	return initSchema(db, postgresSchema, lastAccessIndex)
}

func initSchema(db *sql.DB, statements ...string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
