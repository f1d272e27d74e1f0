// Package store provides SQLite database storage for the vigia security
// monitor: the person gallery and the detection event log.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// busyTimeoutMs is how long a writer waits on a locked database before
// failing. The pipeline goroutine and the HTTP handlers write from
// different goroutines, so short lock contention is normal.
const busyTimeoutMs = 5000

// Store represents a SQLite database connection for storing persons and
// detection events.
type Store struct {
	db   *sql.DB
	path string
}

// New creates a new Store with the given database path. It opens the
// database connection, applies the connection pragmas, and runs
// migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pragmas are per-connection; a single pooled connection keeps them
	// in force and serializes writers at the pool instead of in sqlite.
	db.SetMaxOpenConns(1)

	// Foreign keys back the ON DELETE SET NULL on events.person_id;
	// the busy timeout covers pipeline/HTTP writer contention.
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}
