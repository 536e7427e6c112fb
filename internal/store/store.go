package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a race does not exist.
var ErrNotFound = errors.New("not found")

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order after schema.sql. Version 0 is the bare schema.
var migrations = []migration{
	{1, `CREATE INDEX IF NOT EXISTS idx_race_events_runner ON race_events(runner, race_id)`},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// connPragmas configure every connection. Race writes come from a single
// recorder, so one connection with WAL serves writers and trace readers.
var connPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the race-trace log.
type Store struct {
	db *sql.DB
}

// Open opens the trace log at path, creating the file and its tables on
// first use and upgrading an older layout in place. Opening the same path
// again is harmless.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, step := range []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"apply pragmas", configure},
		{"apply schema", applySchema},
		{"migrate", migrate},
	} {
		if err := step.fn(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to %s: %w", step.name, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for tests and ad hoc inspection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func configure(db *sql.DB) error {
	for _, pragma := range connPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

// migrate brings user_version up to currentSchemaVersion.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("to v%d: %w", m.version, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
		version = m.version
	}
	return nil
}

// verifyPragma reports an error unless pragma name reads as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
