// Package duckdb records filter runs and the variants they discarded in a
// DuckDB database, so discards can be audited and queried after the fact.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the discard audit tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS filter_runs (
			run_id VARCHAR PRIMARY KEY,
			input VARCHAR,
			mode VARCHAR,
			exclude_path VARCHAR,
			exclude_size BIGINT,
			exclude_modtime TIMESTAMP,
			include_path VARCHAR,
			include_size BIGINT,
			include_modtime TIMESTAMP,
			read_count BIGINT,
			kept_count BIGINT,
			discarded_count BIGINT,
			finished_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS discarded_variants (
			run_id VARCHAR,
			chrom VARCHAR,
			pos BIGINT,
			id VARCHAR,
			ref VARCHAR,
			alt VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
