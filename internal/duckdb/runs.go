package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by LookupRun for an unknown run ID.
var ErrRunNotFound = errors.New("filter run not found")

// Run describes one completed filter invocation.
type Run struct {
	ID         string
	Input      string
	Mode       string
	Exclude    FileFingerprint
	Include    FileFingerprint
	Read       int
	Kept       int
	Discarded  int
	FinishedAt time.Time
}

// NewRunID returns a fresh identifier for a filter run.
func NewRunID() string {
	return uuid.NewString()
}

// RecordRun stores the summary of a finished run.
func (s *Store) RecordRun(r Run) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO filter_runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Input, r.Mode,
		r.Exclude.Path, r.Exclude.Size, r.Exclude.nullTime(),
		r.Include.Path, r.Include.Size, r.Include.nullTime(),
		r.Read, r.Kept, r.Discarded, r.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert filter run: %w", err)
	}
	return nil
}

// LookupRun returns the run with the given ID.
func (s *Store) LookupRun(id string) (Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, input, mode,
		exclude_path, exclude_size, exclude_modtime,
		include_path, include_size, include_modtime,
		read_count, kept_count, discarded_count, finished_at
		FROM filter_runs WHERE run_id=?`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query filter run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return runs[0], nil
}

// ListRuns returns all recorded runs, most recent first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, input, mode,
		exclude_path, exclude_size, exclude_modtime,
		include_path, include_size, include_modtime,
		read_count, kept_count, discarded_count, finished_at
		FROM filter_runs ORDER BY finished_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query filter runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ClearRuns removes all runs and their discarded variants.
func (s *Store) ClearRuns() error {
	if _, err := s.db.Exec("DELETE FROM discarded_variants"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM filter_runs")
	return err
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var exMod, inMod sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.Input, &r.Mode,
			&r.Exclude.Path, &r.Exclude.Size, &exMod,
			&r.Include.Path, &r.Include.Size, &inMod,
			&r.Read, &r.Kept, &r.Discarded, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan filter run: %w", err)
		}
		if exMod.Valid {
			r.Exclude.ModTime = exMod.Time
		}
		if inMod.Valid {
			r.Include.ModTime = inMod.Time
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filter runs: %w", err)
	}
	return runs, nil
}
