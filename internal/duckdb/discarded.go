package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-filter/internal/vcf"
)

// defaultBatchSize is the number of discarded variants buffered by a
// Recorder before they are appended.
const defaultBatchSize = 10000

// DiscardedVariant is a record dropped by a filter run.
type DiscardedVariant struct {
	RunID string
	Chrom string
	Pos   int64
	ID    string
	Ref   string
	Alt   string
}

// WriteDiscarded batch-inserts discarded variants using the Appender API.
func (s *Store) WriteDiscarded(rows []DiscardedVariant) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "discarded_variants")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, d := range rows {
		if err := appender.AppendRow(d.RunID, d.Chrom, d.Pos, d.ID, d.Ref, d.Alt); err != nil {
			return fmt.Errorf("append discarded variant: %w", err)
		}
	}

	return appender.Flush()
}

// DiscardedByID returns every recorded discard of the given variant ID
// across all runs.
func (s *Store) DiscardedByID(id string) ([]DiscardedVariant, error) {
	return s.queryDiscarded(`SELECT run_id, chrom, pos, id, ref, alt
		FROM discarded_variants WHERE id=? ORDER BY run_id, chrom, pos`, id)
}

// DiscardedForRun returns the variants discarded by one run.
func (s *Store) DiscardedForRun(runID string) ([]DiscardedVariant, error) {
	return s.queryDiscarded(`SELECT run_id, chrom, pos, id, ref, alt
		FROM discarded_variants WHERE run_id=? ORDER BY chrom, pos`, runID)
}

func (s *Store) queryDiscarded(query string, arg any) ([]DiscardedVariant, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("query discarded variants: %w", err)
	}
	defer rows.Close()

	var out []DiscardedVariant
	for rows.Next() {
		var d DiscardedVariant
		if err := rows.Scan(&d.RunID, &d.Chrom, &d.Pos, &d.ID, &d.Ref, &d.Alt); err != nil {
			return nil, fmt.Errorf("scan discarded variant: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discarded variants: %w", err)
	}
	return out, nil
}

// Recorder buffers discarded variants for one run and appends them to the
// store in batches. It satisfies filter.DiscardSink.
type Recorder struct {
	store     *Store
	runID     string
	batchSize int
	pending   []DiscardedVariant
}

// NewRecorder creates a recorder for the given run.
func (s *Store) NewRecorder(runID string) *Recorder {
	return &Recorder{
		store:     s,
		runID:     runID,
		batchSize: defaultBatchSize,
	}
}

// Discarded buffers v, writing the batch once it is full.
func (r *Recorder) Discarded(v *vcf.Variant) error {
	r.pending = append(r.pending, DiscardedVariant{
		RunID: r.runID,
		Chrom: v.Chrom,
		Pos:   v.Pos,
		ID:    v.ID,
		Ref:   v.Ref,
		Alt:   v.Alt,
	})
	if len(r.pending) >= r.batchSize {
		return r.Flush()
	}
	return nil
}

// Flush writes any buffered variants.
func (r *Recorder) Flush() error {
	if err := r.store.WriteDiscarded(r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}
