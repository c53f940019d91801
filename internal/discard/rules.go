// Package discard decides whether variant records are dropped based on
// their identifier, using exclusion and inclusion ID lists.
package discard

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// ErrUnreadable is wrapped by every load failure.
var ErrUnreadable = errors.New("id list unreadable")

// Mode is the filtering mode derived from the current ID sets.
type Mode int

// A non-empty exclude set selects ExcludeMode regardless of the include set.
const (
	NoFiltering Mode = iota
	ExcludeMode
	IncludeMode
)

func (m Mode) String() string {
	switch m {
	case ExcludeMode:
		return "exclude"
	case IncludeMode:
		return "include"
	default:
		return "none"
	}
}

type idSet map[string]struct{}

// Rules holds the exclude and include ID sets and counts discarded records.
//
// Rules is not safe for concurrent mutation. Load everything before
// querying from multiple goroutines.
type Rules struct {
	exclude   idSet
	include   idSet
	discarded int
	logger    *zap.Logger
}

// NewRules creates an empty evaluator that keeps every record.
func NewRules() *Rules {
	return &Rules{
		exclude: idSet{},
		include: idSet{},
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger used for load messages.
func (r *Rules) SetLogger(l *zap.Logger) {
	r.logger = l
}

// LoadExcludeIDs replaces the exclude set with the IDs listed in path.
// Records whose ID is in the set are discarded. On error the set is unchanged.
func (r *Rules) LoadExcludeIDs(path string) error {
	ids, err := readIDFile(path)
	if err != nil {
		return err
	}
	r.exclude = ids
	r.logger.Info("loaded exclude ids", zap.String("path", path), zap.Int("count", len(ids)))
	return nil
}

// LoadIncludeIDs replaces the include set with the IDs listed in path.
// Records whose ID is not in the set are discarded, unless an exclude set
// is also loaded. On error the set is unchanged.
func (r *Rules) LoadIncludeIDs(path string) error {
	ids, err := readIDFile(path)
	if err != nil {
		return err
	}
	r.include = ids
	r.logger.Info("loaded include ids", zap.String("path", path), zap.Int("count", len(ids)))
	return nil
}

// LoadExcludeIDsFrom replaces the exclude set with the IDs read from rd.
func (r *Rules) LoadExcludeIDsFrom(rd io.Reader) error {
	ids, err := readIDs(rd)
	if err != nil {
		return err
	}
	r.exclude = ids
	return nil
}

// LoadIncludeIDsFrom replaces the include set with the IDs read from rd.
func (r *Rules) LoadIncludeIDsFrom(rd io.Reader) error {
	ids, err := readIDs(rd)
	if err != nil {
		return err
	}
	r.include = ids
	return nil
}

// ShouldDiscard reports whether the record with the given ID should be
// dropped, and counts it if so. Call it exactly once per record.
//
// A non-empty exclude set always takes precedence over the include set.
func (r *Rules) ShouldDiscard(id string) bool {
	if len(r.exclude) > 0 {
		if _, ok := r.exclude[id]; ok {
			r.discarded++
			return true
		}
	} else if len(r.include) > 0 {
		if _, ok := r.include[id]; !ok {
			r.discarded++
			return true
		}
	}
	return false
}

// Mode returns the mode implied by the current sets.
func (r *Rules) Mode() Mode {
	switch {
	case len(r.exclude) > 0:
		return ExcludeMode
	case len(r.include) > 0:
		return IncludeMode
	default:
		return NoFiltering
	}
}

// DiscardCount returns the number of records discarded since the last
// ClearDiscardCount or Reset.
func (r *Rules) DiscardCount() int {
	return r.discarded
}

// ClearDiscardCount zeroes the discard counter, leaving the sets alone.
func (r *Rules) ClearDiscardCount() {
	r.discarded = 0
}

// Reset clears both sets and the counter.
func (r *Rules) Reset() {
	r.exclude = idSet{}
	r.include = idSet{}
	r.discarded = 0
}

// ExcludeCount returns the number of distinct IDs in the exclude set.
func (r *Rules) ExcludeCount() int {
	return len(r.exclude)
}

// IncludeCount returns the number of distinct IDs in the include set.
func (r *Rules) IncludeCount() int {
	return len(r.include)
}

// readIDFile reads a plain or gzipped ID list.
func readIDFile(path string) (idSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id list: %w: %w", ErrUnreadable, err)
	}
	defer file.Close()

	br := bufio.NewReader(file)

	// Check for gzip magic number (0x1f, 0x8b)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w: %w", ErrUnreadable, err)
		}
		defer gz.Close()
		src = gz
	}

	return readIDs(src)
}

// readIDs collects whitespace-separated tokens into a new set. Partial
// results are discarded on a read error.
func readIDs(rd io.Reader) (idSet, error) {
	ids := idSet{}
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		ids[sc.Text()] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read id list: %w: %w", ErrUnreadable, err)
	}
	return ids, nil
}
