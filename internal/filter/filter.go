// Package filter streams variant records through discard rules.
package filter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/discard"
	"github.com/inodb/vibe-filter/internal/vcf"
)

// progressInterval is how often (in records) progress is logged at debug level.
const progressInterval = 100000

// Decider decides per record whether it is discarded. *discard.Rules
// implements it.
type Decider interface {
	ShouldDiscard(id string) bool
	DiscardCount() int
	Mode() discard.Mode
}

// RecordWriter receives kept records.
type RecordWriter interface {
	WriteHeader() error
	Write(v *vcf.Variant) error
	Flush() error
}

// DiscardSink receives discarded records, e.g. for auditing.
type DiscardSink interface {
	Discarded(v *vcf.Variant) error
}

// Summary reports the outcome of a run.
type Summary struct {
	Read      int
	Kept      int
	Discarded int
	NoID      int // records with a missing ID column
	Mode      discard.Mode
}

// Filter copies records from a parser to a writer, dropping the ones the
// decider discards.
type Filter struct {
	rules  Decider
	sink   DiscardSink
	logger *zap.Logger
}

// New creates a filter using the given rules.
func New(rules Decider) *Filter {
	return &Filter{
		rules:  rules,
		logger: zap.NewNop(),
	}
}

// SetSink registers a sink for discarded records.
func (f *Filter) SetSink(s DiscardSink) {
	f.sink = s
}

// SetLogger sets the logger for progress and summary messages.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Run reads every record from parser and writes the kept ones to writer.
// The header is written first. ShouldDiscard is called exactly once per
// record. Cancelling ctx stops the run between records.
func (f *Filter) Run(ctx context.Context, parser vcf.VariantParser, writer RecordWriter) (Summary, error) {
	sum := Summary{Mode: f.rules.Mode()}
	start := f.rules.DiscardCount()

	if err := writer.WriteHeader(); err != nil {
		return sum, fmt.Errorf("write header: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		v, err := parser.Next()
		if err != nil {
			return sum, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}
		sum.Read++
		if !v.HasID() {
			sum.NoID++
		}

		if f.rules.ShouldDiscard(v.ID) {
			if f.sink != nil {
				if err := f.sink.Discarded(v); err != nil {
					return sum, fmt.Errorf("record discarded variant: %w", err)
				}
			}
		} else {
			if err := writer.Write(v); err != nil {
				return sum, fmt.Errorf("write variant: %w", err)
			}
			sum.Kept++
		}

		if sum.Read%progressInterval == 0 {
			f.logger.Debug("filter progress",
				zap.Int("read", sum.Read),
				zap.Int("kept", sum.Kept),
				zap.Int("line", parser.LineNumber()))
		}
	}

	sum.Discarded = f.rules.DiscardCount() - start

	if err := writer.Flush(); err != nil {
		return sum, fmt.Errorf("flush output: %w", err)
	}

	if sum.Read == 0 {
		f.logger.Info("0 variants processed")
	}
	f.logger.Info("filter finished",
		zap.Stringer("mode", sum.Mode),
		zap.Int("read", sum.Read),
		zap.Int("kept", sum.Kept),
		zap.Int("discarded", sum.Discarded))

	return sum, nil
}
