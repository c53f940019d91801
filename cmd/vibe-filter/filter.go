package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/discard"
	"github.com/inodb/vibe-filter/internal/duckdb"
	"github.com/inodb/vibe-filter/internal/filter"
	"github.com/inodb/vibe-filter/internal/vcf"
)

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [options] <input-file>",
		Short: "Keep or drop VCF records by ID",
		Long: `Filter VCF records using an exclude and/or include list of variant IDs.

ID lists are plain text with one ID per line (or whitespace separated),
optionally gzipped. A record's whole ID column is compared against the list.`,
		Example: `  vibe-filter filter --exclude-ids blacklist.txt input.vcf
  vibe-filter filter --include-ids panel.txt -o panel.vcf input.vcf.gz
  vibe-filter filter --exclude-ids common.txt --audit-db audit.duckdb input.vcf
  cat input.vcf | vibe-filter filter --include-ids panel.txt -`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError("input file argument required (use '-' for stdin)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.String("exclude-ids", "", "File of IDs to drop")
	f.String("include-ids", "", "File of IDs to keep (ignored when --exclude-ids is set)")
	f.StringP("output", "o", "", "Output file (default: stdout)")
	f.String("audit-db", "", "DuckDB file to record discarded variants in")
	f.Bool("strict", false, "Fail if an ID list cannot be read instead of filtering without it")

	viper.BindPFlag("filter.exclude_ids", f.Lookup("exclude-ids"))
	viper.BindPFlag("filter.include_ids", f.Lookup("include-ids"))
	viper.BindPFlag("filter.audit_db", f.Lookup("audit-db"))
	viper.BindPFlag("filter.strict", f.Lookup("strict"))

	return cmd
}

func runFilter(cmd *cobra.Command, inputPath string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	excludePath := viper.GetString("filter.exclude_ids")
	includePath := viper.GetString("filter.include_ids")
	strict := viper.GetBool("filter.strict")

	rules := discard.NewRules()
	rules.SetLogger(logger)

	if err := loadIDList(rules.LoadExcludeIDs, excludePath, strict, logger); err != nil {
		return err
	}
	if err := loadIDList(rules.LoadIncludeIDs, includePath, strict, logger); err != nil {
		return err
	}
	if rules.ExcludeCount() > 0 && rules.IncludeCount() > 0 {
		logger.Warn("both exclude and include ids loaded, include list is ignored")
	}

	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w (check that the file path is correct)", err)
		}
		return err
	}
	defer parser.Close()

	var out io.Writer = cmd.OutOrStdout()
	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	flt := filter.New(rules)
	flt.SetLogger(logger)

	var (
		store    *duckdb.Store
		recorder *duckdb.Recorder
		runID    string
	)
	if auditPath := viper.GetString("filter.audit_db"); auditPath != "" {
		store, err = duckdb.Open(auditPath)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		defer store.Close()

		runID = duckdb.NewRunID()
		recorder = store.NewRecorder(runID)
		flt.SetSink(recorder)
		logger.Debug("recording discarded variants", zap.String("db", auditPath), zap.String("run_id", runID))
	}

	sum, err := flt.Run(cmd.Context(), parser, vcf.NewWriter(out, parser.Header()))
	if err != nil {
		return err
	}

	if store != nil {
		if err := recorder.Flush(); err != nil {
			return fmt.Errorf("write audit: %w", err)
		}
		if err := recordRun(store, runID, inputPath, excludePath, includePath, sum); err != nil {
			return err
		}
		logger.Info("audit recorded", zap.String("run_id", runID))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Read %d variants: kept %d, discarded %d (mode: %s)\n",
		sum.Read, sum.Kept, sum.Discarded, sum.Mode)
	return nil
}

// loadIDList loads path with load. In non-strict mode an unreadable list is
// logged and the run continues without that rule.
func loadIDList(load func(string) error, path string, strict bool, logger *zap.Logger) error {
	if path == "" {
		return nil
	}
	if err := load(path); err != nil {
		if strict {
			return err
		}
		logger.Warn("ignoring unreadable id list", zap.String("path", path), zap.Error(err))
	}
	return nil
}

func recordRun(store *duckdb.Store, runID, input, excludePath, includePath string, sum filter.Summary) error {
	run := duckdb.Run{
		ID:        runID,
		Input:     input,
		Mode:      sum.Mode.String(),
		Read:      sum.Read,
		Kept:      sum.Kept,
		Discarded: sum.Discarded,
	}
	var err error
	if run.Exclude, err = duckdb.StatFile(excludePath); err != nil {
		run.Exclude = duckdb.FileFingerprint{Path: excludePath}
	}
	if run.Include, err = duckdb.StatFile(includePath); err != nil {
		run.Include = duckdb.FileFingerprint{Path: includePath}
	}
	if err := store.RecordRun(run); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}
