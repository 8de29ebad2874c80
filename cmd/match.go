// =============================================================================
// Inventory Matcher - Match Command
// =============================================================================
//
// This file defines the 'match' command, which runs one reconciliation and
// writes the enriched inventory table.
//
// COMMAND USAGE:
//   matcher match <inventory-file> <lt24-file> [flags]
//
// FLAGS:
//   --no-date          : Match on material and quantity only
//   --exact-date       : Require the same calendar day
//   --tolerance-days   : Allowed day difference (default from config, 1)
//   --fallback         : Accept a material+quantity match when no date fits
//   --uppercase        : Compare material numbers case-insensitively
//   --source-date      : LT24 date column: auto, confirmation or creation
//   --output, -o       : Output file (default: generated in output.dir)
//   --format           : xlsx or csv
//   --summary-log      : Also write a plain-text run summary
//
// PROCESSING PIPELINE:
//   1. Load configuration and apply flags
//   2. Load both tables
//   3. Reconcile (Ctrl-C cancels between rows)
//   4. Write the export and optional summary log
//   5. Print the summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/exporter"
	"github.com/ginjaninja78/inventory-matcher/internal/loader"
	"github.com/ginjaninja78/inventory-matcher/internal/reconcile"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
	"github.com/ginjaninja78/inventory-matcher/internal/validation"
	"github.com/ginjaninja78/inventory-matcher/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// matchFlags holds the matching overrides shared by match and inspect.
type matchFlags struct {
	noDate        bool
	exactDate     bool
	toleranceDays int
	fallback      bool
	uppercase     bool
	sourceDate    string
}

var matchOpts matchFlags

// outputPath is an explicit export path.
var outputPath string

// outputFormat overrides output.format.
var outputFormat string

// summaryLog forces the summary log on.
var summaryLog bool

// =============================================================================
// MATCH COMMAND DEFINITION
// =============================================================================

var matchCmd = &cobra.Command{
	Use:   "match <inventory-file> <lt24-file>",
	Short: "Reconcile an inventory export against an LT24 export",
	Long: `The match command pairs every inventory row with at most one LT24 movement
and writes the inventory table with six extra columns:

  User (LT24), Time (LT24), Movement Type, TO Number, Status, Reason (fill in)

Status is "Matched", "Matched (date mismatch)" (only with --fallback) or
"Not found". The operator and reason columns are highlighted for review.

Each LT24 movement is used at most once, so duplicate inventory rows are
paired with distinct movements. A missing required column stops the run
before any row is matched.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMatch(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchOpts.register(matchCmd)

	matchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: generated in output.dir)")
	matchCmd.Flags().StringVar(&outputFormat, "format", "", "Output format: xlsx or csv")
	matchCmd.Flags().BoolVar(&summaryLog, "summary-log", false, "Write a plain-text run summary next to the export")
}

// register adds the matching flags to a command.
func (f *matchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noDate, "no-date", false, "Match on material and quantity only")
	cmd.Flags().BoolVar(&f.exactDate, "exact-date", false, "Require the same calendar day")
	cmd.Flags().IntVar(&f.toleranceDays, "tolerance-days", 1, "Allowed day difference when dates are compared")
	cmd.Flags().BoolVar(&f.fallback, "fallback", false, "Accept a material+quantity match when no date fits")
	cmd.Flags().BoolVar(&f.uppercase, "uppercase", false, "Compare material numbers case-insensitively")
	cmd.Flags().StringVar(&f.sourceDate, "source-date", "", "LT24 date column: auto, confirmation or creation")
}

// overrides converts the flags the user actually set.
func (f *matchFlags) overrides(cmd *cobra.Command) config.Overrides {
	o := config.Overrides{
		DisableDate: f.noDate,
		ExactDate:   f.exactDate,
		SourceDate:  f.sourceDate,
	}
	if cmd.Flags().Changed("tolerance-days") {
		days := f.toleranceDays
		o.ToleranceDays = &days
	}
	if cmd.Flags().Changed("fallback") {
		fallback := f.fallback
		o.Fallback = &fallback
	}
	if cmd.Flags().Changed("uppercase") {
		upper := f.uppercase
		o.Uppercase = &upper
	}
	return o
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runMatch(cmd *cobra.Command, targetPath, sourcePath string) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	overrides := matchOpts.overrides(cmd)
	overrides.Format = outputFormat
	if err := cfg.Apply(overrides); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	if summaryLog {
		cfg.Output.SummaryLog = true
	}

	logger := newLogger(cfg)

	fmt.Println("=== Inventory Matcher ===")

	// =========================================================================
	// STEP 2: LOAD TABLES
	// =========================================================================

	target, source, err := loadTables(cfg, targetPath, sourcePath)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: RECONCILE
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := reconcile.ObserverFuncs{
		OnProgress: progressPrinter(),
		OnPreview: func(t, s []reconcile.KeyPreview) {
			for _, p := range t {
				logger.Debug("target key", "row", p.Row, "material", p.Material, "quantity", p.Quantity, "date", p.Date)
			}
			for _, p := range s {
				logger.Debug("source key", "row", p.Row, "material", p.Material, "quantity", p.Quantity, "date", p.Date)
			}
		},
	}

	r, err := reconcile.New(cfg, logger, observer)
	if err != nil {
		return err
	}

	fmt.Println("Matching...")
	result, err := r.Run(ctx, target, source)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT
	// =========================================================================

	opts := exporter.OptionsFromConfig(cfg.Output)
	fm := utils.NewFileManager(cfg.Output.Dir, cfg.Output.FileNameFormat)

	dest := outputPath
	if dest == "" {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		dest = fm.OutputPath(targetPath, opts.Extension())
	}

	if err := exporter.WriteFile(dest, result.Table, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if cfg.Output.SummaryLog {
		logPath := utils.SummaryLogPath(dest)
		if err := utils.WriteSummaryLog(runSummary(cfg, result.Summary, startTime, targetPath, sourcePath, dest), logPath); err != nil {
			return err
		}
		fmt.Printf("Summary log:     %s\n", logPath)
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	printSummary(result, dest, time.Since(startTime))
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadTables loads the inventory and LT24 files.
func loadTables(cfg *config.Config, targetPath, sourcePath string) (*table.Table, *table.Table, error) {
	for _, path := range []string{targetPath, sourcePath} {
		if !utils.FileExists(path) {
			return nil, nil, fmt.Errorf("input file %s does not exist", path)
		}
	}

	target, err := loader.Load(targetPath, cfg.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load inventory file: %w", err)
	}
	fmt.Printf("Loaded %s: %d row(s)\n", target.Name, target.Len())

	source, err := loader.Load(sourcePath, cfg.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load LT24 file: %w", err)
	}
	fmt.Printf("Loaded %s: %d row(s)\n", source.Name, source.Len())

	return target, source, nil
}

// progressPrinter returns a progress callback that redraws one line on a
// terminal and prints nothing otherwise.
func progressPrinter() func(float64) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return func(f float64) {
		fmt.Printf("\r  Progress: %3.0f%%", f*100)
		if f >= 1 {
			fmt.Println()
		}
	}
}

func printSummary(result *reconcile.Result, dest string, elapsed time.Duration) {
	s := result.Summary

	fmt.Println("\n=== Matching Complete ===")
	fmt.Printf("Total rows:      %d\n", s.Total)
	fmt.Printf("Matched:         %d\n", s.Matched)
	if s.FallbackEnabled {
		fmt.Printf("  date mismatch: %d\n", s.DateMismatch)
	}
	fmt.Printf("Not found:       %d\n", s.Unmatched)
	fmt.Printf("Unused LT24:     %d of %d\n", s.SourceRemaining, s.SourceRows)
	if len(s.CellWarnings) > 0 {
		fmt.Printf("Cell warnings:   %s\n", validation.FormatCounts(s.CellWarnings))
	}
	fmt.Printf("Output:          %s\n", dest)
	fmt.Printf("Time elapsed:    %s\n", elapsed.Round(time.Millisecond))
}

func runSummary(cfg *config.Config, s reconcile.Summary, start time.Time, targetPath, sourcePath, dest string) utils.RunSummary {
	dateMode := cfg.Matching.DateMatching
	if cfg.Matching.DateEnabled() {
		dateMode = fmt.Sprintf("%s (tolerance %d day(s))", dateMode, cfg.Matching.ToleranceDays())
	}

	return utils.RunSummary{
		RunID:           s.RunID,
		StartTime:       start,
		Duration:        s.Duration,
		TargetFile:      targetPath,
		SourceFile:      sourcePath,
		OutputFile:      dest,
		Total:           s.Total,
		Matched:         s.Matched,
		Unmatched:       s.Unmatched,
		DateMismatch:    s.DateMismatch,
		SourceRemaining: s.SourceRemaining,
		CellWarnings:    s.CellWarnings,
		Settings: [][2]string{
			{"date_matching", dateMode},
			{"fallback", fmt.Sprint(cfg.Matching.FallbackOnDateMismatch)},
			{"source_date_column", cfg.Matching.SourceDateColumn},
			{"case_folding", fmt.Sprint(cfg.Matching.MaterialCaseFolding)},
			{"strict_quantity", fmt.Sprint(cfg.Matching.StrictQuantity)},
		},
	}
}
