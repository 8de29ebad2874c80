// =============================================================================
// Inventory Matcher - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (matcher)
//   ├── matchCmd   (matcher match <inventory> <lt24>)
//   ├── inspectCmd (matcher inspect <inventory> <lt24>)
//   ├── serveCmd   (matcher serve)
//   └── versionCmd (matcher version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose,
//   --log-format). Subcommands call loadConfig and newLogger, which apply
//   those flags on top of the configuration file.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides logging.format when set.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "matcher",
	Short: "Inventory Matcher - Reconcile inventory differences against LT24 warehouse movements",

	Long: `Inventory Matcher reconciles an inventory-difference export against an LT24
warehouse-movement export. Every inventory row is paired with at most one
movement by material number, absolute quantity and (optionally) date, and the
operator, time, movement type and transfer order of the paired movement are
written next to it for review.

Key Features:
  - CSV (any common delimiter and encoding) and XLSX input
  - Header-based column detection for SAP-style exports
  - Date matching with a configurable day tolerance
  - Styled XLSX or CSV output with a status column
  - HTTP service for uploads

Example Usage:
  matcher match inventory.xlsx lt24.xlsx          # Reconcile two files
  matcher match inv.csv lt24.csv --no-date        # Ignore dates
  matcher inspect inventory.xlsx lt24.xlsx        # Show detected columns only
  matcher serve --config ./config.yaml            # Start the HTTP service`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (built-in defaults apply when it does not exist)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text or json (overrides the configuration file)",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}

// newLogger builds the application logger on stderr so stdout stays
// reserved for command output.
func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	return logger
}
