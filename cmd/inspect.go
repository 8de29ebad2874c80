// =============================================================================
// Inventory Matcher - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which checks two files without
// matching them: which columns were detected for each role, which required
// roles are missing, and what the first normalized keys look like.
//
// COMMAND USAGE:
//   matcher inspect <inventory-file> <lt24-file> [flags]
//
// Use it when a run reports "Not found" for rows that should match: the key
// preview shows material numbers, quantities and dates exactly as compared.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inventory-matcher/internal/loader"
	"github.com/ginjaninja78/inventory-matcher/internal/reconcile"
	"github.com/ginjaninja78/inventory-matcher/internal/resolver"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
	"github.com/ginjaninja78/inventory-matcher/internal/validation"
	"github.com/ginjaninja78/inventory-matcher/internal/xlsxparser"
)

var inspectOpts matchFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect <inventory-file> <lt24-file>",
	Short: "Show detected columns and normalized keys without matching",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectOpts.register(inspectCmd)
}

func runInspect(cmd *cobra.Command, targetPath, sourcePath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Apply(inspectOpts.overrides(cmd)); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	logger := newLogger(cfg)

	target, source, err := loadTables(cfg, targetPath, sourcePath)
	if err != nil {
		return err
	}

	r, err := reconcile.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	ins := r.Inspect(target, source)

	printSheets(targetPath, cfg.Input.Sheet)
	printSheets(sourcePath, cfg.Input.Sheet)

	printColumns(ins.TargetColumns)
	printColumns(ins.SourceColumns)

	fmt.Println()
	fmt.Print(validation.FormatErrors(ins.Validation.Errors))

	printPreview("Inventory keys", ins.TargetPreview)
	printPreview("LT24 keys", ins.SourcePreview)

	if ins.Err != nil {
		return fmt.Errorf("the files cannot be matched: %w", ins.Err)
	}
	return nil
}

// printSheets lists the worksheets of an XLSX input so a wrong sheet
// choice is visible.
func printSheets(path, selected string) {
	if format, err := loader.DetectFormat(path); err != nil || format != loader.FormatXLSX {
		return
	}
	names, err := xlsxparser.SheetNames(path)
	if err != nil {
		return
	}
	if selected == "" && len(names) > 0 {
		selected = names[0]
	}
	fmt.Printf("Sheets in %s: %s (reading %q)\n", filepath.Base(path), strings.Join(names, ", "), selected)
}

func printColumns(res *resolver.Resolution) {
	fmt.Printf("\n%s (%s):\n", res.Table, res.Kind)
	for _, role := range types.AllRoles {
		cols := res.Columns[role]
		if len(cols) == 0 {
			fmt.Printf("  %-15s -\n", role)
			continue
		}
		fmt.Printf("  %-15s %s\n", role, strings.Join(cols, ", "))
	}
}

func printPreview(title string, keys []reconcile.KeyPreview) {
	if len(keys) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	fmt.Printf("  %-5s %-20s %12s  %s\n", "Row", "Material", "Quantity", "Date")
	for _, k := range keys {
		date := k.Date
		if date == "" {
			date = "-"
		}
		fmt.Printf("  %-5d %-20s %12g  %s\n", k.Row, k.Material, k.Quantity, date)
	}
}
