// =============================================================================
// Inventory Matcher - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the matcher:
//   - Output directory management
//   - Export file naming
//   - Run summary log generation
//
// NAMING STRATEGY:
//   Export names come from a format string with placeholders, so repeated
//   runs against the same inventory file never overwrite each other.
//   The summary log shares the export's base name with a ".log.txt" suffix.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the matcher.
type FileManager struct {
	// OutputDir is the directory where exports and summary logs are placed.
	OutputDir string

	// FileNameFormat is the export name format, see GenerateOutputFileName.
	FileNameFormat string

	// now is replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager.
func NewFileManager(outputDir, fileNameFormat string) *FileManager {
	return &FileManager{
		OutputDir:      outputDir,
		FileNameFormat: fileNameFormat,
		now:            time.Now,
	}
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// OutputPath returns the export path for an input file.
//
// PARAMETERS:
//   - inputPath: The target (inventory) file; its base name fills {name}.
//   - ext:       The export extension including the dot, e.g. ".xlsx".
func (fm *FileManager) OutputPath(inputPath, ext string) string {
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(fm.OutputDir, generateOutputFileName(fm.FileNameFormat, name, ext, fm.now()))
}

// SummaryLogPath returns the summary log path that belongs to an export.
func SummaryLogPath(exportPath string) string {
	return strings.TrimSuffix(exportPath, filepath.Ext(exportPath)) + ".log.txt"
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an export file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {name}      - Target file name without extension
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {uuid}      - A random UUID
//   - name: The value for {name}.
//   - ext:  The extension to ensure, e.g. ".xlsx".
//
// EXAMPLE:
//
//	format: "{name}_matched_{timestamp}"
//	name:   "inventory_march"
//	output: "inventory_march_matched_20240315_143022.xlsx"
func GenerateOutputFileName(format, name, ext string) string {
	return generateOutputFileName(format, name, ext, time.Now())
}

func generateOutputFileName(format, name, ext string, now time.Time) string {
	replacer := strings.NewReplacer(
		"{name}", name,
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{uuid}", uuid.NewString(),
	)
	result := replacer.Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// RUN SUMMARY LOG
// =============================================================================

// RunSummary contains summary information about a reconciliation run.
type RunSummary struct {
	RunID        string
	StartTime    time.Time
	Duration     time.Duration
	TargetFile   string
	SourceFile   string
	OutputFile   string
	Total        int
	Matched      int
	Unmatched    int
	DateMismatch int

	// SourceRemaining is the number of source rows no target row consumed.
	SourceRemaining int

	// CellWarnings counts degraded cells by "table/role".
	CellWarnings map[string]int

	// Settings lists the effective matching settings as name/value pairs.
	Settings [][2]string
}

// WriteSummaryLog writes a run summary to path.
func WriteSummaryLog(summary RunSummary, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Inventory Matcher - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  Duration:       %s\n"+
		"  Inventory:      %s\n"+
		"  LT24 Export:    %s\n"+
		"  Output:         %s\n\n"+
		"Statistics:\n"+
		"  Total Rows:          %d\n"+
		"  Matched:             %d\n"+
		"  Date Mismatch:       %d\n"+
		"  Not Found:           %d\n"+
		"  Unused Source Rows:  %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.Duration.String(),
		summary.TargetFile,
		summary.SourceFile,
		summary.OutputFile,
		summary.Total,
		summary.Matched,
		summary.DateMismatch,
		summary.Unmatched,
		summary.SourceRemaining)

	if len(summary.Settings) > 0 {
		writer.WriteString("Settings:\n")
		for _, s := range summary.Settings {
			fmt.Fprintf(writer, "  %-20s %s\n", s[0]+":", s[1])
		}
		writer.WriteString("\n")
	}

	if len(summary.CellWarnings) > 0 {
		writer.WriteString("Cell Warnings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		keys := make([]string, 0, len(summary.CellWarnings))
		for k := range summary.CellWarnings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(writer, "  %-20s %d\n", k+":", summary.CellWarnings[k])
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary file: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
