// =============================================================================
// Inventory Matcher - Export Module
// =============================================================================
//
// This module renders the enriched target table for the reviewer.
//
// XLSX LAYOUT:
//   - One sheet (default "Inventory_Matched") with a bold, bordered header
//   - The operator and reason columns filled with the highlight colour so
//     the reviewer sees what to check and where to type
//   - Column widths from the output settings, header row frozen
//   - Every cell written as text, so material codes keep leading zeros
//
// CSV LAYOUT:
//   Header row followed by the data rows, comma separated, UTF-8.
//
// =============================================================================

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
)

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options contains options for rendering the export.
type Options struct {
	// Format is "xlsx" or "csv".
	Format string

	// SheetName is the worksheet name.
	SheetName string

	// HighlightColor fills the highlighted columns, e.g. "#FFF9C4".
	HighlightColor string

	// HighlightColumns are header names to fill.
	HighlightColumns []string

	// Widths maps header names to column widths. Others use DefaultWidth.
	Widths map[string]float64

	// DefaultWidth applies to every column not listed in Widths.
	DefaultWidth float64
}

// OptionsFromConfig builds options from the output settings.
func OptionsFromConfig(out config.OutputSettings) Options {
	return Options{
		Format:           strings.ToLower(out.Format),
		SheetName:        out.SheetName,
		HighlightColor:   out.HighlightColor,
		HighlightColumns: []string{out.OperatorColumn, out.ReasonColumn},
		Widths: map[string]float64{
			out.OperatorColumn: out.OperatorWidth,
			out.ReasonColumn:   out.ReasonWidth,
		},
		DefaultWidth: out.DefaultWidth,
	}
}

// Extension returns the file extension for the format, with the dot.
func (o Options) Extension() string {
	if o.Format == "csv" {
		return ".csv"
	}
	return ".xlsx"
}

// ContentType returns the MIME type for the format.
func (o Options) ContentType() string {
	if o.Format == "csv" {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Write renders the table to w in the configured format.
func Write(w io.Writer, t *table.Table, opts Options) error {
	switch opts.Format {
	case "csv":
		return WriteCSV(w, t)
	case "", "xlsx":
		return WriteXLSX(w, t, opts)
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

// WriteFile renders the table to a new file at path.
func WriteFile(path string, t *table.Table, opts Options) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, t, opts); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// WriteCSV renders the table as CSV.
func WriteCSV(w io.Writer, t *table.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX renders the table as a styled workbook.
func WriteXLSX(w io.Writer, t *table.Table, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newStyles(f, opts.HighlightColor)
	if err != nil {
		return err
	}

	// Column widths and highlight fills first; cell styles set later win.
	for i, header := range t.Headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}

		width := opts.DefaultWidth
		if w, ok := opts.Widths[header]; ok && w > 0 {
			width = w
		}
		if width > 0 {
			if err := f.SetColWidth(sheet, col, col, width); err != nil {
				return fmt.Errorf("failed to set width of %s: %w", col, err)
			}
		}

		if contains(opts.HighlightColumns, header) {
			if err := f.SetColStyle(sheet, col, styles.highlight); err != nil {
				return fmt.Errorf("failed to style column %s: %w", col, err)
			}
		}
	}

	if err := writeRow(f, sheet, 1, t.Headers); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(max(len(t.Headers), 1), 1)
	if err := f.SetCellStyle(sheet, first, last, styles.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range t.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

type styleSet struct {
	header    int
	highlight int
}

func newStyles(f *excelize.File, highlight string) (styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: border,
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("failed to create header style: %w", err)
	}

	fill, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{highlight}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("failed to create highlight style: %w", err)
	}

	return styleSet{header: header, highlight: fill}, nil
}

// writeRow writes the values as text cells starting at column A.
func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
