// =============================================================================
// Inventory Matcher - XLSX Parser
// =============================================================================
//
// This module reads one worksheet of an XLSX export into a table.
//
// SHEET SELECTION:
//   The configured sheet name is used when set; otherwise the first sheet.
//
// CELL VALUES:
//   Cells are read as stored, not as their number format renders them, so a
//   quantity formatted "#,##0" arrives as "-1000" rather than "-1,000".
//   Numbers carrying a date or time format are rendered as ISO text
//   ("2024-03-05", "2024-03-05 14:24:00", "14:24:00") so day and month can
//   never swap. The header and data start rows follow the same settings as
//   CSV input.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/csvparser"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an XLSX file into a table named after the file.
func Parse(filePath string, settings config.InputSettings) (*table.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, filepath.Base(filePath), settings)
}

// ParseReader reads an XLSX workbook from r.
func ParseReader(r io.Reader, name string, settings config.InputSettings) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer f.Close()

	return readSheet(f, name, settings)
}

// SheetNames lists the worksheets of a workbook file.
func SheetNames(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

func readSheet(f *excelize.File, name string, settings config.InputSettings) (*table.Table, error) {
	sheetName, err := pickSheet(f, settings.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	if err := newCellRenderer(f, sheetName).renderDates(rows); err != nil {
		return nil, fmt.Errorf("failed to read cell formats of sheet %q: %w", sheetName, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %s is empty", sheetName, name)
	}

	headers, err := csvparser.ExtractHeaders(rows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	data := csvparser.ExtractDataRows(rows, settings.DataStartRow, settings.HeaderRows)

	return table.New(name, headers, data), nil
}

// pickSheet returns the configured sheet, matched case-insensitively, or
// the first sheet when none is configured.
func pickSheet(f *excelize.File, want string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if want == "" {
		return sheets[0], nil
	}

	for _, s := range sheets {
		if strings.EqualFold(s, want) {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", want, strings.Join(sheets, ", "))
}
