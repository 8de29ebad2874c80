// Package loader picks the parser for an input file by its extension.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/csvparser"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
	"github.com/ginjaninja78/inventory-matcher/internal/xlsxparser"
)

// Format is a supported input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file name to a format.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", filepath.Ext(name))
	}
}

// Load reads a file from disk.
func Load(path string, settings config.InputSettings) (*table.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return xlsxparser.Parse(path, settings)
	default:
		return csvparser.Parse(path, settings)
	}
}

// LoadReader reads an uploaded file. name is used for format detection
// and as the table name.
func LoadReader(r io.Reader, name string, settings config.InputSettings) (*table.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(name)
	switch format {
	case FormatXLSX:
		return xlsxparser.ParseReader(r, base, settings)
	default:
		return csvparser.ParseReader(r, base, settings)
	}
}
