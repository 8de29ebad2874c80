// =============================================================================
// Inventory Matcher - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing CSV exports of the difference
// ledger and the confirmation log. It handles various CSV formats:
//   - Different delimiters (comma, semicolon, tab, pipe), or sniffing them
//   - Multi-line headers
//   - Custom data start rows
//   - Legacy single-byte encodings (Windows-125x, ISO-8859-x)
//   - A UTF-8 byte order mark written by spreadsheet programs
//
// Every cell is kept as text. Interpretation happens in the normalizers.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file into a table named after the file.
func Parse(filePath string, settings config.InputSettings) (*table.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filepath.Base(filePath), settings)
}

// ParseReader reads CSV data from r.
//
// PARSING PROCESS:
//  1. Decode the bytes from the configured encoding to UTF-8
//  2. Pick the delimiter, sniffing the first line when set to "auto"
//  3. Read and merge header rows (for multi-line headers)
//  4. Read data rows starting from the configured data start row
func ParseReader(r io.Reader, name string, settings config.InputSettings) (*table.Table, error) {
	dec, err := decoder(settings.Encoding)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", name, settings.Encoding, err)
	}

	csvReader := csv.NewReader(bytes.NewReader(data))
	configureReader(csvReader, settings.Delimiter, data)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file %s is empty", name)
	}

	headers, err := ExtractHeaders(allRows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	rows := ExtractDataRows(allRows, settings.DataStartRow, settings.HeaderRows)

	return table.New(name, headers, rows), nil
}

// =============================================================================
// ENCODING AND DELIMITER
// =============================================================================

// decoder returns the decoder for a configured encoding name.
// UTF-8 input may start with a byte order mark, which is dropped.
func decoder(name string) (transform.Transformer, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "", "UTF-8", "UTF8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "UTF-16", "UTF-16LE":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "WINDOWS-1250", "CP1250":
		return charmap.Windows1250.NewDecoder(), nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "ISO-8859-2", "LATIN2":
		return charmap.ISO8859_2.NewDecoder(), nil
	case "ISO-8859-15":
		return charmap.ISO8859_15.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// configureReader configures the CSV reader for the delimiter setting.
func configureReader(reader *csv.Reader, delimiter string, sample []byte) {
	switch delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	default:
		reader.Comma = SniffDelimiter(sample)
	}

	// Exports are not always rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = reader.Comma != '\t'
}

// candidateDelimiters in preference order for ties.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// SniffDelimiter counts candidate delimiters outside quotes on the first
// line and returns the most frequent. Comma is the default.
func SniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}

	counts := make(map[rune]int)
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	for _, d := range candidateDelimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// =============================================================================
// HEADERS AND ROWS
// =============================================================================

// ExtractHeaders merges the first headerRows rows into one header row.
//
// MULTI-LINE HEADER HANDLING:
//
//	Row 1: "Source", "",          "Dest."
//	Row 2: "target qty", "User", "target qty"
//	Result: "Source target qty", "User", "Dest. target qty"
func ExtractHeaders(allRows [][]string, headerRows int) ([]string, error) {
	if headerRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}

	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string

		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				value := strings.TrimSpace(allRows[row][col])
				if value != "" {
					parts = append(parts, value)
				}
			}
		}

		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers, names blank ones by position and makes
// duplicates unique by suffixing " (2)", " (3)", ...
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))

		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		seen[header]++
		if n := seen[header]; n > 1 {
			header = fmt.Sprintf("%s (%d)", header, n)
		}

		cleaned[i] = header
	}

	return cleaned
}

// ExtractDataRows returns the rows from the 1-indexed dataStartRow on,
// trimmed, with fully empty rows skipped.
func ExtractDataRows(allRows [][]string, dataStartRow, headerRows int) [][]string {
	startIndex := dataStartRow - 1
	if startIndex < headerRows {
		startIndex = headerRows
	}

	if startIndex >= len(allRows) {
		return [][]string{}
	}

	rows := make([][]string, 0, len(allRows)-startIndex)
	for _, row := range allRows[startIndex:] {
		if isRowEmpty(row) {
			continue
		}

		trimmed := make([]string, len(row))
		for i, v := range row {
			trimmed[i] = strings.TrimSpace(v)
		}
		rows = append(rows, trimmed)
	}

	return rows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
