// Package table holds the uniform in-memory representation of a loaded
// dataset: ordered rows, named columns, every cell kept as its raw text.
//
// Blank cells are stored as the empty string. Parsers never coerce cell
// types; interpretation is left to the normalizers.
package table

import (
	"fmt"
	"strings"
)

// Table is a loaded dataset.
type Table struct {
	// Name is a human-readable label, usually the base file name.
	Name string

	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows. Every row has len(Headers) cells.
	Rows [][]string
}

// New creates a table and pads or truncates every row to the header width.
func New(name string, headers []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Headers: append([]string(nil), headers...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, fitRow(row, len(headers)))
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the header, or -1.
func (t *Table) ColumnIndex(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Value returns the cell at (row, header). The boolean is false when the
// column does not exist or the cell is blank.
func (t *Table) Value(row int, header string) (string, bool) {
	col := t.ColumnIndex(header)
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	v := t.Rows[row][col]
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Values returns the cells of one row for the given headers, in order.
// Missing columns yield blank cells.
func (t *Table) Values(row int, headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i], _ = t.Value(row, h)
	}
	return out
}

// Clone returns a deep copy so callers can enrich without touching the input.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// AddColumn appends a column. values must have one entry per row.
// An existing header with the same name is overwritten in place.
func (t *Table) AddColumn(header string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", header, len(values), len(t.Rows))
	}

	if col := t.ColumnIndex(header); col >= 0 {
		for i := range t.Rows {
			t.Rows[i][col] = values[i]
		}
		return nil
	}

	t.Headers = append(t.Headers, header)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// fitRow pads short rows with blanks and drops cells beyond the header width.
func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
