package xlsxparser

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	return f
}

func TestParse_FirstSheet(t *testing.T) {
	f := writeWorkbook(t, "Sheet1", [][]any{
		{"Material", "Menge in ErfassME", "Buchungsdatum"},
		{"00123", -10, "2024-03-05"},
		{},
		{"500", 5, "2024-01-10"},
	})
	path := filepath.Join(t.TempDir(), "inv.xlsx")
	require.NoError(t, f.SaveAs(path))

	tbl, err := Parse(path, config.Default().Input)
	require.NoError(t, err)

	assert.Equal(t, "inv.xlsx", tbl.Name)
	assert.Equal(t, []string{"Material", "Menge in ErfassME", "Buchungsdatum"}, tbl.Headers)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"00123", "-10", "2024-03-05"}, tbl.Rows[0])
}

func TestParseReader_NamedSheet(t *testing.T) {
	f := writeWorkbook(t, "LT24", [][]any{
		{"Material", "User"},
		{"500", "ANNA"},
	})
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	settings := config.Default().Input
	settings.Sheet = "lt24"

	tbl, err := ParseReader(bytes.NewReader(buf.Bytes()), "lt24.xlsx", settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"500", "ANNA"}, tbl.Rows[0])

	settings.Sheet = "Missing"
	_, err = ParseReader(bytes.NewReader(buf.Bytes()), "lt24.xlsx", settings)
	assert.ErrorContains(t, err, `sheet "Missing" not found`)
}

func TestParseReader_NotAWorkbook(t *testing.T) {
	_, err := ParseReader(bytes.NewReader([]byte("Material,User\n")), "x.xlsx", config.Default().Input)
	assert.Error(t, err)
}

func TestSheetNames(t *testing.T) {
	f := writeWorkbook(t, "Sheet1", [][]any{{"A"}})
	_, err := f.NewSheet("Second")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Second"}, names)
}

func TestParse_ReadsStoredValues(t *testing.T) {
	f := writeWorkbook(t, "Sheet1", [][]any{
		{"Material", "Menge in ErfassME", "Buchungsdatum", "Uhrzeit", "Erfasst am"},
		{"4711", -1000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 0.6, time.Date(2024, 3, 5, 14, 24, 0, 0, time.UTC)},
	})

	dayFirst := "dd/mm/yyyy"
	styles := map[string]*excelize.Style{
		"B2": {NumFmt: 3},
		"C2": {CustomNumFmt: &dayFirst},
		"D2": {NumFmt: 21},
		"E2": {NumFmt: 22},
	}
	for cell, style := range styles {
		id, err := f.NewStyle(style)
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle("Sheet1", cell, cell, id))
	}

	path := filepath.Join(t.TempDir(), "inv.xlsx")
	require.NoError(t, f.SaveAs(path))

	tbl, err := Parse(path, config.Default().Input)
	require.NoError(t, err)

	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"4711", "-1000", "2024-03-05", "14:24:00", "2024-03-05 14:24:00"}, tbl.Rows[0])
}

func TestClassifyFormat(t *testing.T) {
	tests := []struct {
		code string
		want formatKind
	}{
		{"General", formatNumber},
		{"#,##0", formatNumber},
		{"0.00;[Red]-0.00", formatNumber},
		{`0 "days"`, formatNumber},
		{"dd/mm/yyyy", formatDate},
		{"[$-407]dd.mm.yyyy", formatDate},
		{"mmm yy", formatDate},
		{"[h]:mm:ss", formatTime},
		{"mm:ss", formatTime},
		{"hh:mm AM/PM", formatTime},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyFormat(tt.code))
		})
	}
}
