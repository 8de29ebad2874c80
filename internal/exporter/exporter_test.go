package exporter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
)

func enrichedTable() *table.Table {
	return table.New("inv.xlsx",
		[]string{"Material", "Menge in ErfassME", "User (LT24)", "Status", "Reason (fill in)"},
		[][]string{
			{"00123", "-10", "ANNA", "Matched", ""},
			{"500", "5", "", "Not found", ""},
		})
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, enrichedTable(), OptionsFromConfig(config.Default().Output)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Inventory_Matched"}, f.GetSheetList())

	rows, err := f.GetRows("Inventory_Matched")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Reason (fill in)", rows[0][4])
	assert.Equal(t, "00123", rows[1][0], "leading zeros survive as text")

	width, err := f.GetColWidth("Inventory_Matched", "C")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)

	width, err = f.GetColWidth("Inventory_Matched", "E")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)

	styleID, err := f.GetCellStyle("Inventory_Matched", "C2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.Equal(t, []string{"FFF9C4"}, normalizeColors(style.Fill.Color))

	headerID, err := f.GetCellStyle("Inventory_Matched", "A1")
	require.NoError(t, err)
	header, err := f.GetStyle(headerID)
	require.NoError(t, err)
	require.NotNil(t, header.Font)
	assert.True(t, header.Font.Bold)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, enrichedTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Material,Menge in ErfassME,User (LT24),Status,Reason (fill in)", lines[0])
	assert.Equal(t, "00123,-10,ANNA,Matched,", lines[1])
}

func TestWrite_ByFormat(t *testing.T) {
	opts := OptionsFromConfig(config.Default().Output)
	opts.Format = "csv"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, enrichedTable(), opts))
	assert.True(t, strings.HasPrefix(buf.String(), "Material,"))
	assert.Equal(t, ".csv", opts.Extension())
	assert.Contains(t, opts.ContentType(), "text/csv")

	opts.Format = "pdf"
	assert.Error(t, Write(&buf, enrichedTable(), opts))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteFile(path, enrichedTable(), OptionsFromConfig(config.Default().Output)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Inventory_Matched", "C2")
	require.NoError(t, err)
	assert.Equal(t, "ANNA", v)
}

// normalizeColors strips the "#" and alpha prefixes excelize may add when
// reading a fill back.
func normalizeColors(colors []string) []string {
	out := make([]string, len(colors))
	for i, c := range colors {
		c = strings.TrimPrefix(strings.ToUpper(c), "#")
		if len(c) == 8 {
			c = c[2:]
		}
		out[i] = c
	}
	return out
}
