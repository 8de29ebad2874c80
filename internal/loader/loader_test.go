package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"inv.csv", FormatCSV, false},
		{"INV.CSV", FormatCSV, false},
		{"lt24.xlsx", FormatXLSX, false},
		{"report.pdf", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	settings := config.Default().Input

	csvPath := filepath.Join(dir, "inv.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Material;Menge\n1;2\n"), 0o644))

	tbl, err := Load(csvPath, settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"Material", "Menge"}, tbl.Headers)

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Material"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "500"))
	xlsxPath := filepath.Join(dir, "lt24.xlsx")
	require.NoError(t, f.SaveAs(xlsxPath))

	tbl, err = Load(xlsxPath, settings)
	require.NoError(t, err)
	assert.Equal(t, "lt24.xlsx", tbl.Name)
	assert.Equal(t, []string{"500"}, tbl.Rows[0])
}

func TestLoadReader(t *testing.T) {
	tbl, err := LoadReader(strings.NewReader("Material,User\n1,ANNA\n"), "uploads/lt24.csv", config.Default().Input)
	require.NoError(t, err)
	assert.Equal(t, "lt24.csv", tbl.Name)

	_, err = LoadReader(strings.NewReader(""), "lt24.doc", config.Default().Input)
	assert.Error(t, err)
}
