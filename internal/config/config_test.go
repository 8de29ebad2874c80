package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Input.Delimiter)
	assert.Equal(t, 2, cfg.Input.DataStartRow)
	assert.True(t, cfg.Matching.DateEnabled())
	assert.Equal(t, 1, cfg.Matching.ToleranceDays())
	assert.False(t, cfg.Matching.FallbackOnDateMismatch)
	assert.False(t, cfg.Matching.MaterialCaseFolding)
	assert.Equal(t, SourceDateAuto, cfg.Matching.SourceDateColumn)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, "User (LT24)", cfg.Output.OperatorColumn)
	assert.Equal(t, 40.0, cfg.Output.ReasonWidth)
}

func TestLoad_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
input:
  delimiter: ";"
  encoding: Windows-1250
matching:
  date_matching: enabled
  date_tolerance: exact
  fallback_on_date_mismatch: true
  material_case_folding: true
  source_date_column: creation
columns:
  source:
    operator:
      exact: ["Benutzer"]
output:
  format: csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ";", cfg.Input.Delimiter)
	assert.Equal(t, "Windows-1250", cfg.Input.Encoding)
	assert.Equal(t, 0, cfg.Matching.ToleranceDays(), "exact tolerance means zero days")
	assert.True(t, cfg.Matching.FallbackOnDateMismatch)
	assert.True(t, cfg.Matching.MaterialCaseFolding)
	assert.Equal(t, SourceDateCreation, cfg.Matching.SourceDateColumn)
	assert.Equal(t, []string{"Benutzer"}, cfg.Columns.Source["operator"].Exact)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestParse_ZeroToleranceDaysIsKept(t *testing.T) {
	cfg, err := Parse([]byte("matching:\n  date_tolerance_days: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Matching.ToleranceDays())
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("MATCHER_OUT_DIR", "/tmp/matched")

	cfg, err := Parse([]byte("output:\n  dir: ${MATCHER_OUT_DIR}\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/matched", cfg.Output.Dir)
}

func TestParse_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"date matching", "matching:\n  date_matching: sometimes\n"},
		{"tolerance mode", "matching:\n  date_tolerance: fuzzy\n"},
		{"negative days", "matching:\n  date_tolerance_days: -2\n"},
		{"source date", "matching:\n  source_date_column: posting\n"},
		{"output format", "output:\n  format: pdf\n"},
		{"unknown role", "columns:\n  target:\n    colour:\n      exact: [x]\n"},
		{"data before headers", "input:\n  header_rows: 2\n  data_start_row: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("matching: [unclosed"))
	assert.Error(t, err)
}

func TestApply_Overrides(t *testing.T) {
	cfg := Default()
	days := 3
	fallback := true

	err := cfg.Apply(Overrides{ToleranceDays: &days, Fallback: &fallback, SourceDate: "Creation", Format: "CSV"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Matching.ToleranceDays())
	assert.True(t, cfg.Matching.FallbackOnDateMismatch)
	assert.Equal(t, SourceDateCreation, cfg.Matching.SourceDateColumn)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.False(t, cfg.Matching.MaterialCaseFolding, "nil pointer keeps the setting")
}

func TestApply_ExactAndDisabled(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Apply(Overrides{DisableDate: true, ExactDate: true}))

	assert.False(t, cfg.Matching.DateEnabled())
	assert.Equal(t, 0, cfg.Matching.ToleranceDays())
}

func TestApply_InvalidSourceDate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Apply(Overrides{SourceDate: "yesterday"}))
}

func TestClone_IsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Matching.SetToleranceDays(9)
	clone.Server.AllowedOrigins[0] = "x"

	assert.Equal(t, 1, cfg.Matching.ToleranceDays())
	assert.NotEqual(t, "x", cfg.Server.AllowedOrigins[0])
}
