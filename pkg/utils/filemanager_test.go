package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 22, 0, time.UTC)

	assert.Equal(t, "inv_matched_20240315_143022.xlsx",
		generateOutputFileName("{name}_matched_{timestamp}", "inv", ".xlsx", now))
	assert.Equal(t, "20240315_inv.csv",
		generateOutputFileName("{date}_{name}.csv", "inv", ".csv", now), "extension not doubled")

	withID := generateOutputFileName("{uuid}", "inv", ".xlsx", now)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.xlsx$`), withID)
}

func TestFileManager_OutputPath(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(filepath.Join(dir, "out"), "{name}_matched_{timestamp}")
	fm.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, fm.EnsureDirectories())
	assert.True(t, FileExists(fm.OutputDir))

	path := fm.OutputPath("/data/inventory march.xlsx", ".xlsx")
	assert.Equal(t, filepath.Join(dir, "out", "inventory march_matched_20240102_030405.xlsx"), path)
	assert.Equal(t, filepath.Join(dir, "out", "inventory march_matched_20240102_030405.log.txt"), SummaryLogPath(path))
}

func TestWriteSummaryLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log.txt")

	err := WriteSummaryLog(RunSummary{
		RunID:        "abc",
		Total:        3,
		Matched:      2,
		Unmatched:    1,
		DateMismatch: 1,
		CellWarnings: map[string]int{"target/quantity": 2, "source/date": 1},
		Settings:     [][2]string{{"date_matching", "enabled"}},
	}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Run ID:         abc")
	assert.Contains(t, text, "Matched:             2")
	assert.Contains(t, text, "Not Found:           1")
	assert.Contains(t, text, "date_matching:")
	assert.Regexp(t, `(?s)source/date:\s+1.*target/quantity:\s+2`, text)
	assert.Contains(t, text, "End of Summary")
}
