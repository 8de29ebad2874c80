package csvparser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
)

func settings() config.InputSettings {
	return config.Default().Input
}

func TestParseReader_SniffsSemicolon(t *testing.T) {
	data := "Material;Menge in ErfassME;Buchungsdatum\n00123;-10,5;05.03.2024\n\n123;4;06.03.2024\n"

	tbl, err := ParseReader(strings.NewReader(data), "inv.csv", settings())
	require.NoError(t, err)

	assert.Equal(t, "inv.csv", tbl.Name)
	assert.Equal(t, []string{"Material", "Menge in ErfassME", "Buchungsdatum"}, tbl.Headers)
	require.Equal(t, 2, tbl.Len(), "blank line is skipped")
	assert.Equal(t, []string{"00123", "-10,5", "05.03.2024"}, tbl.Rows[0])
}

func TestParseReader_ExplicitDelimiter(t *testing.T) {
	s := settings()
	s.Delimiter = "tab"

	tbl, err := ParseReader(strings.NewReader("A\tB\n1\t2\n"), "x.tsv", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tbl.Rows[0])
}

func TestParseReader_StripsBOM(t *testing.T) {
	data := "\ufeffMaterial,User\n1,ANNA\n"

	tbl, err := ParseReader(strings.NewReader(data), "lt24.csv", settings())
	require.NoError(t, err)
	assert.Equal(t, "Material", tbl.Headers[0])
}

func TestParseReader_Windows1250(t *testing.T) {
	encoded, err := charmap.Windows1250.NewEncoder().String("Material;Benutzer\n1;Dvořák\n")
	require.NoError(t, err)

	s := settings()
	s.Encoding = "Windows-1250"

	tbl, err := ParseReader(bytes.NewReader([]byte(encoded)), "lt24.csv", s)
	require.NoError(t, err)
	assert.Equal(t, "Dvořák", tbl.Rows[0][1])
}

func TestParseReader_UnsupportedEncoding(t *testing.T) {
	s := settings()
	s.Encoding = "EBCDIC"

	_, err := ParseReader(strings.NewReader("a\n"), "x.csv", s)
	assert.Error(t, err)
}

func TestParseReader_Empty(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), "x.csv", settings())
	assert.Error(t, err)
}

func TestParseReader_MultiRowHeader(t *testing.T) {
	s := settings()
	s.HeaderRows = 2
	s.DataStartRow = 3

	data := "Source,,Dest.\ntarget qty,User,target qty\n5,ANNA,0\n"
	tbl, err := ParseReader(strings.NewReader(data), "lt24.csv", s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Source target qty", "User", "Dest. target qty"}, tbl.Headers)
	assert.Equal(t, 1, tbl.Len())
}

func TestCleanHeaders(t *testing.T) {
	got := cleanHeaders([]string{" Material ", "", "User", "User"})
	assert.Equal(t, []string{"Material", "Column_2", "User", "User (2)"}, got)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		sample string
		want   rune
	}{
		{"a,b,c\n1;2", ','},
		{"a;b;c\n", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{`"x;y",b,c`, ','},
		{"single", ','},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SniffDelimiter([]byte(tt.sample)), tt.sample)
	}
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inv.csv")
	require.NoError(t, os.WriteFile(path, []byte("Material,Menge\n1,2\n"), 0o644))

	tbl, err := Parse(path, settings())
	require.NoError(t, err)
	assert.Equal(t, "inv.csv", tbl.Name)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), settings())
	assert.Error(t, err)
}
