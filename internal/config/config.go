// =============================================================================
// Inventory Matcher - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the configuration file.
// A single YAML file drives one reconciliation run:
//
//   input:    how CSV/XLSX files are read
//   matching: how the match key is compared
//   columns:  overrides for the column resolver pattern table
//   output:   how the enriched table is written
//   logging:  log level and format
//   server:   settings for the HTTP service
//
// Environment variables in the form ${NAME} are expanded before parsing.
// A missing configuration file is not an error: built-in defaults apply.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	Input    InputSettings    `yaml:"input"`
	Matching MatchingSettings `yaml:"matching"`
	Columns  ColumnSettings   `yaml:"columns"`
	Output   OutputSettings   `yaml:"output"`
	Logging  LoggingSettings  `yaml:"logging"`
	Server   ServerSettings   `yaml:"server"`
}

// =============================================================================
// INPUT SETTINGS
// =============================================================================

// InputSettings contains settings for reading the two input files.
type InputSettings struct {
	// Delimiter is the CSV field separator.
	// Valid values: "auto", ",", ";", "tab", "|"
	// "auto" sniffs the header line and picks the most frequent candidate.
	// Default: "auto"
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of CSV files.
	// Common values: "UTF-8", "Windows-1252", "Windows-1250", "ISO-8859-1", "ISO-8859-2"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// HeaderRows is the number of header rows. Multi-row headers are merged
	// column by column with a single space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Sheet is the XLSX sheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
}

// =============================================================================
// MATCHING SETTINGS
// =============================================================================

// Date matching modes.
const (
	DateMatchingEnabled  = "enabled"
	DateMatchingDisabled = "disabled"
)

// Date tolerance modes.
const (
	DateToleranceExact = "exact"
	DateToleranceDays  = "plus_minus_days"
)

// Source date column preferences.
const (
	SourceDateAuto         = "auto"
	SourceDateConfirmation = "confirmation"
	SourceDateCreation     = "creation"
)

// MatchingSettings controls how target rows are paired with source rows.
type MatchingSettings struct {
	// DateMatching decides whether the date participates in the key.
	// Valid values: "enabled", "disabled"
	// Default: "enabled"
	DateMatching string `yaml:"date_matching"`

	// DateTolerance selects exact date equality or a symmetric window.
	// Valid values: "exact", "plus_minus_days"
	// Default: "plus_minus_days"
	DateTolerance string `yaml:"date_tolerance"`

	// DateToleranceDays is the half-width of the window in calendar days.
	// Default: 1
	DateToleranceDays *int `yaml:"date_tolerance_days"`

	// FallbackOnDateMismatch accepts a material+quantity match when no
	// date-compatible candidate exists. The row is tagged as a weaker match.
	// Default: false
	FallbackOnDateMismatch bool `yaml:"fallback_on_date_mismatch"`

	// MaterialCaseFolding uppercases material codes before comparison.
	// Default: false
	MaterialCaseFolding bool `yaml:"material_case_folding"`

	// SourceDateColumn selects which confirmation log date is used.
	// Valid values: "auto", "confirmation", "creation"
	// "auto" prefers the confirmation date and falls back to the creation date.
	// Default: "auto"
	SourceDateColumn string `yaml:"source_date_column"`

	// StrictQuantity makes blank or unparsable quantities never match.
	// When false they degrade to 0 and match other zero quantities.
	// Default: false
	StrictQuantity bool `yaml:"strict_quantity"`

	// ProgressEvery is the number of rows between progress reports.
	// Default: 100
	ProgressEvery int `yaml:"progress_every"`

	// PreviewRows is the number of normalized keys from each table handed
	// to the observer for diagnostics.
	// Default: 5
	PreviewRows int `yaml:"preview_rows"`
}

// DateEnabled reports whether dates participate in matching.
func (m MatchingSettings) DateEnabled() bool {
	return m.DateMatching != DateMatchingDisabled
}

// ToleranceDays returns the effective window half-width.
// Exact matching always yields 0.
func (m MatchingSettings) ToleranceDays() int {
	if m.DateTolerance == DateToleranceExact || m.DateToleranceDays == nil {
		return 0
	}
	return *m.DateToleranceDays
}

// SetToleranceDays stores a window half-width.
func (m *MatchingSettings) SetToleranceDays(days int) {
	m.DateToleranceDays = &days
}

// =============================================================================
// COLUMN SETTINGS
// =============================================================================

// ColumnSettings overrides the built-in column resolution table.
// Keys of each map are role names (material, quantity, date, operator,
// time, classification, transfer_order).
type ColumnSettings struct {
	Target map[string]RolePattern `yaml:"target"`
	Source map[string]RolePattern `yaml:"source"`
}

// RolePattern describes how to recognise the column(s) for one role.
type RolePattern struct {
	// Exact lists header names that match verbatim (case-insensitive).
	Exact []string `yaml:"exact"`

	// Contains lists keyword groups. A header matches a group when it
	// contains every keyword of the group (case-insensitive).
	Contains [][]string `yaml:"contains"`

	// Exclude lists substrings that disqualify a header.
	Exclude []string `yaml:"exclude"`
}

// =============================================================================
// OUTPUT SETTINGS
// =============================================================================

// OutputSettings controls the enriched export.
type OutputSettings struct {
	// Dir is the directory the export is written to.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// FileNameFormat defines the export file name.
	// Placeholders: {name} (target file base name), {timestamp}, {date}, {uuid}
	// Default: "{name}_matched_{timestamp}"
	FileNameFormat string `yaml:"file_name_format"`

	// Format is "xlsx" or "csv".
	// Default: "xlsx"
	Format string `yaml:"format"`

	// SheetName is the worksheet name in the XLSX export.
	// Default: "Inventory_Matched"
	SheetName string `yaml:"sheet_name"`

	// Column headers of the appended enrichment columns.
	OperatorColumn      string `yaml:"operator_column"`
	TimeColumn          string `yaml:"time_column"`
	MovementTypeColumn  string `yaml:"movement_type_column"`
	TransferOrderColumn string `yaml:"transfer_order_column"`
	StatusColumn        string `yaml:"status_column"`
	ReasonColumn        string `yaml:"reason_column"`

	// HighlightColor fills the operator and reason columns.
	// Default: "#FFF9C4"
	HighlightColor string `yaml:"highlight_color"`

	// Column widths in characters.
	DefaultWidth  float64 `yaml:"default_width"`
	OperatorWidth float64 `yaml:"operator_width"`
	ReasonWidth   float64 `yaml:"reason_width"`

	// SummaryLog writes a plain-text run summary next to the export.
	SummaryLog bool `yaml:"summary_log"`
}

// =============================================================================
// LOGGING AND SERVER SETTINGS
// =============================================================================

// LoggingSettings controls the application logger.
type LoggingSettings struct {
	// Level: "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level"`

	// Format: "text" or "json". Default: "text"
	Format string `yaml:"format"`
}

// ServerSettings controls the HTTP service.
type ServerSettings struct {
	Port              int      `yaml:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	MaxUploadMB       int64    `yaml:"max_upload_mb"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from a YAML file.
//
// A path that does not exist yields the defaults. Any other read error,
// a parse error or an invalid value is returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expands ${ENV} references, applies defaults
// and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	in := &cfg.Input
	if in.Delimiter == "" {
		in.Delimiter = "auto"
	}
	if in.Encoding == "" {
		in.Encoding = "UTF-8"
	}
	if in.HeaderRows == 0 {
		in.HeaderRows = 1
	}
	if in.DataStartRow == 0 {
		in.DataStartRow = in.HeaderRows + 1
	}

	m := &cfg.Matching
	if m.DateMatching == "" {
		m.DateMatching = DateMatchingEnabled
	}
	if m.DateTolerance == "" {
		m.DateTolerance = DateToleranceDays
	}
	if m.DateToleranceDays == nil {
		m.SetToleranceDays(1)
	}
	if m.SourceDateColumn == "" {
		m.SourceDateColumn = SourceDateAuto
	}
	if m.ProgressEvery == 0 {
		m.ProgressEvery = 100
	}
	if m.PreviewRows == 0 {
		m.PreviewRows = 5
	}

	out := &cfg.Output
	if out.Dir == "" {
		out.Dir = "./output"
	}
	if out.FileNameFormat == "" {
		out.FileNameFormat = "{name}_matched_{timestamp}"
	}
	if out.Format == "" {
		out.Format = "xlsx"
	}
	if out.SheetName == "" {
		out.SheetName = "Inventory_Matched"
	}
	if out.OperatorColumn == "" {
		out.OperatorColumn = "User (LT24)"
	}
	if out.TimeColumn == "" {
		out.TimeColumn = "Time (LT24)"
	}
	if out.MovementTypeColumn == "" {
		out.MovementTypeColumn = "Movement Type"
	}
	if out.TransferOrderColumn == "" {
		out.TransferOrderColumn = "TO Number"
	}
	if out.StatusColumn == "" {
		out.StatusColumn = "Status"
	}
	if out.ReasonColumn == "" {
		out.ReasonColumn = "Reason (fill in)"
	}
	if out.HighlightColor == "" {
		out.HighlightColor = "#FFF9C4"
	}
	if out.DefaultWidth == 0 {
		out.DefaultWidth = 20
	}
	if out.OperatorWidth == 0 {
		out.OperatorWidth = 20
	}
	if out.ReasonWidth == 0 {
		out.ReasonWidth = 40
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	srv := &cfg.Server
	if srv.Port == 0 {
		srv.Port = 8080
	}
	if len(srv.AllowedOrigins) == 0 {
		srv.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if srv.MaxUploadMB == 0 {
		srv.MaxUploadMB = 32
	}
	if srv.RequestsPerSecond == 0 {
		srv.RequestsPerSecond = 2
	}
	if srv.Burst == 0 {
		srv.Burst = 4
	}
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Matching.DateMatching {
	case DateMatchingEnabled, DateMatchingDisabled:
	default:
		errs = append(errs, fmt.Errorf("matching.date_matching: unknown value %q", c.Matching.DateMatching))
	}

	switch c.Matching.DateTolerance {
	case DateToleranceExact, DateToleranceDays:
	default:
		errs = append(errs, fmt.Errorf("matching.date_tolerance: unknown value %q", c.Matching.DateTolerance))
	}

	if c.Matching.DateToleranceDays != nil && *c.Matching.DateToleranceDays < 0 {
		errs = append(errs, fmt.Errorf("matching.date_tolerance_days must not be negative"))
	}

	switch c.Matching.SourceDateColumn {
	case SourceDateAuto, SourceDateConfirmation, SourceDateCreation:
	default:
		errs = append(errs, fmt.Errorf("matching.source_date_column: unknown value %q", c.Matching.SourceDateColumn))
	}

	if c.Matching.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("matching.progress_every must be positive"))
	}

	if c.Input.HeaderRows < 1 {
		errs = append(errs, fmt.Errorf("input.header_rows must be at least 1"))
	}
	if c.Input.DataStartRow <= c.Input.HeaderRows {
		errs = append(errs, fmt.Errorf("input.data_start_row must come after the header rows"))
	}

	switch strings.ToLower(c.Output.Format) {
	case "xlsx", "csv":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown value %q", c.Output.Format))
	}

	for kind, overrides := range map[string]map[string]RolePattern{"target": c.Columns.Target, "source": c.Columns.Source} {
		for role := range overrides {
			if !isKnownRole(role) {
				errs = append(errs, fmt.Errorf("columns.%s: unknown role %q", kind, role))
			}
		}
	}

	return errors.Join(errs...)
}

// isKnownRole avoids importing the types package into configuration.
func isKnownRole(role string) bool {
	switch strings.ToLower(role) {
	case "material", "quantity", "date", "operator", "time", "classification", "transfer_order":
		return true
	}
	return false
}

// =============================================================================
// RUN OVERRIDES
// =============================================================================

// Overrides carries per-run changes from command-line flags or an upload
// form. Zero values keep the configured setting.
type Overrides struct {
	DisableDate   bool
	ExactDate     bool
	ToleranceDays *int
	Fallback      *bool
	Uppercase     *bool
	SourceDate    string
	Format        string
}

// Clone returns a copy that can be changed without affecting c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Matching.DateToleranceDays != nil {
		out.Matching.SetToleranceDays(*c.Matching.DateToleranceDays)
	}
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &out
}

// Apply merges the overrides into c and validates the result.
func (c *Config) Apply(o Overrides) error {
	m := &c.Matching

	if o.DisableDate {
		m.DateMatching = DateMatchingDisabled
	}
	if o.ExactDate {
		m.DateTolerance = DateToleranceExact
	}
	if o.ToleranceDays != nil {
		m.DateTolerance = DateToleranceDays
		m.SetToleranceDays(*o.ToleranceDays)
	}
	if o.Fallback != nil {
		m.FallbackOnDateMismatch = *o.Fallback
	}
	if o.Uppercase != nil {
		m.MaterialCaseFolding = *o.Uppercase
	}
	if o.SourceDate != "" {
		m.SourceDateColumn = strings.ToLower(o.SourceDate)
	}
	if o.Format != "" {
		c.Output.Format = strings.ToLower(o.Format)
	}

	return c.Validate()
}
