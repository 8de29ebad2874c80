// =============================================================================
// Inventory Matcher - Validation
// =============================================================================
//
// This module collects every problem found in the input tables before and
// during matching.
//
// VALIDATION STRATEGY:
//   Validation is performed at two levels:
//   1. Structural: every required role must resolve to at least one column
//      in both tables before any row is matched. A missing required column
//      is an error and aborts the run. A missing optional column (time,
//      storage bin, transfer order) is a warning.
//   2. Cell-level: a cell that a normalizer could not parse is a warning.
//      The row continues with a sentinel key and may simply fail to match.
//
// ERROR HANDLING:
//   - Problems are collected, not returned one by one
//   - Each entry carries table, role, row and raw value
//   - Warnings are counted per table and role for the run summary
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/inventory-matcher/internal/resolver"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleRequiredColumn = "required_column"
	RuleOptionalColumn = "optional_column"
	RuleUnparsableCell = "unparsable_cell"
	RuleBlankCell      = "blank_cell"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation problem.
type ValidationError struct {
	// Severity is SeverityError (run aborts) or SeverityWarning.
	Severity string

	// Kind is the table the problem was found in.
	Kind types.TableKind

	// Table is the table name, usually the file name.
	Table string

	// Role is the semantic role involved.
	Role types.Role

	// Row is the 1-based data row number. 0 for structural problems.
	Row int

	// Value is the raw cell value.
	Value string

	// Rule is the rule that was violated.
	Rule string

	// Message is a human-readable description.
	Message string

	// Cause is the normalizer error behind an unparsable cell, if any.
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("[%s] %s table %q, role '%s': %s",
			strings.ToUpper(e.Severity), e.Kind, e.Table, e.Role, e.Message)
	}
	return fmt.Sprintf("[%s] %s table %q, row %d, role '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity), e.Kind, e.Table, e.Row, e.Role, e.Message, e.Value)
}

// Unwrap returns the normalizer error, so errors.Is(e, normalize.ErrUnparsable)
// holds for unparsable cells.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all problems, including warnings.
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings. It can exceed the warnings in
	// Errors when a Collector stopped storing entries at its limit.
	WarningCount int
}

func newResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// Merge appends the problems of other, including warnings that other only
// counted.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	stored := 0
	for _, e := range other.Errors {
		r.add(e)
		if e.Severity != SeverityError {
			stored++
		}
	}
	r.WarningCount += other.WarningCount - stored
}

// =============================================================================
// STRUCTURAL VALIDATION
// =============================================================================

// optionalRoles are reported as warnings when absent from the source table.
var optionalRoles = []types.Role{types.RoleTime, types.RoleClassification, types.RoleTransferOrder}

// ValidateResolution turns the outcome of column resolution into a result.
//
// resolveErr is the joined error returned by resolver.ResolveAll for the
// tables; each MissingColumnError becomes a fatal entry. Source tables are
// also checked for optional roles.
func ValidateResolution(resolveErr error, resolutions ...*resolver.Resolution) *ValidationResult {
	result := newResult()

	for _, err := range flatten(resolveErr) {
		var mc *resolver.MissingColumnError
		if !errors.As(err, &mc) {
			continue
		}
		result.add(&ValidationError{
			Severity: SeverityError,
			Kind:     mc.Kind,
			Table:    mc.Table,
			Role:     mc.Role,
			Rule:     RuleRequiredColumn,
			Message:  "no column matches this required role",
		})
	}

	for _, res := range resolutions {
		if res == nil || res.Kind != types.SourceTable {
			continue
		}
		for _, role := range optionalRoles {
			if res.Has(role) {
				continue
			}
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Kind:     res.Kind,
				Table:    res.Table,
				Role:     role,
				Rule:     RuleOptionalColumn,
				Message:  "no column found, output column stays blank",
			})
		}
	}

	return result
}

// flatten unwraps errors.Join trees into their leaves.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// =============================================================================
// CELL WARNINGS
// =============================================================================

// Collector records degraded cells during key building.
// The zero value is not usable; use NewCollector.
type Collector struct {
	result *ValidationResult
	counts map[string]int
	limit  int
}

// NewCollector creates a collector that keeps at most limit individual
// entries. Counting continues past the limit. limit <= 0 keeps everything.
func NewCollector(limit int) *Collector {
	return &Collector{
		result: newResult(),
		counts: make(map[string]int),
		limit:  limit,
	}
}

// Warn records one degraded cell. row is the zero-based data row index.
func (c *Collector) Warn(kind types.TableKind, table string, row int, role types.Role, raw, rule string) {
	msg := "value could not be parsed"
	if rule == RuleBlankCell {
		msg = "value is blank"
	}
	c.record(&ValidationError{
		Severity: SeverityWarning,
		Kind:     kind,
		Table:    table,
		Role:     role,
		Row:      row + 1,
		Value:    raw,
		Rule:     rule,
		Message:  msg,
	})
}

// Unparsable records a cell rejected by a strict normalizer. The error is
// kept as the entry's cause.
func (c *Collector) Unparsable(kind types.TableKind, table string, row int, role types.Role, raw string, err error) {
	c.record(&ValidationError{
		Severity: SeverityWarning,
		Kind:     kind,
		Table:    table,
		Role:     role,
		Row:      row + 1,
		Value:    raw,
		Rule:     RuleUnparsableCell,
		Message:  err.Error(),
		Cause:    err,
	})
}

func (c *Collector) record(e *ValidationError) {
	c.counts[countKey(e.Kind, e.Role)]++

	if c.limit > 0 && len(c.result.Errors) >= c.limit {
		c.result.WarningCount++
		return
	}
	c.result.add(e)
}

// Result returns the collected warnings.
func (c *Collector) Result() *ValidationResult {
	return c.result
}

// Counts returns warning counts keyed "table/role", e.g. "source/quantity".
func (c *Collector) Counts() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Total returns the number of warnings recorded, including those past the
// entry limit.
func (c *Collector) Total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

func countKey(kind types.TableKind, role types.Role) string {
	return kind.String() + "/" + string(role)
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d problem(s):\n\n", len(errs)))

	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// FormatCounts renders per-role warning counts in a stable order.
func FormatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
