// =============================================================================
// Inventory Matcher - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - resolver
//   - validation
//   - matcher
//   - reconcile
//   - exporter
//
// =============================================================================

package types

import "strings"

// =============================================================================
// TABLE KINDS
// =============================================================================

// TableKind identifies which of the two input datasets a table represents.
type TableKind int

const (
	// TargetTable is the difference ledger: rows that need enrichment.
	TargetTable TableKind = iota

	// SourceTable is the confirmation log: rows that carry operator,
	// time and storage location.
	SourceTable
)

// String returns the name used in logs and error messages.
func (k TableKind) String() string {
	switch k {
	case TargetTable:
		return "target"
	case SourceTable:
		return "source"
	default:
		return "unknown"
	}
}

// =============================================================================
// SEMANTIC ROLES
// =============================================================================

// Role is the semantic meaning of a column, independent of its header text.
type Role string

const (
	RoleMaterial       Role = "material"
	RoleQuantity       Role = "quantity"
	RoleDate           Role = "date"
	RoleOperator       Role = "operator"
	RoleTime           Role = "time"
	RoleClassification Role = "classification"
	RoleTransferOrder  Role = "transfer_order"
)

// AllRoles lists every role in resolution order.
var AllRoles = []Role{
	RoleMaterial,
	RoleQuantity,
	RoleDate,
	RoleOperator,
	RoleTime,
	RoleClassification,
	RoleTransferOrder,
}

// ParseRole converts a configuration key into a Role.
// It returns false for unknown names.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// =============================================================================
// MATCH STATUS
// =============================================================================

// MatchStatus is the per-row outcome of the matching pass.
type MatchStatus int

const (
	// StatusNotFound means no unconsumed source row satisfied the key.
	StatusNotFound MatchStatus = iota

	// StatusFound means material, quantity and date all matched.
	StatusFound

	// StatusFoundDateMismatch means material and quantity matched but the
	// date did not; only produced when the date fallback is enabled.
	StatusFoundDateMismatch
)

// String returns the label written to the status column.
func (s MatchStatus) String() string {
	switch s {
	case StatusFound:
		return "Matched"
	case StatusFoundDateMismatch:
		return "Matched (date mismatch)"
	default:
		return "Not found"
	}
}

// IsMatched reports whether the row received enrichment.
func (s MatchStatus) IsMatched() bool {
	return s == StatusFound || s == StatusFoundDateMismatch
}
