// =============================================================================
// Inventory Matcher - Column Resolver
// =============================================================================
//
// This module maps the physical column headers of a loaded table onto the
// semantic roles the matcher works with (material, quantity, date, ...).
//
// Resolution is driven by an explicit pattern table, one entry per table
// kind and role. Each entry is evaluated in priority order:
//
//   1. Exact header names (case-insensitive). If any are present they win.
//   2. Keyword groups. A header matches a group when it contains every
//      keyword of that group. Groups are tried in order, headers in file
//      order, and a header is returned once.
//   3. Exclusions remove headers that contain any excluded phrase.
//
// A role may resolve to several columns. The caller decides how values are
// combined (maximum for quantity, first non-blank for the others).
//
// =============================================================================

package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
)

// ErrMissingColumn matches every MissingColumnError via errors.Is.
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError reports a required role that no header satisfied.
type MissingColumnError struct {
	Role  types.Role
	Kind  types.TableKind
	Table string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column for role %q in %s table %q", e.Role, e.Kind, e.Table)
}

// Is makes errors.Is(err, ErrMissingColumn) true.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// =============================================================================
// PATTERN TABLE
// =============================================================================

// Pattern describes how one role is recognised.
type Pattern struct {
	Exact    []string
	Contains [][]string
	Exclude  []string
}

// Patterns is the complete resolution table.
type Patterns map[types.TableKind]map[types.Role]Pattern

// descriptiveColumns are never material codes.
var descriptiveColumns = []string{"description", "text", "bezeichnung", "group", "gruppe", "type"}

// stockColumns hold book or counted stock next to the difference quantity.
var stockColumns = []string{"buchmenge", "book", "zählmenge", "zaehlmenge", "gezählt", "count"}

// DefaultPatterns returns the built-in table. sourceDate selects which
// confirmation log date columns are used: "confirmation", "creation" or
// "auto" (confirmation first, creation as fallback).
func DefaultPatterns(sourceDate string) Patterns {
	sourceDateGroups := [][]string{{"confirmation", "date"}, {"creation", "date"}}
	timePattern := Pattern{
		Exact:    []string{"Confirmation time"},
		Contains: [][]string{{"confirmation", "time"}, {"time"}, {"zeit"}},
		Exclude:  []string{"creation time"},
	}

	switch sourceDate {
	case config.SourceDateConfirmation:
		sourceDateGroups = [][]string{{"confirmation", "date"}}
	case config.SourceDateCreation:
		sourceDateGroups = [][]string{{"creation", "date"}}
		timePattern = Pattern{
			Exact:    []string{"Creation time"},
			Contains: [][]string{{"creation", "time"}},
		}
	}

	return Patterns{
		types.TargetTable: {
			types.RoleMaterial: {
				Exact:    []string{"Material"},
				Contains: [][]string{{"material"}},
				Exclude:  descriptiveColumns,
			},
			types.RoleQuantity: {
				Exact:    []string{"Menge in ErfassME"},
				Contains: [][]string{{"menge"}, {"quantity"}, {"qty"}},
				Exclude:  stockColumns,
			},
			types.RoleDate: {
				Exact:    []string{"Buchungsdatum"},
				Contains: [][]string{{"buchungsdatum"}, {"posting", "date"}, {"datum"}, {"date"}},
			},
		},
		types.SourceTable: {
			types.RoleMaterial: {
				Exact:    []string{"Material"},
				Contains: [][]string{{"material"}},
				Exclude:  descriptiveColumns,
			},
			types.RoleQuantity: {
				Contains: [][]string{{"target", "qty"}, {"target", "quantity"}},
			},
			types.RoleDate: {
				Contains: sourceDateGroups,
			},
			types.RoleOperator: {
				Exact:    []string{"User"},
				Contains: [][]string{{"user"}, {"benutzer"}},
			},
			types.RoleTime: timePattern,
			types.RoleClassification: {
				Exact:    []string{"Source Storage Bin", "Dest.Storage Bin"},
				Contains: [][]string{{"storage", "bin"}, {"lagerplatz"}},
			},
			types.RoleTransferOrder: {
				Exact:    []string{"Transfer Order Number"},
				Contains: [][]string{{"transfer", "order"}},
			},
		},
	}
}

// Override replaces the pattern for every role named in overrides.
// Unknown role names are returned as an error.
func (p Patterns) Override(kind types.TableKind, overrides map[string]config.RolePattern) error {
	if len(overrides) == 0 {
		return nil
	}
	if p[kind] == nil {
		p[kind] = map[types.Role]Pattern{}
	}

	for name, o := range overrides {
		role, ok := types.ParseRole(name)
		if !ok {
			return fmt.Errorf("unknown role %q for %s table", name, kind)
		}
		p[kind][role] = Pattern{Exact: o.Exact, Contains: o.Contains, Exclude: o.Exclude}
	}
	return nil
}

// RequiredRoles lists the roles a table must resolve before matching.
func RequiredRoles(kind types.TableKind, dateEnabled bool) []types.Role {
	roles := []types.Role{types.RoleMaterial, types.RoleQuantity}
	if dateEnabled {
		roles = append(roles, types.RoleDate)
	}
	if kind == types.SourceTable {
		roles = append(roles, types.RoleOperator)
	}
	return roles
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the headers that satisfy the pattern, in priority order.
func Resolve(headers []string, pattern Pattern) []string {
	var exact []string
	for _, name := range pattern.Exact {
		for _, h := range headers {
			if fold(h) == fold(name) && !contains(exact, h) {
				exact = append(exact, h)
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}

	var found []string
	for _, group := range pattern.Contains {
		for _, h := range headers {
			if contains(found, h) || excluded(h, pattern.Exclude) {
				continue
			}
			if containsAll(fold(h), group) {
				found = append(found, h)
			}
		}
	}
	return found
}

// Resolution is the outcome of resolving every role of one table.
type Resolution struct {
	Kind    types.TableKind
	Table   string
	Columns map[types.Role][]string
}

// Has reports whether the role resolved to at least one column.
func (r *Resolution) Has(role types.Role) bool {
	return len(r.Columns[role]) > 0
}

// Roles returns the resolved roles in the canonical role order.
func (r *Resolution) Roles() []types.Role {
	var out []types.Role
	for _, role := range types.AllRoles {
		if r.Has(role) {
			out = append(out, role)
		}
	}
	return out
}

// ResolveAll resolves every role in the pattern table for one table kind.
// Each required role that resolves to nothing contributes a
// MissingColumnError; all of them are returned joined.
func ResolveAll(headers []string, kind types.TableKind, table string, patterns Patterns, required []types.Role) (*Resolution, error) {
	res := &Resolution{
		Kind:    kind,
		Table:   table,
		Columns: make(map[types.Role][]string),
	}

	roles := make([]types.Role, 0, len(patterns[kind]))
	for role := range patterns[kind] {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

	for _, role := range roles {
		if cols := Resolve(headers, patterns[kind][role]); len(cols) > 0 {
			res.Columns[role] = cols
		}
	}

	var errs []error
	for _, role := range required {
		if !res.Has(role) {
			errs = append(errs, &MissingColumnError{Role: role, Kind: kind, Table: table})
		}
	}
	return res, errors.Join(errs...)
}

// fold lowercases and collapses runs of whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsAll(header string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, k := range keywords {
		if !strings.Contains(header, fold(k)) {
			return false
		}
	}
	return true
}

func excluded(header string, phrases []string) bool {
	h := fold(header)
	for _, p := range phrases {
		if strings.Contains(h, fold(p)) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
