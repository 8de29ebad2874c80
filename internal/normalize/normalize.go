// =============================================================================
// Inventory Matcher - Field Normalizers
// =============================================================================
//
// This module turns raw, inconsistently formatted cell values into canonical
// comparison keys:
//
//   Material   - trimmed code without the ".0" float artifact
//   Quantity   - non-negative magnitude, locale-tolerant
//   Date       - calendar date without time of day
//   TimeOfDay  - HH:MM:SS text for the enrichment columns
//
// The lenient functions never fail. They degrade to a sentinel (empty
// string, zero, no date) and report through their boolean or state result
// so callers can count the degraded cells. The strict variants return
// ErrUnparsable instead.
//
// =============================================================================

package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnparsable is returned by the strict normalizers.
var ErrUnparsable = errors.New("unparsable value")

// =============================================================================
// MATERIAL
// =============================================================================

// Material normalizes a material identifier.
//
// Whitespace is trimmed and a trailing ".0" is removed (a code read as a
// floating value upstream). Leading zeros are kept. With upper set, the
// result is uppercased. Applying Material to its own output returns the
// same value.
func Material(raw string, upper bool) string {
	s := strings.TrimSpace(raw)
	for strings.HasSuffix(s, ".0") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ".0"))
	}
	if upper {
		s = strings.ToUpper(s)
	}
	return s
}

// =============================================================================
// QUANTITY
// =============================================================================

// QuantityState tells a parsed quantity apart from the 0.0 sentinel.
type QuantityState int

const (
	// QuantityKnown means the cell held a number.
	QuantityKnown QuantityState = iota

	// QuantityBlank means the cell was empty.
	QuantityBlank

	// QuantityUnparsable means the cell held text that is not a number.
	QuantityUnparsable
)

// String returns the state name used in diagnostics.
func (s QuantityState) String() string {
	switch s {
	case QuantityKnown:
		return "known"
	case QuantityBlank:
		return "blank"
	default:
		return "unparsable"
	}
}

// quantityPlaces is the rounding applied before comparison so that values
// parsed from text and from spreadsheet floats compare equal.
const quantityPlaces = 6

// ParseQuantity parses a quantity cell and reports which sentinel, if any,
// was used.
//
// Accepted forms include "1234.5", "1.234,5", "1,234.5", "1 234,5",
// "1'234.5", "-10", "10-" and "+3". A single comma without a dot is read
// as a decimal comma.
func ParseQuantity(raw string) (float64, QuantityState) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, QuantityBlank
	}

	cleaned, ok := cleanNumber(s)
	if !ok {
		return 0, QuantityUnparsable
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, QuantityUnparsable
	}

	f, _ := d.Abs().Round(quantityPlaces).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, QuantityUnparsable
	}
	return f, QuantityKnown
}

// QuantityStrict is ParseQuantity returning ErrUnparsable for anything
// other than a number.
func QuantityStrict(raw string) (float64, error) {
	q, state := ParseQuantity(raw)
	if state != QuantityKnown {
		return 0, fmt.Errorf("quantity %q: %w", raw, ErrUnparsable)
	}
	return q, nil
}

// cleanNumber rewrites locale-formatted number text into the plain form
// accepted by decimal.NewFromString.
func cleanNumber(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'', '\u2019':
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	// Trailing minus, as written by some ERP exports.
	neg := false
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		if neg {
			return "", false
		}
		neg = true
		s = strings.TrimPrefix(s, "-")
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	if s == "" {
		return "", false
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			if commas > 1 {
				return "", false
			}
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			if dots > 1 {
				return "", false
			}
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	if s == "" || (s[0] != '.' && (s[0] < '0' || s[0] > '9')) {
		return "", false
	}

	if neg {
		s = "-" + s
	}
	return s, true
}

// =============================================================================
// DATE
// =============================================================================

// dateLayouts are tried in order. Day-first dotted forms come before the
// month-first slash forms used by US exports.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006 15:04:05",
	"2.1.2006",
	"02.01.06",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"01/02/06",
	"1/2/06 15:04",
	"1/2/06",
	"01-02-2006",
	"01-02-06",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// Excel 1900 date system bounds: serial 1 is 1900-01-01, 2958465 is 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// excelEpoch is day zero of the 1900 date system, shifted for the
// fictitious 1900-02-29.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Date parses a date cell and truncates it to the calendar day.
// The result is midnight UTC. The boolean is false for blank or
// unparsable input.
func Date(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}

	if t, ok := excelSerial(s); ok {
		return t, true
	}
	return time.Time{}, false
}

// DateStrict is Date returning ErrUnparsable for blank or invalid input.
func DateStrict(raw string) (time.Time, error) {
	t, ok := Date(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("date %q: %w", raw, ErrUnparsable)
	}
	return t, nil
}

// Day drops the time of day, keeping the calendar date as written.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	diff := Day(a).Sub(Day(b)).Hours() / 24
	return int(math.Abs(math.Round(diff)))
}

func excelSerial(s string) (time.Time, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return time.Time{}, false
	}
	days := d.IntPart()
	if days < minExcelSerial || days > maxExcelSerial {
		return time.Time{}, false
	}
	return excelEpoch.AddDate(0, 0, int(days)), true
}

// =============================================================================
// TIME OF DAY
// =============================================================================

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"150405",
}

// TimeOfDay renders a time cell as HH:MM:SS.
//
// Excel day fractions ("0.6" is 14:24:00) and datetimes are converted.
// Text that is neither is returned trimmed and unchanged.
func TimeOfDay(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}

	if d, err := decimal.NewFromString(s); err == nil {
		frac := d.Sub(decimal.NewFromInt(d.IntPart()))
		if frac.IsNegative() {
			return s
		}
		secs := frac.Mul(decimal.NewFromInt(86400)).Round(0).IntPart()
		if secs >= 86400 {
			secs = 86399
		}
		return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(secs) * time.Second).
			Format("15:04:05")
	}

	return s
}
