// Package classifier derives a movement category from the free-text
// storage-location field of a confirmation log row.
package classifier

import (
	"strings"
	"unicode"
)

// Kind is the movement category.
type Kind int

const (
	// Unknown means the location text was missing.
	Unknown Kind = iota

	// Other means the text was present but not recognised.
	Other

	// PhysicalCount means the location is a numeric storage bin.
	PhysicalCount

	// ManualCorrection means the location is a correction bin.
	ManualCorrection
)

// String returns the label written to the movement type column.
func (k Kind) String() string {
	switch k {
	case ManualCorrection:
		return "Manual correction"
	case PhysicalCount:
		return "Physical count"
	case Other:
		return "Other"
	default:
		return "Unknown"
	}
}

// Category is a classified location. Raw keeps the original text for
// Other so it can be shown to the reviewer.
type Category struct {
	Kind Kind
	Raw  string
}

// Label renders the category for output. Other categories show the
// original text.
func (c Category) Label() string {
	if c.Kind == Other {
		return c.Raw
	}
	return c.Kind.String()
}

// correctionMarkers are matched case-insensitively anywhere in the text.
var correctionMarkers = []string{"KORREKTUR", "CORRECTION"}

// Classify categorises one location text.
//
// Blank text is Unknown. Text containing a correction marker is
// ManualCorrection. Text containing any digit is PhysicalCount.
// Everything else is Other with the trimmed text attached.
func Classify(text string) Category {
	s := strings.TrimSpace(text)
	if s == "" {
		return Category{Kind: Unknown}
	}

	upper := strings.ToUpper(s)
	for _, marker := range correctionMarkers {
		if strings.Contains(upper, marker) {
			return Category{Kind: ManualCorrection, Raw: s}
		}
	}

	if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
		return Category{Kind: PhysicalCount, Raw: s}
	}

	return Category{Kind: Other, Raw: s}
}

// ClassifyAll classifies every value and keeps the most specific result.
// ManualCorrection outranks PhysicalCount, which outranks Other, which
// outranks Unknown. Among equal kinds the first value wins.
func ClassifyAll(texts []string) Category {
	best := Category{Kind: Unknown}
	for _, t := range texts {
		c := Classify(t)
		if c.Kind > best.Kind {
			best = c
		}
	}
	return best
}
