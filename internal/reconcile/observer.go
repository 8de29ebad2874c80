package reconcile

import (
	"time"
)

// Observer receives progress and diagnostics from a run.
//
// Progress is called every few rows, not for every row, and once more
// with 1.0 when the matching pass ends. Preview is called once, before
// matching, with the first normalized keys of each table. Summary is
// called once at the end of a successful run.
type Observer interface {
	Progress(fraction float64)
	Preview(target, source []KeyPreview)
	Summary(s Summary)
}

// KeyPreview is a normalized key shown for diagnosing format mismatches.
type KeyPreview struct {
	// Row is the 1-based data row number.
	Row      int     `json:"row"`
	Material string  `json:"material"`
	Quantity float64 `json:"quantity"`

	// Date is YYYY-MM-DD or empty when the row has no usable date.
	Date string `json:"date"`
}

// Summary holds the final counts of a run.
type Summary struct {
	RunID string `json:"run_id"`

	Total        int `json:"total"`
	Matched      int `json:"matched"`
	Unmatched    int `json:"unmatched"`
	DateMismatch int `json:"date_mismatch"`

	SourceRows      int `json:"source_rows"`
	SourceRemaining int `json:"source_remaining"`

	// CellWarnings counts degraded cells keyed "table/role".
	CellWarnings map[string]int `json:"cell_warnings"`

	FallbackEnabled bool          `json:"fallback_enabled"`
	Duration        time.Duration `json:"duration"`
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) Progress(float64)          {}
func (NopObserver) Preview(_, _ []KeyPreview) {}
func (NopObserver) Summary(Summary)           {}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnProgress func(fraction float64)
	OnPreview  func(target, source []KeyPreview)
	OnSummary  func(s Summary)
}

func (o ObserverFuncs) Progress(fraction float64) {
	if o.OnProgress != nil {
		o.OnProgress(fraction)
	}
}

func (o ObserverFuncs) Preview(target, source []KeyPreview) {
	if o.OnPreview != nil {
		o.OnPreview(target, source)
	}
}

func (o ObserverFuncs) Summary(s Summary) {
	if o.OnSummary != nil {
		o.OnSummary(s)
	}
}
