// =============================================================================
// Inventory Matcher - Reconciliation Pipeline
// =============================================================================
//
// This module runs one reconciliation pass over two loaded tables, from
// column resolution to the enriched output table.
//
// PIPELINE:
//   1. Resolve the semantic columns of both tables
//   2. Validate that every required role resolved (abort otherwise)
//   3. Build normalized keys for every source row and fill the pool
//   4. Hand a key preview to the observer
//   5. Match every target row in order against the pool
//   6. Append the enrichment columns to a copy of the target table
//   7. Report the summary
//
// CONCURRENCY:
//   A run is sequential. Each run owns its candidate pool; a Reconciler
//   may be reused for further runs but never for two runs at once.
//
// =============================================================================

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/matcher"
	"github.com/ginjaninja78/inventory-matcher/internal/pool"
	"github.com/ginjaninja78/inventory-matcher/internal/resolver"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
	"github.com/ginjaninja78/inventory-matcher/internal/validation"
)

// maxWarningEntries caps the individual cell warnings kept in a result.
const maxWarningEntries = 500

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// RowResult is the outcome for one target row.
type RowResult struct {
	// Row is the zero-based target data row index.
	Row    int               `json:"row"`
	Status types.MatchStatus `json:"-"`
	Label  string            `json:"status"`

	// SourceRow is the zero-based source data row index, or -1.
	SourceRow int `json:"source_row"`

	Operator      string `json:"operator,omitempty"`
	Time          string `json:"time,omitempty"`
	MovementType  string `json:"movement_type,omitempty"`
	TransferOrder string `json:"transfer_order,omitempty"`
}

// Result represents the outcome of a reconciliation run.
type Result struct {
	// Table is the enriched copy of the target table.
	Table *table.Table

	// Rows has one entry per target row, in target order.
	Rows []RowResult

	Summary Summary

	// Validation holds structural warnings and cell warnings.
	Validation *validation.ValidationResult

	TargetColumns *resolver.Resolution
	SourceColumns *resolver.Resolution
}

// Inspection is the outcome of resolving and previewing without matching.
type Inspection struct {
	TargetColumns *resolver.Resolution
	SourceColumns *resolver.Resolution
	Validation    *validation.ValidationResult

	TargetPreview []KeyPreview
	SourcePreview []KeyPreview

	// Err is the joined MissingColumnError set, nil when resolution passed.
	Err error
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler runs reconciliation passes with one configuration.
type Reconciler struct {
	cfg      *config.Config
	patterns resolver.Patterns
	logger   *slog.Logger
	observer Observer
}

// New creates a Reconciler. A nil observer is replaced by NopObserver and
// a nil logger by slog.Default().
func New(cfg *config.Config, logger *slog.Logger, observer Observer) (*Reconciler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}

	patterns := resolver.DefaultPatterns(cfg.Matching.SourceDateColumn)
	if err := patterns.Override(types.TargetTable, cfg.Columns.Target); err != nil {
		return nil, err
	}
	if err := patterns.Override(types.SourceTable, cfg.Columns.Source); err != nil {
		return nil, err
	}

	return &Reconciler{
		cfg:      cfg,
		patterns: patterns,
		logger:   logger.With("component", "reconcile"),
		observer: observer,
	}, nil
}

// MatcherConfig derives the matcher configuration from the settings.
func MatcherConfig(m config.MatchingSettings) matcher.Config {
	return matcher.Config{
		Date: pool.DateRule{
			Enabled:       m.DateEnabled(),
			ToleranceDays: m.ToleranceDays(),
		},
		FallbackOnDateMismatch: m.FallbackOnDateMismatch,
	}
}

// resolve runs steps 1 and 2.
func (r *Reconciler) resolve(target, source *table.Table) (*resolver.Resolution, *resolver.Resolution, *validation.ValidationResult, error) {
	dateEnabled := r.cfg.Matching.DateEnabled()

	tRes, tErr := resolver.ResolveAll(target.Headers, types.TargetTable, target.Name, r.patterns,
		resolver.RequiredRoles(types.TargetTable, dateEnabled))
	sRes, sErr := resolver.ResolveAll(source.Headers, types.SourceTable, source.Name, r.patterns,
		resolver.RequiredRoles(types.SourceTable, dateEnabled))

	for _, res := range []*resolver.Resolution{tRes, sRes} {
		for _, role := range res.Roles() {
			r.logger.Debug("resolved columns", "table", res.Table, "kind", res.Kind.String(), "role", string(role), "columns", res.Columns[role])
		}
	}

	resolveErr := errors.Join(tErr, sErr)
	return tRes, sRes, validation.ValidateResolution(resolveErr, tRes, sRes), resolveErr
}

// Inspect resolves both tables and builds the key preview without
// matching. Missing columns are reported in the result, not as an error.
func (r *Reconciler) Inspect(target, source *table.Table) *Inspection {
	tRes, sRes, vr, err := r.resolve(target, source)
	ins := &Inspection{
		TargetColumns: tRes,
		SourceColumns: sRes,
		Validation:    vr,
		Err:           err,
	}

	kb := &keyBuilder{matching: r.cfg.Matching, warnings: validation.NewCollector(maxWarningEntries)}
	limit := r.cfg.Matching.PreviewRows
	for i := 0; i < target.Len() && i < limit; i++ {
		if tRes.Has(types.RoleMaterial) {
			ins.TargetPreview = append(ins.TargetPreview, preview(i, kb.key(target, tRes, i)))
		}
	}
	for i := 0; i < source.Len() && i < limit; i++ {
		if sRes.Has(types.RoleMaterial) {
			ins.SourcePreview = append(ins.SourcePreview, preview(i, kb.key(source, sRes, i)))
		}
	}

	return ins
}

// Run executes the reconciliation pipeline.
//
// A missing required column aborts the run before any row is matched and
// the error wraps every resolver.MissingColumnError found. A cancelled
// context aborts at the next row boundary with ctx.Err(). In both cases no
// partial result is returned.
func (r *Reconciler) Run(ctx context.Context, target, source *table.Table) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)

	logger.Info("starting reconciliation",
		"target", target.Name, "target_rows", target.Len(),
		"source", source.Name, "source_rows", source.Len())

	// =========================================================================
	// STEP 1-2: RESOLVE AND VALIDATE COLUMNS
	// =========================================================================

	tRes, sRes, vr, err := r.resolve(target, source)
	if err != nil {
		logger.Error("column resolution failed", "error", err)
		return nil, fmt.Errorf("column resolution failed: %w", err)
	}

	for _, w := range vr.Errors {
		logger.Warn("optional column missing", "table", w.Table, "role", string(w.Role))
	}

	// =========================================================================
	// STEP 3: BUILD KEYS AND FILL THE POOL
	// =========================================================================

	warnings := validation.NewCollector(maxWarningEntries)
	kb := &keyBuilder{matching: r.cfg.Matching, warnings: warnings}

	records := make([]pool.Record, source.Len())
	for i := range records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		records[i] = kb.record(source, sRes, i)
	}
	candidates := pool.New(records)

	targetKeys := make([]pool.Key, target.Len())
	for i := range targetKeys {
		targetKeys[i] = kb.key(target, tRes, i)
	}

	// =========================================================================
	// STEP 4: KEY PREVIEW
	// =========================================================================

	r.observer.Preview(previews(targetKeys, r.cfg.Matching.PreviewRows), recordPreviews(records, r.cfg.Matching.PreviewRows))

	// =========================================================================
	// STEP 5: MATCH
	// =========================================================================

	m := matcher.New(MatcherConfig(r.cfg.Matching))
	progress := &rate.Sometimes{First: 1, Every: max(r.cfg.Matching.ProgressEvery, 1)}
	total := float64(len(targetKeys))

	summary := Summary{
		RunID:           runID,
		Total:           len(targetKeys),
		SourceRows:      len(records),
		FallbackEnabled: r.cfg.Matching.FallbackOnDateMismatch,
	}

	rows := make([]RowResult, len(targetKeys))
	for i, key := range targetKeys {
		if err := ctx.Err(); err != nil {
			logger.Warn("reconciliation cancelled", "row", i)
			return nil, err
		}

		res := m.Match(key, candidates)
		rows[i] = rowResult(i, res, sRes.Has(types.RoleClassification))

		switch res.Status {
		case types.StatusFound:
			summary.Matched++
		case types.StatusFoundDateMismatch:
			summary.Matched++
			summary.DateMismatch++
		default:
			summary.Unmatched++
		}

		done := i + 1
		progress.Do(func() { r.observer.Progress(float64(done) / total) })
	}
	r.observer.Progress(1)

	// =========================================================================
	// STEP 6: ENRICH
	// =========================================================================

	enriched, err := enrich(target, rows, r.cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich target table: %w", err)
	}

	// =========================================================================
	// STEP 7: SUMMARY
	// =========================================================================

	summary.SourceRemaining = candidates.Remaining()
	summary.CellWarnings = warnings.Counts()
	summary.Duration = time.Since(startTime)

	vr.Merge(warnings.Result())
	if n := warnings.Total(); n > 0 {
		logger.Warn("cells degraded during normalization", "count", n, "by_role", validation.FormatCounts(summary.CellWarnings))
	}

	logger.Info("reconciliation complete",
		"total", summary.Total,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"date_mismatch", summary.DateMismatch,
		"duration", summary.Duration)

	r.observer.Summary(summary)

	return &Result{
		Table:         enriched,
		Rows:          rows,
		Summary:       summary,
		Validation:    vr,
		TargetColumns: tRes,
		SourceColumns: sRes,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func rowResult(row int, res matcher.Result, hasClassification bool) RowResult {
	out := RowResult{
		Row:       row,
		Status:    res.Status,
		Label:     res.Status.String(),
		SourceRow: -1,
	}
	if !res.Status.IsMatched() {
		return out
	}

	out.SourceRow = res.Source.Row
	out.Operator = res.Source.Operator
	out.Time = res.Source.Time
	out.TransferOrder = res.Source.TransferOrder
	if hasClassification {
		out.MovementType = res.Source.Movement.Label()
	}
	return out
}

// enrich appends operator, time, movement type, transfer order, status
// and a blank reason column to a copy of the target table.
func enrich(target *table.Table, rows []RowResult, out config.OutputSettings) (*table.Table, error) {
	enriched := target.Clone()

	columns := []struct {
		header string
		value  func(RowResult) string
	}{
		{out.OperatorColumn, func(r RowResult) string { return r.Operator }},
		{out.TimeColumn, func(r RowResult) string { return r.Time }},
		{out.MovementTypeColumn, func(r RowResult) string { return r.MovementType }},
		{out.TransferOrderColumn, func(r RowResult) string { return r.TransferOrder }},
		{out.StatusColumn, func(r RowResult) string { return r.Label }},
		{out.ReasonColumn, func(RowResult) string { return "" }},
	}

	for _, c := range columns {
		values := make([]string, len(rows))
		for i, r := range rows {
			values[i] = c.value(r)
		}
		if err := enriched.AddColumn(c.header, values); err != nil {
			return nil, err
		}
	}

	return enriched, nil
}

func previews(keys []pool.Key, limit int) []KeyPreview {
	var out []KeyPreview
	for i := 0; i < len(keys) && i < limit; i++ {
		out = append(out, preview(i, keys[i]))
	}
	return out
}

func recordPreviews(records []pool.Record, limit int) []KeyPreview {
	var out []KeyPreview
	for i := 0; i < len(records) && i < limit; i++ {
		out = append(out, preview(records[i].Row, records[i].Key))
	}
	return out
}
