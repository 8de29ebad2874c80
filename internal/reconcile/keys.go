package reconcile

import (
	"time"

	"github.com/ginjaninja78/inventory-matcher/internal/classifier"
	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/normalize"
	"github.com/ginjaninja78/inventory-matcher/internal/pool"
	"github.com/ginjaninja78/inventory-matcher/internal/resolver"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
	"github.com/ginjaninja78/inventory-matcher/internal/validation"
)

// keyBuilder turns table rows into normalized keys and records degraded
// cells on the way.
type keyBuilder struct {
	matching config.MatchingSettings
	warnings *validation.Collector
}

// key builds the match key of one row.
//
// Material and date take the first non-blank column in resolution order.
// Quantity takes the maximum over every resolved column.
func (b *keyBuilder) key(t *table.Table, res *resolver.Resolution, row int) pool.Key {
	var k pool.Key

	rawMat, _ := first(t, row, res.Columns[types.RoleMaterial])
	k.Material = normalize.Material(rawMat, b.matching.MaterialCaseFolding)
	if k.Material == "" {
		b.warnings.Warn(res.Kind, res.Table, row, types.RoleMaterial, rawMat, validation.RuleBlankCell)
	}

	k.Quantity, k.Unmatchable = b.quantity(t, res, row)

	if res.Has(types.RoleDate) {
		k.Date, k.HasDate = b.date(t, res, row)
	}

	return k
}

// quantity returns the largest parsed magnitude across the quantity
// columns. The boolean is true when strict handling makes the key
// unmatchable.
func (b *keyBuilder) quantity(t *table.Table, res *resolver.Resolution, row int) (float64, bool) {
	var (
		best       float64
		known      bool
		unparsable bool
	)

	for _, col := range res.Columns[types.RoleQuantity] {
		raw, present := t.Value(row, col)
		if !present {
			continue
		}
		q, err := normalize.QuantityStrict(raw)
		if err != nil {
			unparsable = true
			b.warnings.Unparsable(res.Kind, res.Table, row, types.RoleQuantity, raw, err)
			continue
		}
		if !known || q > best {
			best = q
		}
		known = true
	}

	if !known && !unparsable {
		b.warnings.Warn(res.Kind, res.Table, row, types.RoleQuantity, "", validation.RuleBlankCell)
	}

	return best, !known && b.matching.StrictQuantity
}

// date returns the first parseable date across the date columns.
func (b *keyBuilder) date(t *table.Table, res *resolver.Resolution, row int) (time.Time, bool) {
	var (
		firstRaw string
		firstErr error
	)
	for _, col := range res.Columns[types.RoleDate] {
		raw, present := t.Value(row, col)
		if !present {
			continue
		}
		parsed, err := normalize.DateStrict(raw)
		if err == nil {
			return parsed, true
		}
		if firstErr == nil {
			firstRaw, firstErr = raw, err
		}
	}

	if b.matching.DateEnabled() {
		if firstErr != nil {
			b.warnings.Unparsable(res.Kind, res.Table, row, types.RoleDate, firstRaw, firstErr)
		} else {
			b.warnings.Warn(res.Kind, res.Table, row, types.RoleDate, "", validation.RuleBlankCell)
		}
	}
	return time.Time{}, false
}

// record builds the pool record of one source row.
func (b *keyBuilder) record(t *table.Table, res *resolver.Resolution, row int) pool.Record {
	r := pool.Record{
		Row: row,
		Key: b.key(t, res, row),
	}

	r.Operator, _ = first(t, row, res.Columns[types.RoleOperator])

	if rawTime, ok := first(t, row, res.Columns[types.RoleTime]); ok {
		r.Time = normalize.TimeOfDay(rawTime)
	}

	r.TransferOrder, _ = first(t, row, res.Columns[types.RoleTransferOrder])

	if res.Has(types.RoleClassification) {
		r.Movement = classifier.ClassifyAll(t.Values(row, res.Columns[types.RoleClassification]))
	}

	return r
}

// first returns the first non-blank value among the columns.
func first(t *table.Table, row int, cols []string) (string, bool) {
	for _, col := range cols {
		if v, ok := t.Value(row, col); ok {
			return v, true
		}
	}
	return "", false
}

// preview renders a key for the observer.
func preview(row int, k pool.Key) KeyPreview {
	p := KeyPreview{Row: row + 1, Material: k.Material, Quantity: k.Quantity}
	if k.HasDate {
		p.Date = k.Date.Format("2006-01-02")
	}
	return p
}
