// Package matcher assigns confirmation log rows to difference ledger rows.
//
// Matching is greedy and one-to-one. Each target row takes the first
// unconsumed candidate in source table order and is never revisited.
package matcher

import (
	"github.com/ginjaninja78/inventory-matcher/internal/pool"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
)

// Config holds matching configuration.
type Config struct {
	// Date is the date predicate applied after material and quantity.
	Date pool.DateRule

	// FallbackOnDateMismatch accepts the first material+quantity candidate
	// when none passes the date rule. The result is graded
	// StatusFoundDateMismatch.
	FallbackOnDateMismatch bool
}

// DefaultConfig returns date matching with a one day window and no fallback.
func DefaultConfig() Config {
	return Config{
		Date: pool.DateRule{Enabled: true, ToleranceDays: 1},
	}
}

// Result is the outcome for one target row.
type Result struct {
	Status types.MatchStatus

	// SourceID is the pool id of the consumed record. Only meaningful when
	// Status.IsMatched() is true.
	SourceID int

	// Source is the consumed record. Zero for StatusNotFound.
	Source pool.Record
}

// Matcher applies one configuration to every target row of a run.
type Matcher struct {
	config Config
}

// New creates a matcher.
func New(config Config) *Matcher {
	return &Matcher{config: config}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// Match finds and consumes at most one candidate for the target key.
func (m *Matcher) Match(key pool.Key, p *pool.Pool) Result {
	if ids := p.FindCandidates(key, m.config.Date); len(ids) > 0 {
		return m.take(p, ids[0], types.StatusFound)
	}

	if m.config.FallbackOnDateMismatch {
		if ids := p.FindByMaterialQuantity(key); len(ids) > 0 {
			return m.take(p, ids[0], types.StatusFoundDateMismatch)
		}
	}

	return Result{Status: types.StatusNotFound}
}

func (m *Matcher) take(p *pool.Pool, id int, status types.MatchStatus) Result {
	p.Consume(id)
	return Result{
		Status:   status,
		SourceID: id,
		Source:   p.Record(id),
	}
}
