// Package pool tracks which confirmation log rows are still available for
// matching during one reconciliation run.
//
// A Pool is owned by a single run. It is not safe for concurrent use and
// must never be shared between runs.
package pool

import (
	"time"

	"github.com/ginjaninja78/inventory-matcher/internal/classifier"
	"github.com/ginjaninja78/inventory-matcher/internal/normalize"
)

// Key is the normalized business key of a row.
type Key struct {
	Material string
	Quantity float64
	Date     time.Time
	HasDate  bool

	// Unmatchable keys never take part in a match. Set for blank or
	// unparsable quantities when strict quantity handling is on.
	Unmatchable bool
}

// Record is one source row reduced to its key and the enrichment fields
// that are copied onto a matched target row.
type Record struct {
	// Row is the zero-based data row index in the source table.
	Row int
	Key Key

	Operator      string
	Time          string
	TransferOrder string
	Movement      classifier.Category
}

// DateRule is the date predicate applied after material and quantity.
type DateRule struct {
	// Enabled includes the date in the key. When false every date matches.
	Enabled bool

	// ToleranceDays is the symmetric window in calendar days. 0 is exact.
	ToleranceDays int
}

// Accepts reports whether a source key satisfies the rule for a target key.
// Two missing dates are treated as equal; a missing date never matches a
// present one.
func (r DateRule) Accepts(target, source Key) bool {
	if !r.Enabled {
		return true
	}
	if !target.HasDate || !source.HasDate {
		return target.HasDate == source.HasDate
	}
	return normalize.DaysBetween(target.Date, source.Date) <= r.ToleranceDays
}

type indexKey struct {
	material string
	quantity float64
}

// Pool is the candidate pool.
type Pool struct {
	records  []Record
	consumed []bool
	index    map[indexKey][]int
	used     int
}

// New builds a pool over records. Candidate order follows the slice order,
// which callers keep identical to the source table order.
func New(records []Record) *Pool {
	p := &Pool{
		records:  records,
		consumed: make([]bool, len(records)),
		index:    make(map[indexKey][]int),
	}
	for id, r := range records {
		if r.Key.Unmatchable {
			continue
		}
		k := indexKey{material: r.Key.Material, quantity: r.Key.Quantity}
		p.index[k] = append(p.index[k], id)
	}
	return p
}

// Len returns the number of records in the pool.
func (p *Pool) Len() int {
	return len(p.records)
}

// Record returns the record with the given id.
func (p *Pool) Record(id int) Record {
	return p.records[id]
}

// FindByMaterialQuantity returns the ids of unconsumed records whose
// material and quantity equal the key, in table order.
func (p *Pool) FindByMaterialQuantity(key Key) []int {
	if key.Unmatchable {
		return nil
	}
	ids := p.index[indexKey{material: key.Material, quantity: key.Quantity}]
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !p.consumed[id] {
			out = append(out, id)
		}
	}
	return out
}

// FindCandidates returns the ids of unconsumed records that match the key
// under the date rule, in table order.
func (p *Pool) FindCandidates(key Key, rule DateRule) []int {
	ids := p.FindByMaterialQuantity(key)
	out := ids[:0]
	for _, id := range ids {
		if rule.Accepts(key, p.records[id].Key) {
			out = append(out, id)
		}
	}
	return out
}

// Consume marks a record as used. It returns false if the record was
// already consumed, in which case nothing changes.
func (p *Pool) Consume(id int) bool {
	if p.consumed[id] {
		return false
	}
	p.consumed[id] = true
	p.used++
	return true
}

// IsConsumed reports whether the record has been used.
func (p *Pool) IsConsumed(id int) bool {
	return p.consumed[id]
}

// Remaining returns the number of unconsumed records.
func (p *Pool) Remaining() int {
	return len(p.records) - p.used
}
