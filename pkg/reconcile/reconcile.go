// Package reconcile merges freshly imported transactions into the ledger
// without introducing duplicates. It is isolated from any UI so the CLI
// plan/apply executors and the HTTP API share the same data model.
package reconcile

import (
	"errors"

	"github.com/yurifrl/conciliador/pkg/models"
)

// ErrEmptyMergeResult blocks persistence when a merge of non-empty inputs
// came out empty.
var ErrEmptyMergeResult = errors.New("merge produced an empty ledger from non-empty input")

// Status indicates the merge result for a candidate transaction.
//
//   - Synced: already present in the ledger.
//   - ToAdd:  new, appended to the ledger.
type Status int

const (
	Synced Status = iota
	ToAdd
)

func (s Status) String() string {
	if s == ToAdd {
		return "to_add"
	}
	return "synced"
}

// Batch is a named group of candidates, usually one statement file.
type Batch struct {
	Source       string
	Transactions []models.Transaction
}

// Entry links a candidate transaction with its merge status.
type Entry struct {
	Source      string
	Transaction models.Transaction
	Status      Status
}

// Report is the result of a merge. Ledger is the full replacement to persist.
type Report struct {
	Items  []Entry
	Ledger []models.Transaction
	// Collapsed counts duplicates found inside the existing ledger.
	Collapsed int
	toAdd     []models.Transaction
}

// Merge appends every candidate whose natural key is not yet in the ledger.
// The first occurrence wins, so existing rows keep their category and bank.
func Merge(existing []models.Transaction, batches ...Batch) (*Report, error) {
	ledger, collapsed := Dedupe(existing)
	seen := make(map[models.Key]bool, len(ledger))
	for _, t := range ledger {
		seen[t.Key()] = true
	}

	r := &Report{Collapsed: collapsed}
	candidates := 0
	for _, b := range batches {
		for _, t := range b.Transactions {
			candidates++
			status := Synced
			if k := t.Key(); !seen[k] {
				seen[k] = true
				status = ToAdd
				ledger = append(ledger, t)
				r.toAdd = append(r.toAdd, t)
			}
			r.Items = append(r.Items, Entry{Source: b.Source, Transaction: t, Status: status})
		}
	}

	// Dedupe keeps at least one row of a non-empty input and candidates only
	// append, so this holds while Key is total. It stays as the last check
	// before a caller persists the result.
	if len(ledger) == 0 && (len(existing) > 0 || candidates > 0) {
		return nil, ErrEmptyMergeResult
	}
	r.Ledger = ledger
	return r, nil
}

// Dedupe drops repeated natural keys keeping the first occurrence and
// reports how many rows were removed.
func Dedupe(ledger []models.Transaction) ([]models.Transaction, int) {
	out := make([]models.Transaction, 0, len(ledger))
	seen := make(map[models.Key]bool, len(ledger))
	for _, t := range ledger {
		k := t.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out, len(ledger) - len(out)
}

// InSyncCount returns how many candidates were already in the ledger.
func (r *Report) InSyncCount() int {
	return len(r.Items) - len(r.toAdd)
}

// MissingCount returns how many candidates were added.
func (r *Report) MissingCount() int {
	return len(r.toAdd)
}

// TransactionsToAdd returns the candidates appended to the ledger.
func (r *Report) TransactionsToAdd() []models.Transaction {
	return r.toAdd
}

// BySource groups the items per batch source, preserving order.
func (r *Report) BySource() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range r.Items {
		out[e.Source] = append(out[e.Source], e)
	}
	return out
}
