// Package csv renders ledger rows as CSV, optionally filtered.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
)

type Record interface {
	Row() []string
}

type FilterFunc[T Record] func(T) bool

// Create writes header followed by every record accepted by filter. A nil
// filter keeps everything.
func Create[T Record](header []string, records []T, filter FilterFunc[T]) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range records {
		if filter != nil && !filter(r) {
			continue
		}
		if err := w.Write(r.Row()); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Filter selects ledger rows. Zero fields do not filter.
type Filter struct {
	Period    period.Period
	Status    models.Status
	Category  string
	Detail    string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Start     time.Time
	End       time.Time
}

func (f Filter) Match(t models.Transaction) bool {
	if !f.Period.IsZero() {
		p, ok := t.Period()
		if !ok || p != f.Period {
			return false
		}
	}
	if f.Status != "" && t.Status() != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(strings.TrimSpace(t.Category), strings.TrimSpace(f.Category)) {
		return false
	}
	if f.Detail != "" && !strings.Contains(strings.ToLower(t.Detail), strings.ToLower(f.Detail)) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if !f.Start.IsZero() && (t.Date.IsZero() || t.Date.Before(f.Start)) {
		return false
	}
	if !f.End.IsZero() && (t.Date.IsZero() || t.Date.After(f.End)) {
		return false
	}
	return true
}

func (f Filter) Func() FilterFunc[models.Transaction] {
	return f.Match
}

// Apply returns the matching rows in their original order.
func (f Filter) Apply(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Ledger renders the ledger with the persisted header.
func Ledger(txs []models.Transaction, f Filter) ([]byte, error) {
	return Create(models.LedgerHeader, txs, f.Func())
}
