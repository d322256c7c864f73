// Package repair fixes ledger rows whose day and month were stored swapped
// by an earlier month-first import.
package repair

import (
	"errors"
	"time"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/reconcile"
)

var ErrEmptyWindow = errors.New("repair window must have both ends")

// Window bounds the dates to repair, both ends inclusive and compared by
// day. It is always explicit; the repair is never run over the whole ledger
// by default.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() || w.To.Before(w.From) {
		return ErrEmptyWindow
	}
	return nil
}

func (w Window) contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

type Change struct {
	Before string
	After  string
	Detail string
}

type Result struct {
	Ledger    []models.Transaction
	Changes   []Change
	Collapsed int
}

// SwapDayMonth swaps day and month of every row inside the window whose day
// could also be a month and differs from it. Rows that become duplicates of
// an existing row are collapsed, keeping the first one.
func SwapDayMonth(ledger []models.Transaction, w Window) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, len(ledger))
	copy(out, ledger)

	res := &Result{}
	for i, t := range out {
		if t.Date.IsZero() || !w.contains(t.Date) {
			continue
		}
		day, month := t.Date.Day(), int(t.Date.Month())
		if day > 12 || day == month {
			continue
		}
		swapped := time.Date(t.Date.Year(), time.Month(day), month, 0, 0, 0, 0, time.UTC)
		before := t.CanonicalDate()
		out[i].Date = swapped
		res.Changes = append(res.Changes, Change{Before: before, After: out[i].CanonicalDate(), Detail: t.Detail})
	}
	res.Ledger, res.Collapsed = reconcile.Dedupe(out)
	return res, nil
}
