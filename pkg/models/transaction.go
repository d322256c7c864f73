package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
)

// PendingCategory marks a transaction that has not been classified yet.
const PendingCategory = "Pending"

// Older ledgers were written with the Spanish label.
const legacyPendingCategory = "Pendiente"

// Status is derived from the category and never stored.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusReconciled Status = "Reconciled"
)

// IsPending reports whether category is the unclassified sentinel.
func IsPending(category string) bool {
	c := strings.TrimSpace(category)
	return c == "" || strings.EqualFold(c, PendingCategory) || strings.EqualFold(c, legacyPendingCategory)
}

// LedgerHeader is the persisted column order of the ledger.
var LedgerHeader = []string{"Fecha", "Detalle", "Monto", "Banco", "Categoria"}

// Transaction is one normalized ledger row.
type Transaction struct {
	// Date is zero when the persisted date could not be parsed; RawDate then
	// keeps the original text so a rewrite does not lose it.
	Date     time.Time
	RawDate  string
	Detail   string
	Amount   decimal.Decimal
	Bank     string
	Category string
}

// Key is the natural identity of a transaction.
type Key struct {
	Date   string
	Detail string
	Amount string
}

func (t Transaction) Key() Key {
	return Key{Date: t.CanonicalDate(), Detail: t.Detail, Amount: t.Amount.String()}
}

// CanonicalDate renders the date as DD-MM-YYYY.
func (t Transaction) CanonicalDate() string {
	if t.Date.IsZero() {
		return t.RawDate
	}
	return normalize.FormatDate(t.Date)
}

func (t Transaction) Status() Status {
	if IsPending(t.Category) {
		return StatusPending
	}
	return StatusReconciled
}

// Period returns the accounting period, or false for an unparsable date.
func (t Transaction) Period() (period.Period, bool) {
	if t.Date.IsZero() {
		return period.Period{}, false
	}
	return period.Of(t.Date), true
}

// Row renders the transaction in LedgerHeader order.
func (t Transaction) Row() []string {
	return []string{t.CanonicalDate(), t.Detail, t.Amount.String(), t.Bank, t.Category}
}
