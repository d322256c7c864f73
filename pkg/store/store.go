// Package store defines the tabular persistence used for the ledger, the
// category list and the budget matrix. Every save is a full replacement.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/yurifrl/conciliador/pkg/models"
)

var (
	// ErrNotExist means nothing has been persisted yet.
	ErrNotExist = errors.New("not found in store")
	// ErrCorruptLedger means the persisted ledger is unreadable or lacks
	// required columns.
	ErrCorruptLedger = errors.New("ledger is corrupt")
	// ErrImplausibleShrink rejects a ledger write that would drop too many rows.
	ErrImplausibleShrink = errors.New("ledger write would shrink it implausibly")
)

type LedgerStore interface {
	LoadLedger(ctx context.Context) ([]models.Transaction, error)
	SaveLedger(ctx context.Context, txs []models.Transaction) error
}

type CategoryStore interface {
	LoadCategories(ctx context.Context) ([]models.Category, error)
	SaveCategories(ctx context.Context, cats []models.Category) error
}

type BudgetStore interface {
	LoadBudget(ctx context.Context) (models.BudgetMatrix, error)
	SaveBudget(ctx context.Context, m models.BudgetMatrix) error
}

// TabularStore is implemented by every backend.
type TabularStore interface {
	LedgerStore
	CategoryStore
	BudgetStore
	Close() error
}

// File is a local file that backs part of a store.
type File struct {
	Name string
	Path string
}

// FileBacked stores keep their tables in local files that can be copied to a
// blob store and restored from it.
type FileBacked interface {
	Files() []File
}

// Guard rejects ledger writes that lose more than a fraction of the rows
// already persisted. It is skipped while the previous ledger is smaller than
// MinRows, and disabled when Ratio is zero.
type Guard struct {
	Ratio   float64
	MinRows int
}

func (g Guard) Check(previous, next int) error {
	if g.Ratio <= 0 || previous < g.MinRows || previous == 0 {
		return nil
	}
	if float64(next) < float64(previous)*g.Ratio {
		return fmt.Errorf("%w: %d rows would become %d", ErrImplausibleShrink, previous, next)
	}
	return nil
}
