package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/budget"
	"github.com/yurifrl/conciliador/pkg/categories"
	"github.com/yurifrl/conciliador/pkg/compare"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/store"
)

// Categories returns the persisted list, or the default list when none was
// saved yet.
func (p *Processor) Categories(ctx context.Context) ([]models.Category, error) {
	cats, err := p.store.LoadCategories(ctx)
	if errors.Is(err, store.ErrNotExist) || (err == nil && len(cats) == 0) {
		return models.DefaultCategories(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return cats, nil
}

// SaveCategories replaces the whole list.
func (p *Processor) SaveCategories(ctx context.Context, cats []models.Category) ([]Warning, error) {
	return p.editCategories(ctx, func(r *categories.Registry) error { return r.Replace(cats) })
}

func (p *Processor) UpsertCategories(ctx context.Context, cats ...models.Category) ([]Warning, error) {
	return p.editCategories(ctx, func(r *categories.Registry) error { return r.Upsert(cats...) })
}

// RemoveCategories drops categories from the list and their budget rows.
// Ledger rows keep their labels.
func (p *Processor) RemoveCategories(ctx context.Context, names ...string) ([]Warning, error) {
	return p.editCategories(ctx, func(r *categories.Registry) error { return r.Remove(names...) })
}

// editCategories applies edit, persists the list and then realigns the
// budget matrix, writing it only when it changed.
func (p *Processor) editCategories(ctx context.Context, edit func(*categories.Registry) error) ([]Warning, error) {
	reg, err := p.registry(ctx)
	if err != nil {
		return nil, err
	}
	if err := edit(reg); err != nil {
		return nil, err
	}
	if err := p.store.SaveCategories(ctx, reg.List()); err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	p.logger.Info("saved categories", "count", reg.Len())

	if _, err := p.syncBudget(ctx, reg.List()); err != nil {
		return nil, err
	}
	return p.autoBackup(ctx), nil
}

// Budget returns the matrix aligned with the current categories and horizon
// without persisting it.
func (p *Processor) Budget(ctx context.Context) (models.BudgetMatrix, error) {
	cats, err := p.Categories(ctx)
	if err != nil {
		return nil, err
	}
	m, err := p.loadBudget(ctx)
	if err != nil {
		return nil, err
	}
	synced, _ := budget.Synchronize(cats, m, p.horizon())
	return synced, nil
}

// SyncBudget aligns the persisted matrix and reports whether it was written.
func (p *Processor) SyncBudget(ctx context.Context) (bool, []Warning, error) {
	cats, err := p.Categories(ctx)
	if err != nil {
		return false, nil, err
	}
	changed, err := p.syncBudget(ctx, cats)
	if err != nil || !changed {
		return changed, nil, err
	}
	return true, p.autoBackup(ctx), nil
}

func (p *Processor) syncBudget(ctx context.Context, cats []models.Category) (bool, error) {
	m, err := p.loadBudget(ctx)
	if err != nil {
		return false, err
	}
	synced, changed := budget.Synchronize(cats, m, p.horizon())
	if !changed {
		return false, nil
	}
	if err := p.store.SaveBudget(ctx, synced); err != nil {
		return false, fmt.Errorf("save budget: %w", err)
	}
	p.logger.Info("budget synchronized", "entries", len(synced))
	return true, nil
}

// SetPlanned updates one planned amount.
func (p *Processor) SetPlanned(ctx context.Context, category string, per period.Period, planned decimal.Decimal) ([]Warning, error) {
	reg, err := p.registry(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := reg.Lookup(category); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	m, err := p.loadBudget(ctx)
	if err != nil {
		return nil, err
	}
	m, _ = budget.Synchronize(reg.List(), m, p.horizon())
	m, err = budget.Set(m, category, per, planned)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveBudget(ctx, m); err != nil {
		return nil, fmt.Errorf("save budget: %w", err)
	}
	return p.autoBackup(ctx), nil
}

// Compare reconciles real spend against the plan for one period.
func (p *Processor) Compare(ctx context.Context, per period.Period) (*compare.Table, error) {
	ledger, cats, m, err := p.state(ctx)
	if err != nil {
		return nil, err
	}
	return compare.Compare(ledger, m, cats, per), nil
}

// Running returns per-period and cumulative balances from "from" to "to".
func (p *Processor) Running(ctx context.Context, from, to period.Period) ([]compare.Balance, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range %s..%s", from, to)
	}
	ledger, cats, m, err := p.state(ctx)
	if err != nil {
		return nil, err
	}
	return compare.Running(ledger, m, cats, period.Range(from, to)), nil
}

func (p *Processor) state(ctx context.Context) ([]models.Transaction, []models.Category, models.BudgetMatrix, error) {
	ledger, err := p.loadLedger(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	cats, err := p.Categories(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := p.loadBudget(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return ledger, cats, m, nil
}
