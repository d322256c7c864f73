package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yurifrl/conciliador/pkg/categories"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/reconcile"
	"github.com/yurifrl/conciliador/pkg/repair"
)

func (p *Processor) Ledger(ctx context.Context) ([]models.Transaction, error) {
	return p.loadLedger(ctx)
}

// SaveLedger replaces the ledger with an edited copy. Fields are trimmed the
// way the stores trim them on load, duplicate keys are collapsed and an empty
// result for a non-empty ledger is refused.
func (p *Processor) SaveLedger(ctx context.Context, txs []models.Transaction) ([]Warning, error) {
	existing, err := p.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	ledger, collapsed := reconcile.Dedupe(canonical(txs))
	if len(ledger) == 0 && len(existing) > 0 {
		return nil, reconcile.ErrEmptyMergeResult
	}
	if collapsed > 0 {
		p.logger.Warn("collapsed duplicate rows", "count", collapsed)
	}
	if err := p.store.SaveLedger(ctx, ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	return p.autoBackup(ctx), nil
}

// canonical returns a copy of txs whose natural key matches what a store
// reads back.
func canonical(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	for i, t := range txs {
		t.Detail = strings.TrimSpace(t.Detail)
		t.Bank = strings.TrimSpace(t.Bank)
		t.RawDate = strings.TrimSpace(t.RawDate)
		t.Category = categories.NormalizeName(t.Category)
		if models.IsPending(t.Category) {
			t.Category = models.PendingCategory
		}
		out[i] = t
	}
	return out
}

// SetCategory classifies the transactions identified by keys. The category
// must be registered or be the Pending sentinel.
func (p *Processor) SetCategory(ctx context.Context, category string, keys ...models.Key) ([]Warning, error) {
	reg, err := p.registry(ctx)
	if err != nil {
		return nil, err
	}
	category = categories.NormalizeName(category)
	if !reg.Contains(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if models.IsPending(category) {
		category = models.PendingCategory
	}

	ledger, err := p.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[models.Key]int, len(ledger))
	for i, t := range ledger {
		index[t.Key()] = i
	}
	for _, k := range keys {
		i, ok := index[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s | %s | %s", ErrTransactionNotFound, k.Date, k.Detail, k.Amount)
		}
		ledger[i].Category = category
	}
	if len(keys) == 0 {
		return nil, nil
	}
	if err := p.store.SaveLedger(ctx, ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	p.logger.Info("classified transactions", "category", category, "count", len(keys))
	return p.autoBackup(ctx), nil
}

// RepairDates swaps day and month inside the window. With dryRun the ledger
// is left untouched.
func (p *Processor) RepairDates(ctx context.Context, w repair.Window, dryRun bool) (*repair.Result, []Warning, error) {
	ledger, err := p.loadLedger(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := repair.SwapDayMonth(ledger, w)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("date repair computed", "changes", len(res.Changes), "collapsed", res.Collapsed)
	if dryRun || len(res.Changes) == 0 {
		return res, nil, nil
	}
	if err := p.store.SaveLedger(ctx, res.Ledger); err != nil {
		return nil, nil, fmt.Errorf("save ledger: %w", err)
	}
	return res, p.autoBackup(ctx), nil
}
