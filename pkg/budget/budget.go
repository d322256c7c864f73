// Package budget keeps the planned-amount matrix aligned with the category
// list.
package budget

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/categories"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
)

// Synchronize returns a matrix holding exactly one entry per registered
// category (Pending excluded) and horizon period. Missing cells are added
// with a zero plan, entries of unregistered categories and repeated cells are
// dropped. Entries outside the horizon are kept. changed reports whether the
// result differs from the input; running it twice is a no-op.
func Synchronize(cats []models.Category, matrix models.BudgetMatrix, horizon []period.Period) (models.BudgetMatrix, bool) {
	valid := make(map[string]bool, len(cats))
	for _, c := range cats {
		name := categories.NormalizeName(c.Name)
		if !models.IsPending(name) {
			valid[name] = true
		}
	}

	type cellKey struct {
		category string
		period   period.Period
	}
	seen := make(map[cellKey]bool, len(matrix))
	out := make(models.BudgetMatrix, 0, len(matrix))
	changed := false

	for _, e := range matrix {
		name := categories.NormalizeName(e.Category)
		k := cellKey{name, e.Period}
		if !valid[name] || seen[k] || e.Period.IsZero() {
			changed = true
			continue
		}
		if name != e.Category {
			e.Category = name
			changed = true
		}
		seen[k] = true
		out = append(out, e)
	}

	for _, c := range cats {
		name := categories.NormalizeName(c.Name)
		if !valid[name] {
			continue
		}
		for _, p := range horizon {
			k := cellKey{name, p}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, models.BudgetEntry{Category: name, Period: p, Planned: decimal.Zero})
			changed = true
		}
	}
	return out, changed
}

// Set updates the planned amount of one cell, adding it when missing.
func Set(matrix models.BudgetMatrix, category string, p period.Period, planned decimal.Decimal) (models.BudgetMatrix, error) {
	category = categories.NormalizeName(category)
	if category == "" {
		return nil, categories.ErrEmptyName
	}
	if models.IsPending(category) {
		return nil, fmt.Errorf("cannot plan the pending category")
	}
	out := make(models.BudgetMatrix, len(matrix))
	copy(out, matrix)
	for i, e := range out {
		if e.Category == category && e.Period == p {
			out[i].Planned = planned
			return out, nil
		}
	}
	return append(out, models.BudgetEntry{Category: category, Period: p, Planned: planned}), nil
}
