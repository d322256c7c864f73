package models

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/period"
)

// BudgetEntry is the planned amount of one category in one period.
type BudgetEntry struct {
	Category string          `json:"category"`
	Period   period.Period   `json:"period"`
	Planned  decimal.Decimal `json:"planned"`
}

// BudgetMatrix is the flat list of entries; the persisted form is a wide
// table with one row per category and one column per period.
type BudgetMatrix []BudgetEntry

// Planned returns the planned amount, zero when there is no entry.
func (m BudgetMatrix) Planned(category string, p period.Period) decimal.Decimal {
	for _, e := range m {
		if e.Category == category && e.Period == p {
			return e.Planned
		}
	}
	return decimal.Zero
}

// ForPeriod returns the entries of one period keyed by category.
func (m BudgetMatrix) ForPeriod(p period.Period) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range m {
		if e.Period == p {
			out[e.Category] = e.Planned
		}
	}
	return out
}

// Categories lists category names in order of first appearance.
func (m BudgetMatrix) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range m {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Periods lists the distinct periods in ascending order.
func (m BudgetMatrix) Periods() []period.Period {
	seen := make(map[period.Period]bool)
	var out []period.Period
	for _, e := range m {
		if !seen[e.Period] {
			seen[e.Period] = true
			out = append(out, e.Period)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
