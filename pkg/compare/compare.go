// Package compare aggregates the ledger per category for one accounting
// period and compares actual spend with the budget.
package compare

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/categories"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
)

// Row is one category line. Diff is positive when the category did better
// than planned: more income, or less spend.
type Row struct {
	Category string              `json:"category"`
	Type     models.CategoryType `json:"type"`
	Pending  bool                `json:"pending,omitempty"`
	Real     decimal.Decimal     `json:"real"`
	Plan     decimal.Decimal     `json:"plan"`
	Diff     decimal.Decimal     `json:"diff"`
}

// Totals summarizes a period. Expenses cover fixed, variable and other
// categories; unclassified money is reported in PendingReal only.
type Totals struct {
	IncomeReal  decimal.Decimal `json:"income_real"`
	IncomePlan  decimal.Decimal `json:"income_plan"`
	ExpenseReal decimal.Decimal `json:"expense_real"`
	ExpensePlan decimal.Decimal `json:"expense_plan"`
	PendingReal decimal.Decimal `json:"pending_real"`
	BalanceReal decimal.Decimal `json:"balance_real"`
	BalancePlan decimal.Decimal `json:"balance_plan"`
	BalanceDiff decimal.Decimal `json:"balance_diff"`
}

type Table struct {
	Period period.Period `json:"period"`
	Rows   []Row         `json:"rows"`
	Totals Totals        `json:"totals"`
}

// Compare builds the real-vs-plan table of period p. Transactions without a
// parsable date are left out. Categories found in the ledger or the matrix
// but not in the registry are typed Other.
func Compare(ledger []models.Transaction, matrix models.BudgetMatrix, cats []models.Category, p period.Period) *Table {
	types := make(map[string]models.CategoryType, len(cats))
	for _, c := range cats {
		types[categories.NormalizeName(c.Name)] = c.Type
	}

	rows := make(map[string]*Row)
	row := func(name string) *Row {
		pending := models.IsPending(name)
		if pending {
			name = models.PendingCategory
		} else {
			name = categories.NormalizeName(name)
		}
		if r, ok := rows[name]; ok {
			return r
		}
		t, ok := types[name]
		if !ok || pending {
			t = models.Other
		}
		r := &Row{Category: name, Type: t, Pending: pending}
		rows[name] = r
		return r
	}

	for _, tx := range ledger {
		tp, ok := tx.Period()
		if !ok || tp != p {
			continue
		}
		r := row(tx.Category)
		r.Real = r.Real.Add(tx.Amount.Abs())
	}
	for name, planned := range matrix.ForPeriod(p) {
		if models.IsPending(name) {
			continue
		}
		r := row(name)
		r.Plan = r.Plan.Add(planned)
	}

	t := &Table{Period: p}
	for _, r := range rows {
		if r.Type == models.Income {
			r.Diff = r.Real.Sub(r.Plan)
		} else {
			r.Diff = r.Plan.Sub(r.Real)
		}
		switch {
		case r.Pending:
			t.Totals.PendingReal = t.Totals.PendingReal.Add(r.Real)
		case r.Type == models.Income:
			t.Totals.IncomeReal = t.Totals.IncomeReal.Add(r.Real)
			t.Totals.IncomePlan = t.Totals.IncomePlan.Add(r.Plan)
		case r.Type.IsExpense():
			t.Totals.ExpenseReal = t.Totals.ExpenseReal.Add(r.Real)
			t.Totals.ExpensePlan = t.Totals.ExpensePlan.Add(r.Plan)
		}
		t.Rows = append(t.Rows, *r)
	}
	t.Totals.BalanceReal = t.Totals.IncomeReal.Sub(t.Totals.ExpenseReal)
	t.Totals.BalancePlan = t.Totals.IncomePlan.Sub(t.Totals.ExpensePlan)
	t.Totals.BalanceDiff = t.Totals.BalancePlan.Sub(t.Totals.BalanceReal)

	sort.Slice(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if pa, pb := priority(a), priority(b); pa != pb {
			return pa < pb
		}
		if c := a.Real.Cmp(b.Real); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return t
}

func priority(r Row) int {
	switch {
	case r.Type == models.Income:
		return 0
	case r.Pending:
		return 1
	case r.Type == models.FixedExpense:
		return 2
	case r.Type == models.VariableExpense:
		return 3
	default:
		return 4
	}
}

// Balance is the outcome of one period plus the running totals up to it.
type Balance struct {
	Period         period.Period   `json:"period"`
	Totals         Totals          `json:"totals"`
	CumulativeReal decimal.Decimal `json:"cumulative_real"`
	CumulativePlan decimal.Decimal `json:"cumulative_plan"`
}

// Running compares every period in order and accumulates the balances.
func Running(ledger []models.Transaction, matrix models.BudgetMatrix, cats []models.Category, periods []period.Period) []Balance {
	out := make([]Balance, 0, len(periods))
	var cumReal, cumPlan decimal.Decimal
	for _, p := range periods {
		t := Compare(ledger, matrix, cats, p)
		cumReal = cumReal.Add(t.Totals.BalanceReal)
		cumPlan = cumPlan.Add(t.Totals.BalancePlan)
		out = append(out, Balance{Period: p, Totals: t.Totals, CumulativeReal: cumReal, CumulativePlan: cumPlan})
	}
	return out
}
