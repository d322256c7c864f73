package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionKey(t *testing.T) {
	a := Transaction{
		Date:   time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		Detail: "PIX TRANSF",
		Amount: decimal.RequireFromString("-2327.00"),
	}
	b := a
	b.Amount = decimal.RequireFromString("-2327")
	b.Category = "Ocio"
	b.Bank = "Other bank"

	if a.Key() != b.Key() {
		t.Errorf("keys differ: %+v vs %+v", a.Key(), b.Key())
	}
	if a.Key().Date != "17-03-2025" {
		t.Errorf("unexpected canonical date %q", a.Key().Date)
	}

	c := Transaction{RawDate: "31/02/2025", Detail: "x", Amount: decimal.Zero}
	if c.CanonicalDate() != "31/02/2025" {
		t.Errorf("raw date not preserved: %q", c.CanonicalDate())
	}
	if _, ok := c.Period(); ok {
		t.Error("expected no period for unparsable date")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		category string
		want     Status
	}{
		{"", StatusPending},
		{"Pending", StatusPending},
		{"Pendiente", StatusPending},
		{" pendiente ", StatusPending},
		{"Ocio", StatusReconciled},
	}
	for _, tt := range tests {
		if got := (Transaction{Category: tt.category}).Status(); got != tt.want {
			t.Errorf("Status(%q) = %s, want %s", tt.category, got, tt.want)
		}
	}
}

func TestParseCategoryType(t *testing.T) {
	tests := map[string]CategoryType{
		"Ingreso":         Income,
		"income":          Income,
		"Gasto Fijo":      FixedExpense,
		"gasto variable":  VariableExpense,
		"VariableExpense": VariableExpense,
		"Otro":            Other,
	}
	for in, want := range tests {
		got, err := ParseCategoryType(in)
		if err != nil || got != want {
			t.Errorf("ParseCategoryType(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseCategoryType("Ahorro"); err == nil {
		t.Error("expected error for unknown type")
	}
	for in, want := range map[string]CategoryType{"": VariableExpense, "  ": VariableExpense, "Ahorro": Other, "Ingreso": Income} {
		if got := StoredCategoryType(in); got != want {
			t.Errorf("StoredCategoryType(%q) = %s, want %s", in, got, want)
		}
	}
	if FixedExpense.Label() != "Gasto Fijo" {
		t.Errorf("unexpected label %q", FixedExpense.Label())
	}
	if Income.IsExpense() || !Other.IsExpense() {
		t.Error("unexpected IsExpense classification")
	}
}
