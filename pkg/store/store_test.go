package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
)

func TestGuard(t *testing.T) {
	g := Guard{Ratio: 0.5, MinRows: 10}
	tests := []struct {
		prev, next int
		wantErr    bool
	}{
		{0, 0, false},
		{9, 0, false},
		{10, 5, false},
		{10, 4, true},
		{100, 200, false},
	}
	for _, tt := range tests {
		err := g.Check(tt.prev, tt.next)
		if (err != nil) != tt.wantErr {
			t.Errorf("Check(%d, %d) = %v, wantErr %v", tt.prev, tt.next, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrImplausibleShrink) {
			t.Errorf("expected ErrImplausibleShrink, got %v", err)
		}
	}
	if err := (Guard{}).Check(1000, 0); err != nil {
		t.Errorf("zero guard should be disabled, got %v", err)
	}
}

func TestLedgerRows(t *testing.T) {
	txs := []models.Transaction{
		{Date: time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), Detail: "Café, grande", Amount: decimal.RequireFromString("12.345"), Bank: "CC Santander", Category: "Ocio"},
		{RawDate: "31/02/2025", Detail: "Broken", Amount: decimal.RequireFromString("-1"), Category: "Pending"},
	}
	rows := LedgerRows(txs)
	if rows[1][0] != "17-03-2025" || rows[1][2] != "12.345" || rows[2][0] != "31/02/2025" {
		t.Fatalf("unexpected rows %v", rows)
	}

	back, err := ParseLedgerRows(rows)
	if err != nil {
		t.Fatalf("ParseLedgerRows failed: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(back))
	}
	if back[0].Key() != txs[0].Key() || back[0].Bank != "CC Santander" || back[0].Category != "Ocio" {
		t.Errorf("row 0 changed: %+v", back[0])
	}
	if !back[1].Date.IsZero() || back[1].RawDate != "31/02/2025" {
		t.Errorf("raw date not preserved: %+v", back[1])
	}
}

func TestParseLedgerRowsLegacy(t *testing.T) {
	rows := [][]string{
		{"Categoria", "Banco", "Monto", "Detalle", "Fecha"},
		{"Pendiente", "CC Santander", "-12990.0", "Uber", "2025-03-01"},
		{"", "", "", "", ""},
	}
	txs, err := ParseLedgerRows(rows)
	if err != nil {
		t.Fatalf("ParseLedgerRows failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 row, got %d", len(txs))
	}
	if txs[0].CanonicalDate() != "01-03-2025" || txs[0].Status() != models.StatusPending || txs[0].Amount.String() != "-12990" {
		t.Errorf("unexpected transaction %+v", txs[0])
	}
}

func TestParseLedgerRowsCorrupt(t *testing.T) {
	for _, rows := range [][][]string{
		nil,
		{{"Fecha", "Detalle", "Monto"}},
		{{"garbage"}},
	} {
		if _, err := ParseLedgerRows(rows); !errors.Is(err, ErrCorruptLedger) {
			t.Errorf("expected ErrCorruptLedger for %v, got %v", rows, err)
		}
	}
}

func TestCategoryRows(t *testing.T) {
	cats := []models.Category{
		{Name: "Sueldo", Type: models.Income},
		{Name: "Arriendo", Type: models.FixedExpense, Grouper: "Casa"},
	}
	rows := CategoryRows(cats)
	if rows[1][1] != "Ingreso" || rows[2][2] != "Casa" {
		t.Fatalf("unexpected rows %v", rows)
	}
	back, err := ParseCategoryRows(append(rows, []string{"Raro", "???", ""}, []string{"", "Otro", ""}, []string{"Ropa", " ", ""}))
	if err != nil {
		t.Fatalf("ParseCategoryRows failed: %v", err)
	}
	if len(back) != 4 || back[0] != cats[0] || back[1] != cats[1] || back[2].Type != models.Other || back[3].Type != models.VariableExpense {
		t.Errorf("unexpected categories %+v", back)
	}

	onlyNames, err := ParseCategoryRows([][]string{{"Categoria"}, {"Ocio"}})
	if err != nil || len(onlyNames) != 1 || onlyNames[0].Type != models.VariableExpense {
		t.Errorf("legacy single-column list: %+v %v", onlyNames, err)
	}
}

func TestBudgetRows(t *testing.T) {
	jan, feb := period.MustParse("2025-01"), period.MustParse("2025-02")
	m := models.BudgetMatrix{
		{Category: "Ocio", Period: feb, Planned: decimal.NewFromInt(100)},
		{Category: "Ocio", Period: jan, Planned: decimal.NewFromInt(90)},
		{Category: "Sueldo", Period: jan, Planned: decimal.RequireFromString("1500.5")},
	}
	rows := BudgetRows(m)
	want := [][]string{
		{"Categoria", "2025-01", "2025-02"},
		{"Ocio", "90", "100"},
		{"Sueldo", "1500.5", "0"},
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("cell %d,%d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}

	back, err := ParseBudgetRows(append(rows, []string{"Viajes", "", "7"}))
	if err != nil {
		t.Fatalf("ParseBudgetRows failed: %v", err)
	}
	if len(back) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(back))
	}
	if !back.Planned("Sueldo", jan).Equal(decimal.RequireFromString("1500.5")) || !back.Planned("Viajes", jan).IsZero() {
		t.Errorf("unexpected matrix %+v", back)
	}

	if _, err := ParseBudgetRows([][]string{{"Nombre", "2025-01"}}); err == nil {
		t.Error("expected error for missing Categoria column")
	}
}
