package budget

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
)

func TestSynchronizeFillsMatrix(t *testing.T) {
	cats := []models.Category{
		{Name: "Ocio", Type: models.VariableExpense},
		{Name: "Sueldo", Type: models.Income},
		{Name: models.PendingCategory, Type: models.Other},
	}
	horizon := period.Horizon(period.MustParse("2025-01"), 24)

	m, changed := Synchronize(cats, nil, horizon)
	if !changed {
		t.Error("expected change on empty matrix")
	}
	if len(m) != 48 {
		t.Fatalf("expected 48 entries, got %d", len(m))
	}
	for _, e := range m {
		if e.Category == models.PendingCategory {
			t.Fatal("pending must not be planned")
		}
		if !e.Planned.IsZero() {
			t.Errorf("new entries must be zero, got %s", e.Planned)
		}
	}

	again, changed := Synchronize(cats, m, horizon)
	if changed || len(again) != len(m) {
		t.Errorf("second sync should be a no-op, changed=%v len=%d", changed, len(again))
	}
}

func TestSynchronizePrunesAndCollapses(t *testing.T) {
	p := period.MustParse("2025-03")
	cats := []models.Category{{Name: "Ocio", Type: models.VariableExpense}}
	matrix := models.BudgetMatrix{
		{Category: "Ocio", Period: p, Planned: decimal.NewFromInt(100)},
		{Category: "Ocio", Period: p, Planned: decimal.NewFromInt(999)},
		{Category: "Viajes", Period: p, Planned: decimal.NewFromInt(50)},
		{Category: "Pendiente", Period: p, Planned: decimal.NewFromInt(1)},
		{Category: "Ocio", Period: period.MustParse("2020-01"), Planned: decimal.NewFromInt(7)},
	}

	m, changed := Synchronize(cats, matrix, []period.Period{p})
	if !changed {
		t.Error("expected change")
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %+v", m)
	}
	if !m.Planned("Ocio", p).Equal(decimal.NewFromInt(100)) {
		t.Errorf("first entry should win, got %s", m.Planned("Ocio", p))
	}
	if !m.Planned("Ocio", period.MustParse("2020-01")).Equal(decimal.NewFromInt(7)) {
		t.Error("entries outside the horizon should be kept")
	}
	for _, name := range m.Categories() {
		if name != "Ocio" {
			t.Errorf("unexpected category %q left in matrix", name)
		}
	}
}

func TestSynchronizeNormalizesNames(t *testing.T) {
	p := period.MustParse("2025-03")
	cats := []models.Category{{Name: "Gastos  comunes", Type: models.FixedExpense}}
	matrix := models.BudgetMatrix{{Category: " Gastos comunes", Period: p, Planned: decimal.NewFromInt(10)}}

	m, _ := Synchronize(cats, matrix, []period.Period{p})
	if len(m) != 1 || m[0].Category != "Gastos comunes" || !m[0].Planned.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unexpected matrix %+v", m)
	}
}

func TestSet(t *testing.T) {
	p := period.MustParse("2025-03")
	m := models.BudgetMatrix{{Category: "Ocio", Period: p, Planned: decimal.Zero}}

	out, err := Set(m, "Ocio", p, decimal.NewFromInt(150))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !out.Planned("Ocio", p).Equal(decimal.NewFromInt(150)) || !m[0].Planned.IsZero() {
		t.Error("Set should update a copy")
	}

	out, err = Set(out, "Viajes", p.Next(), decimal.NewFromInt(20))
	if err != nil || len(out) != 2 {
		t.Errorf("Set should append missing cells, got %v %v", out, err)
	}

	if _, err := Set(out, "Pending", p, decimal.NewFromInt(1)); err == nil {
		t.Error("expected error for pending category")
	}
}
