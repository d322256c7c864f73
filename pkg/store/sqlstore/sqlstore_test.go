package sqlstore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/store"
)

func openSQLite(t *testing.T, guard store.Guard) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "conciliador.db")
	s, err := Open(context.Background(), log.New(io.Discard), SQLite, path, guard)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b) VALUES (?, ?)`
	if got := SQLite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %s", got)
	}
	if got := Postgres.rebind(q); got != `INSERT INTO t (a, b) VALUES ($1, $2)` {
		t.Errorf("postgres rebind = %s", got)
	}
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), log.New(io.Discard), Dialect("oracle"), "x", store.Guard{})
	if !errors.Is(err, ErrUnknownDialect) {
		t.Errorf("expected ErrUnknownDialect, got %v", err)
	}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, store.Guard{Ratio: 0.5, MinRows: 2})

	got, err := s.LoadLedger(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("fresh ledger: %v %v", got, err)
	}

	txs := []models.Transaction{
		{Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Detail: "Jumbo", Amount: decimal.RequireFromString("-45990"), Bank: "CC Santander", Category: "Alimentación"},
		{RawDate: "99/99/2025", Detail: "Odd", Amount: decimal.RequireFromString("12.5"), Category: models.PendingCategory},
		{Date: time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), Detail: "Uber", Amount: decimal.RequireFromString("-3500"), Category: models.PendingCategory},
	}
	if err := s.SaveLedger(ctx, txs); err != nil {
		t.Fatalf("SaveLedger failed: %v", err)
	}
	got, err = s.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("LoadLedger failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i := range txs {
		if got[i].Key() != txs[i].Key() || got[i].Category != txs[i].Category {
			t.Errorf("row %d = %+v, want %+v", i, got[i], txs[i])
		}
	}

	if err := s.SaveLedger(ctx, txs[:1]); !errors.Is(err, store.ErrImplausibleShrink) {
		t.Fatalf("expected ErrImplausibleShrink, got %v", err)
	}
	if got, _ := s.LoadLedger(ctx); len(got) != 3 {
		t.Errorf("rejected save must roll back, got %d rows", len(got))
	}
}

func TestCategoriesAndBudget(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, store.Guard{})

	if _, err := s.LoadCategories(ctx); !errors.Is(err, store.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	cats := models.DefaultCategories()
	if err := s.SaveCategories(ctx, cats); err != nil {
		t.Fatalf("SaveCategories failed: %v", err)
	}
	got, err := s.LoadCategories(ctx)
	if err != nil || len(got) != len(cats) {
		t.Fatalf("LoadCategories: %v %v", got, err)
	}
	for i := range cats {
		if got[i] != cats[i] {
			t.Errorf("category %d = %+v, want %+v", i, got[i], cats[i])
		}
	}

	p := period.MustParse("2025-06")
	m := models.BudgetMatrix{
		{Category: "Ocio", Period: p, Planned: decimal.RequireFromString("150.25")},
		{Category: "Vivienda", Period: p, Planned: decimal.NewFromInt(500000)},
	}
	if err := s.SaveBudget(ctx, m); err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}
	back, err := s.LoadBudget(ctx)
	if err != nil || len(back) != 2 {
		t.Fatalf("LoadBudget: %v %v", back, err)
	}
	if !back.Planned("Ocio", p).Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("unexpected planned %s", back.Planned("Ocio", p))
	}
}
