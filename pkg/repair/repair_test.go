package repair

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(date time.Time, detail string, amount int64) models.Transaction {
	return models.Transaction{Date: date, Detail: detail, Amount: decimal.NewFromInt(amount), Category: models.PendingCategory}
}

func TestSwapDayMonth(t *testing.T) {
	ledger := []models.Transaction{
		tx(day(2025, 3, 2), "swapped", -100),      // stored as 02-03, really 03-02
		tx(day(2025, 3, 3), "same day and month", -1),
		tx(day(2025, 3, 20), "day above twelve", -2),
		tx(day(2025, 8, 1), "outside window", -3),
		{RawDate: "??", Detail: "unparsable"},
	}
	w := Window{From: day(2025, 1, 1), To: day(2025, 6, 30)}

	res, err := SwapDayMonth(ledger, w)
	if err != nil {
		t.Fatalf("SwapDayMonth failed: %v", err)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("expected 1 change, got %+v", res.Changes)
	}
	if res.Changes[0].Before != "02-03-2025" || res.Changes[0].After != "03-02-2025" {
		t.Errorf("unexpected change %+v", res.Changes[0])
	}
	if !res.Ledger[0].Date.Equal(day(2025, 2, 3)) {
		t.Errorf("row not swapped: %v", res.Ledger[0].Date)
	}
	if !ledger[0].Date.Equal(day(2025, 3, 2)) {
		t.Error("input ledger must not be modified")
	}
	if len(res.Ledger) != len(ledger) {
		t.Errorf("unexpected ledger size %d", len(res.Ledger))
	}
}

func TestSwapCollapsesDuplicates(t *testing.T) {
	ledger := []models.Transaction{
		tx(day(2025, 2, 3), "Uber", -3500),
		tx(day(2025, 3, 2), "Uber", -3500),
	}
	res, err := SwapDayMonth(ledger, Window{From: day(2025, 3, 1), To: day(2025, 3, 31)})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Ledger) != 1 || res.Collapsed != 1 {
		t.Errorf("expected duplicate to collapse, got %d rows, %d collapsed", len(res.Ledger), res.Collapsed)
	}
}

func TestWindowRequired(t *testing.T) {
	for _, w := range []Window{{}, {From: day(2025, 1, 1)}, {From: day(2025, 2, 1), To: day(2025, 1, 1)}} {
		if _, err := SwapDayMonth(nil, w); !errors.Is(err, ErrEmptyWindow) {
			t.Errorf("window %+v: expected ErrEmptyWindow, got %v", w, err)
		}
	}
}
