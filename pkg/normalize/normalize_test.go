package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1.234,56", "1234.56"},
		{"-$1.234,56", "-1234.56"},
		{"1,234.56", "1234.56"},
		{"US$ 1,234.56", "1234.56"},
		{"R$ 2.327,00", "2327"},
		{"CLP 12.990", "12990"},
		{"12.990", "12990"},
		{"1.234.567", "1234567"},
		{"1,234,567", "1234567"},
		{"0.500", "0.5"},
		{"45.5", "45.5"},
		{"1,5", "1.5"},
		{"(45.00)", "-45"},
		{"45-", "-45"},
		{"+10", "10"},
		{"1 234,50", "1234.5"},
		{"1.234.567,89", "1234567.89"},
		{"-45-", "0"},
		{"--5", "0"},
		{"+-5", "0"},
		{"(-5)", "0"},
		{"1..2", "0"},
		{"1.2.3", "0"},
		{"12,34,5", "0"},
		{"1.23,5", "0"},
		{"abc", "0"},
		{"", "0"},
		{"   ", "0"},
	}
	for _, tt := range tests {
		got := Amount(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Amount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAmountStrict(t *testing.T) {
	if _, err := AmountStrict(""); err != ErrEmptyAmount {
		t.Errorf("expected ErrEmptyAmount, got %v", err)
	}
	for _, bad := range []string{"twelve", "--5", "1..2", "1,2,3"} {
		if _, err := AmountStrict(bad); err == nil {
			t.Errorf("AmountStrict(%q): expected error", bad)
		}
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345", "12.345"},
		{"-2327", "-2327"},
		{"1234.5", "1234.5"},
		{"$12.345", "12345"},
		{"", "0"},
	}
	for _, tt := range tests {
		got := Number(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Number(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"17-03-2025", "2025-03-17"},
		{"17/03/2025", "2025-03-17"},
		{"1/3/2025", "2025-03-01"},
		{"05/04/2025", "2025-04-05"},
		{"17.03.2025", "2025-03-17"},
		{"17/03/25", "2025-03-17"},
		{"17/03/2025 10:22:01", "2025-03-17"},
		{"1/1/25", "2025-01-01"},
		{"5-4-25", "2025-04-05"},
		{"17.03.25", "2025-03-17"},
		{"01-01-2025 10:00", "2025-01-01"},
		{"1/3/2025 08:15:00", "2025-03-01"},
		{"1/3/2025 08:15", "2025-03-01"},
		{"2025-03-17", "2025-03-17"},
		{"2025-03-17 08:00:00", "2025-03-17"},
		{"03/25/2025", "2025-03-25"},
		{"45733", "2025-03-17"},
	}
	for _, tt := range tests {
		got, ok := Date(tt.in)
		if !ok {
			t.Errorf("Date(%q) failed", tt.in)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("Date(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}

	for _, bad := range []string{"", "not a date", "32/13/2025", "12"} {
		if got, ok := Date(bad); ok || !got.IsZero() {
			t.Errorf("Date(%q) = %v, %v; want zero, false", bad, got, ok)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)); got != "07-03-2025" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("FormatDate(zero) = %q", got)
	}
}
