// Package period assigns transactions to accounting periods.
//
// An accounting period is a calendar month label, but purchases made on or
// after the cutoff day count toward the following month.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CutoffDay is the first day of a month that belongs to the next period.
const CutoffDay = 25

// Period is a year/month pair rendered as YYYY-MM.
type Period struct {
	Year  int
	Month time.Month
}

// Of returns the accounting period of t.
func Of(t time.Time) Period {
	if t.Day() >= CutoffDay {
		next := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		return Period{Year: next.Year(), Month: next.Month()}
	}
	return Period{Year: t.Year(), Month: t.Month()}
}

// Current is the period "now" falls into.
func Current(now time.Time) Period {
	return Of(now)
}

// Parse reads a YYYY-MM label. A trailing day component is ignored so that
// spreadsheet exports like "2025-03-01" still work as column headers.
func Parse(s string) (Period, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) < 2 || len(parts) > 3 || len(parts[0]) != 4 {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period month %q", s)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Period {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Add moves p by n months (n may be negative).
func (p Period) Add(n int) Period {
	t := time.Date(p.Year, p.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Next() Period {
	return p.Add(1)
}

func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Start returns the first calendar day covered by p (the cutoff day of the
// previous month).
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month-1, CutoffDay, 0, 0, 0, 0, time.UTC)
}

// End returns the last calendar day covered by p.
func (p Period) End() time.Time {
	return time.Date(p.Year, p.Month, CutoffDay-1, 0, 0, 0, 0, time.UTC)
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Horizon lists n consecutive periods starting at start.
func Horizon(start Period, n int) []Period {
	out := make([]Period, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.Add(i))
	}
	return out
}

// Range lists every period from "from" to "to", both inclusive.
func Range(from, to Period) []Period {
	var out []Period
	for p := from; !to.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}
