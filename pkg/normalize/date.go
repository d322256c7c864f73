package normalize

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical persisted date format.
const DateLayout = "02-01-2006"

var dayFirstLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2-1-2006",
	"2/1/2006",
	"02-01-06",
	"02/01/06",
	"02.01.06",
	"2/1/06",
	"2-1-06",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
}

var otherLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"20060102",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Spreadsheet serial days count from this epoch (Lotus leap year bug included).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Date parses a statement date, trying day-first layouts before ISO and
// month-first ones, then spreadsheet serial day numbers. It returns the zero
// time and false when nothing matches.
func Date(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), true
		}
	}
	for _, layout := range otherLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 20000 && f < 80000 {
		return serialEpoch.AddDate(0, 0, int(f)), true
	}
	return time.Time{}, false
}

// FormatDate renders t in the canonical layout, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
