package parser

import (
	"strings"
)

// ColumnMap lists, per logical field, the header names a format accepts in
// order of preference. Matching is case-insensitive and whitespace tolerant:
// every candidate is first compared for equality against all headers, then
// as a substring.
type ColumnMap struct {
	Date   []string `yaml:"date"`
	Detail []string `yaml:"detail"`
	Amount []string `yaml:"amount"`
	Charge []string `yaml:"charge"`
	Credit []string `yaml:"credit"`
	Bank   []string `yaml:"bank"`
}

// String lists the accepted headers per field, skipping empty fields, as in
// "date=Fecha|Date detail=Detalle amount=Monto".
func (m ColumnMap) String() string {
	fields := []struct {
		name  string
		names []string
	}{
		{"date", m.Date},
		{"detail", m.Detail},
		{"amount", m.Amount},
		{"charge", m.Charge},
		{"credit", m.Credit},
		{"bank", m.Bank},
	}
	var parts []string
	for _, f := range fields {
		if len(f.names) > 0 {
			parts = append(parts, f.name+"="+strings.Join(f.names, "|"))
		}
	}
	return strings.Join(parts, " ")
}

// columns holds resolved header indexes; -1 means absent.
type columns struct {
	date, detail, amount, charge, credit, bank int
}

// signed reports whether the amount comes from a single signed column rather
// than a charge/credit pair.
func (m ColumnMap) signed() bool {
	return len(m.Amount) > 0
}

func (m ColumnMap) resolve(format string, header []string) (columns, error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = foldHeader(h)
	}
	c := columns{
		date:   find(norm, m.Date),
		detail: find(norm, m.Detail),
		amount: find(norm, m.Amount),
		charge: find(norm, m.Charge),
		credit: find(norm, m.Credit),
		bank:   find(norm, m.Bank),
	}

	var missing []string
	if c.date < 0 {
		missing = append(missing, "date")
	}
	if c.detail < 0 {
		missing = append(missing, "detail")
	}
	if m.signed() {
		if c.amount < 0 {
			missing = append(missing, "amount")
		}
	} else {
		if c.charge < 0 {
			missing = append(missing, "charge")
		}
		if c.credit < 0 {
			missing = append(missing, "credit")
		}
	}
	if len(missing) > 0 {
		return c, &SchemaError{Format: format, Missing: missing, Header: header}
	}
	return c, nil
}

func find(headers []string, candidates []string) int {
	for _, cand := range candidates {
		want := foldHeader(cand)
		for i, h := range headers {
			if h == want {
				return i
			}
		}
	}
	for _, cand := range candidates {
		want := foldHeader(cand)
		if want == "" {
			continue
		}
		for i, h := range headers {
			if strings.Contains(h, want) {
				return i
			}
		}
	}
	return -1
}

func foldHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
