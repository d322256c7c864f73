// Package normalize turns the free-form amount and date strings found in bank
// statements into decimal values and calendar dates.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrEmptyAmount = errors.New("empty amount")

// Longest tokens first so "US$" is not left as "US".
var currencyTokens = []string{"US$", "USD", "CLP", "EUR", "BRL", "R$", "$", "€", "£"}

var machineNumber = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// Amount parses a monetary string and returns zero when it cannot.
func Amount(raw string) decimal.Decimal {
	d, err := AmountStrict(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// AmountStrict parses a monetary string.
//
// Currency symbols, spaces and non-breaking spaces are dropped. Accounting
// parentheses and a trailing minus mean negative. When both "." and "," are
// present the rightmost one is the decimal separator. A lone "," is decimal,
// repeated ones are thousands. A lone "." followed by exactly three digits is
// a thousands separator (es-CL style "12.990"), otherwise it is decimal.
// More than one sign or thousands groups that are not three digits wide are
// an error.
func AmountStrict(raw string) (decimal.Decimal, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "").Replace(s)
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	neg, signs := false, 0
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		signs++
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		signs++
		s = strings.TrimSuffix(s, "-")
	}
	switch {
	case strings.HasPrefix(s, "-"):
		neg = !neg
		signs++
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		signs++
		s = s[1:]
	}
	if signs > 1 || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, fmt.Errorf("invalid amount %q: more than one sign", raw)
	}

	s, err := separators(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Number parses a value that is usually already machine formatted, such as a
// numeric spreadsheet cell or a value this program wrote itself, and falls
// back to Amount for anything else.
func Number(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if machineNumber.MatchString(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
	}
	return Amount(s)
}

var (
	dotGroups   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	commaGroups = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
)

var errGrouping = errors.New("malformed thousands grouping")

// separators rewrites s with "." as the only decimal separator. Thousands
// separators are only dropped from well formed groups of three digits.
func separators(s string) (string, error) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if i := strings.LastIndex(s, ","); i > strings.LastIndex(s, ".") {
			if !dotGroups.MatchString(s[:i]) {
				return "", errGrouping
			}
			return strings.ReplaceAll(s[:i], ".", "") + "." + s[i+1:], nil
		}
		i := strings.LastIndex(s, ".")
		if !commaGroups.MatchString(s[:i]) {
			return "", errGrouping
		}
		return strings.ReplaceAll(s[:i], ",", "") + s[i:], nil
	case commas > 1:
		if !commaGroups.MatchString(s) {
			return "", errGrouping
		}
		return strings.ReplaceAll(s, ",", ""), nil
	case commas == 1:
		return strings.Replace(s, ",", ".", 1), nil
	case dots > 1:
		if !dotGroups.MatchString(s) {
			return "", errGrouping
		}
		return strings.ReplaceAll(s, ".", ""), nil
	case dots == 1:
		i := strings.Index(s, ".")
		intPart, frac := s[:i], s[i+1:]
		if len(frac) == 3 && strings.Trim(intPart, "0") != "" && dotGroups.MatchString(s) {
			return intPart + frac, nil
		}
	}
	return s, nil
}
