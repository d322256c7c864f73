package models

import (
	"fmt"
	"strings"
)

// CategoryType groups categories for the income/expense balance.
type CategoryType string

// DefaultCategoryType is assigned to categories stored without a type.
const DefaultCategoryType = VariableExpense

const (
	Income          CategoryType = "Income"
	FixedExpense    CategoryType = "FixedExpense"
	VariableExpense CategoryType = "VariableExpense"
	Other           CategoryType = "Other"
)

var typeLabels = map[CategoryType]string{
	Income:          "Ingreso",
	FixedExpense:    "Gasto Fijo",
	VariableExpense: "Gasto Variable",
	Other:           "Otro",
}

// Label is the persisted (Spanish) name of the type.
func (t CategoryType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

func (t CategoryType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// IsExpense reports whether the type counts toward expenses.
func (t CategoryType) IsExpense() bool {
	return t == FixedExpense || t == VariableExpense || t == Other
}

// ParseCategoryType accepts either the English name or the persisted label,
// ignoring case and surrounding spaces.
func ParseCategoryType(s string) (CategoryType, error) {
	s = strings.TrimSpace(s)
	for t, label := range typeLabels {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, label) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown category type %q", s)
}

// StoredCategoryType reads a persisted type cell. A blank cell is the
// default type and an unrecognized one is Other.
func StoredCategoryType(s string) CategoryType {
	if strings.TrimSpace(s) == "" {
		return DefaultCategoryType
	}
	t, err := ParseCategoryType(s)
	if err != nil {
		return Other
	}
	return t
}

func (t CategoryType) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

func (t *CategoryType) UnmarshalText(b []byte) error {
	v, err := ParseCategoryType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// CategoryHeader is the persisted column order of the category list.
var CategoryHeader = []string{"Categoria", "Tipo", "Agrupador"}

type Category struct {
	Name    string       `json:"name" yaml:"name"`
	Type    CategoryType `json:"type" yaml:"type"`
	Grouper string       `json:"grouper,omitempty" yaml:"grouper,omitempty"`
}

func (c Category) Row() []string {
	return []string{c.Name, c.Type.Label(), c.Grouper}
}

// DefaultCategories seeds a fresh installation.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Alimentación", Type: VariableExpense},
		{Name: "Transporte", Type: VariableExpense},
		{Name: "Vivienda", Type: FixedExpense},
		{Name: "Ocio", Type: VariableExpense},
		{Name: "Suscripciones", Type: FixedExpense},
		{Name: PendingCategory, Type: Other},
	}
}
