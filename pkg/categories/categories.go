// Package categories keeps the user-defined list of spending categories.
package categories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yurifrl/conciliador/pkg/models"
)

var (
	ErrEmptyRegistry = errors.New("category list cannot be empty")
	ErrEmptyName     = errors.New("category name cannot be empty")
	ErrInvalidType   = errors.New("invalid category type")
)

// NormalizeName trims and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Registry is an ordered set of categories keyed by normalized name. Every
// edit is validated as a whole and leaves the registry untouched on error.
type Registry struct {
	items []models.Category
}

// New builds a registry, collapsing repeated names (first wins).
func New(cats []models.Category) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(cats); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) List() []models.Category {
	out := make([]models.Category, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.items))
	for i, c := range r.items {
		out[i] = c.Name
	}
	return out
}

func (r *Registry) Len() int { return len(r.items) }

func (r *Registry) Lookup(name string) (models.Category, bool) {
	name = NormalizeName(name)
	for _, c := range r.items {
		if c.Name == name {
			return c, true
		}
	}
	return models.Category{}, false
}

// Contains reports whether name is registered or is the Pending sentinel.
func (r *Registry) Contains(name string) bool {
	if models.IsPending(name) {
		return true
	}
	_, ok := r.Lookup(name)
	return ok
}

// Replace swaps the whole list.
func (r *Registry) Replace(cats []models.Category) error {
	items, err := build(nil, cats)
	if err != nil {
		return err
	}
	r.items = items
	return nil
}

// Upsert adds new categories at the end and updates existing ones in place.
func (r *Registry) Upsert(cats ...models.Category) error {
	items, err := build(r.List(), cats)
	if err != nil {
		return err
	}
	r.items = items
	return nil
}

// Remove deletes categories by name. Unknown names are ignored. Ledger rows
// that still carry a removed category are not touched.
func (r *Registry) Remove(names ...string) error {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[NormalizeName(n)] = true
	}
	var items []models.Category
	for _, c := range r.items {
		if !drop[c.Name] {
			items = append(items, c)
		}
	}
	if len(items) == 0 {
		return ErrEmptyRegistry
	}
	r.items = items
	return nil
}

// Validate checks a list the way Replace would, without keeping it.
func Validate(cats []models.Category) error {
	_, err := build(nil, cats)
	return err
}

func build(base, cats []models.Category) ([]models.Category, error) {
	items := base
	index := make(map[string]int, len(items)+len(cats))
	for i, c := range items {
		index[c.Name] = i
	}
	for _, c := range cats {
		c.Name = NormalizeName(c.Name)
		c.Grouper = strings.TrimSpace(c.Grouper)
		if c.Name == "" {
			return nil, ErrEmptyName
		}
		if c.Type == "" {
			c.Type = models.DefaultCategoryType
		}
		if !c.Type.Valid() {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidType, c.Type, c.Name)
		}
		if i, ok := index[c.Name]; ok {
			if base != nil {
				items[i] = c
			}
			continue
		}
		index[c.Name] = len(items)
		items = append(items, c)
	}
	if len(items) == 0 {
		return nil, ErrEmptyRegistry
	}
	return items, nil
}
