package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
)

// LedgerRows renders the ledger with a header row.
func LedgerRows(txs []models.Transaction) [][]string {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, models.LedgerHeader)
	for _, t := range txs {
		rows = append(rows, t.Row())
	}
	return rows
}

// ParseLedgerRows reads a ledger table. The header must carry every ledger
// column; their order does not matter. Rows with an unparsable date keep the
// raw text so that a later rewrite preserves it.
func ParseLedgerRows(rows [][]string) ([]models.Transaction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header", ErrCorruptLedger)
	}
	idx, missing := headerIndex(rows[0], models.LedgerHeader)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrCorruptLedger, missing)
	}

	txs := make([]models.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		raw := field(row, idx["Fecha"])
		t := models.Transaction{
			Detail:   field(row, idx["Detalle"]),
			Amount:   normalize.Number(field(row, idx["Monto"])),
			Bank:     field(row, idx["Banco"]),
			Category: field(row, idx["Categoria"]),
		}
		if date, ok := normalize.Date(raw); ok {
			t.Date = date
		} else {
			t.RawDate = raw
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// CategoryRows renders the category list with a header row.
func CategoryRows(cats []models.Category) [][]string {
	rows := make([][]string, 0, len(cats)+1)
	rows = append(rows, models.CategoryHeader)
	for _, c := range cats {
		rows = append(rows, c.Row())
	}
	return rows
}

// ParseCategoryRows reads a category table. Only the name column is
// required; a blank type is the default type and an unknown one is Other.
func ParseCategoryRows(rows [][]string) ([]models.Category, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	idx, missing := headerIndex(rows[0], models.CategoryHeader[:1])
	if len(missing) > 0 {
		return nil, fmt.Errorf("category table: missing columns %v", missing)
	}
	typeIdx := columnIndex(rows[0], "Tipo")
	grouperIdx := columnIndex(rows[0], "Agrupador")

	var cats []models.Category
	for _, row := range rows[1:] {
		name := field(row, idx["Categoria"])
		if name == "" {
			continue
		}
		cats = append(cats, models.Category{
			Name:    name,
			Type:    models.StoredCategoryType(field(row, typeIdx)),
			Grouper: field(row, grouperIdx),
		})
	}
	return cats, nil
}

// BudgetRows renders the matrix as a wide table: one row per category in
// order of first appearance and one column per period in ascending order.
func BudgetRows(m models.BudgetMatrix) [][]string {
	periods := m.Periods()
	header := []string{"Categoria"}
	for _, p := range periods {
		header = append(header, p.String())
	}
	rows := [][]string{header}
	for _, name := range m.Categories() {
		row := make([]string, len(header))
		row[0] = name
		for i := range periods {
			row[i+1] = "0"
		}
		for _, e := range m {
			if e.Category != name {
				continue
			}
			i := sort.Search(len(periods), func(i int) bool { return !periods[i].Before(e.Period) })
			row[i+1] = e.Planned.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// ParseBudgetRows reads a wide budget table. Columns whose header is not a
// period are ignored and blank cells count as zero.
func ParseBudgetRows(rows [][]string) (models.BudgetMatrix, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	catIdx := columnIndex(rows[0], "Categoria")
	if catIdx < 0 {
		return nil, fmt.Errorf("budget table: missing Categoria column")
	}
	periods := make(map[int]period.Period)
	for i, h := range rows[0] {
		if p, err := period.Parse(h); err == nil {
			periods[i] = p
		}
	}
	cols := make([]int, 0, len(periods))
	for i := range periods {
		cols = append(cols, i)
	}
	sort.Ints(cols)

	var m models.BudgetMatrix
	for _, row := range rows[1:] {
		name := field(row, catIdx)
		if name == "" {
			continue
		}
		for _, i := range cols {
			m = append(m, models.BudgetEntry{
				Category: name,
				Period:   periods[i],
				Planned:  normalize.Number(field(row, i)),
			})
		}
	}
	return m, nil
}

func headerIndex(header, required []string) (map[string]int, []string) {
	idx := make(map[string]int, len(required))
	var missing []string
	for _, name := range required {
		i := columnIndex(header, name)
		if i < 0 {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	return idx, missing
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
