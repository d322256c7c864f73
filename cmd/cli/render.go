package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	syncedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	negStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

// renderTable prints rows under headers. Cells of the columns listed in
// amountCols that hold a negative number are shown in red.
func renderTable(w io.Writer, headers []string, rows [][]string, amountCols ...int) {
	numeric := make(map[int]bool, len(amountCols))
	for _, c := range amountCols {
		numeric[c] = true
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(syncedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if numeric[col] && row >= 0 && row < len(rows) && col < len(rows[row]) {
				if d, err := decimal.NewFromString(rows[row][col]); err == nil && d.IsNegative() {
					return negStyle
				}
			}
			return cellStyle
		})
	fmt.Fprintln(w, t)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(0)
}
