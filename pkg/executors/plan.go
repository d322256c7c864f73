package executors

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/conciliador/pkg/plan"
	"github.com/yurifrl/conciliador/pkg/reconcile"
	"github.com/yurifrl/conciliador/pkg/service"
)

var (
	syncedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	addedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

// Plan runs the import as a dry run and prints one line per candidate:
// "=" for rows already in the ledger, "+" for rows that would be added.
func (e *Executor) Plan(ctx context.Context, p *plan.Plan, w io.Writer) (*service.ImportResult, error) {
	e.logger.Debug("planning statements", "count", len(p.Statements))

	files, err := p.Files()
	if err != nil {
		return nil, err
	}
	res, err := e.processor.Import(ctx, files, service.ImportOptions{DryRun: true, SkipUnrecognized: true})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("processing plan report", "total", len(res.Report.Items), "in_sync", res.Report.InSyncCount(), "to_add", res.Report.MissingCount())

	Print(w, res)
	return res, nil
}

// Print renders an import result as a preview.
func Print(w io.Writer, res *service.ImportResult) {
	for _, f := range res.Failures {
		fmt.Fprintln(w, failedStyle.Render(fmt.Sprintf("! %s: %v", f.File, f.Err)))
	}
	bySource := res.Report.BySource()
	for _, b := range res.Batches {
		fmt.Fprintf(w, "\n%s (%s, %d rows, %d skipped)\n", b.File, b.Format, len(b.Transactions), b.Skipped)
		for _, m := range bySource[b.File] {
			t := m.Transaction
			line := fmt.Sprintf("%s | %-30s | %14s | %s", t.CanonicalDate(), truncate(t.Detail, 30), t.Amount.StringFixed(2), t.Bank)
			if m.Status == reconcile.Synced {
				fmt.Fprintln(w, syncedStyle.Render("= "+line))
				continue
			}
			fmt.Fprintln(w, addedStyle.Render("+ "+line))
		}
	}

	if res.Report.MissingCount() == 0 {
		fmt.Fprintf(w, "\nPlan: All %d transaction(s) are in sync\n", res.Report.InSyncCount())
	} else {
		fmt.Fprintf(w, "\nPlan: %d transaction(s) will be added, %d already in sync\n", res.Report.MissingCount(), res.Report.InSyncCount())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
