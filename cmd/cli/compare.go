package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliador/pkg/compare"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/repair"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare real spend against the plan for one period",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, _ []string) error {
		p := period.Current(time.Now())
		if raw, _ := cmd.Flags().GetString("period"); raw != "" {
			var err error
			if p, err = period.Parse(raw); err != nil {
				return err
			}
		}
		t, err := s.processor.Compare(ctx, p)
		if err != nil {
			return err
		}
		printTable(t)
		return nil
	}),
}

func printTable(t *compare.Table) {
	fmt.Printf("Period %s\n", t.Period)
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		name := r.Category
		if r.Pending {
			name = warnStyle.Render(name)
		}
		rows = append(rows, []string{name, r.Type.Label(), money(r.Real), money(r.Plan), money(r.Diff)})
	}
	renderTable(os.Stdout, []string{"Categoria", "Tipo", "Real", "Plan", "Diferencia"}, rows, 4)

	tot := t.Totals
	renderTable(os.Stdout, []string{"", "Real", "Plan"}, [][]string{
		{"Ingresos", money(tot.IncomeReal), money(tot.IncomePlan)},
		{"Gastos", money(tot.ExpenseReal), money(tot.ExpensePlan)},
		{"Pendiente", money(tot.PendingReal), ""},
		{"Balance", money(tot.BalanceReal), money(tot.BalancePlan)},
	}, 1, 2)
	fmt.Printf("Balance difference: %s\n", money(tot.BalanceDiff))
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print per-period and cumulative balances",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, _ []string) error {
		current := period.Current(time.Now())
		from := period.Period{Year: current.Year, Month: time.January}
		to := current
		for name, dst := range map[string]*period.Period{"from": &from, "to": &to} {
			raw, _ := cmd.Flags().GetString(name)
			if raw == "" {
				continue
			}
			p, err := period.Parse(raw)
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = p
		}

		balances, err := s.processor.Running(ctx, from, to)
		if err != nil {
			return err
		}
		rows := make([][]string, len(balances))
		for i, b := range balances {
			rows[i] = []string{
				b.Period.String(),
				money(b.Totals.BalanceReal),
				money(b.Totals.BalancePlan),
				money(b.CumulativeReal),
				money(b.CumulativePlan),
			}
		}
		renderTable(os.Stdout, []string{"Periodo", "Real", "Plan", "Acumulado real", "Acumulado plan"}, rows, 1, 2, 3, 4)
		return nil
	}),
}

var repairDatesCmd = &cobra.Command{
	Use:   "repair-dates",
	Short: "Swap day and month of ledger rows imported month-first",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, _ []string) error {
		var w repair.Window
		for name, dst := range map[string]*time.Time{"from": &w.From, "to": &w.To} {
			raw, _ := cmd.Flags().GetString(name)
			t, ok := normalize.Date(raw)
			if !ok {
				return fmt.Errorf("--%s: invalid date %q", name, raw)
			}
			*dst = t
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		res, ws, err := s.processor.RepairDates(ctx, w, dryRun)
		if err != nil {
			return err
		}
		for _, c := range res.Changes {
			fmt.Printf("%s -> %s  %s\n", c.Before, c.After, c.Detail)
		}
		switch {
		case len(res.Changes) == 0:
			fmt.Println(syncedStyle.Render("nothing to repair"))
		case dryRun:
			fmt.Printf("%d row(s) would change, %d duplicate(s) would collapse\n", len(res.Changes), res.Collapsed)
		default:
			fmt.Printf("%d row(s) repaired, %d duplicate(s) collapsed\n", len(res.Changes), res.Collapsed)
		}
		printWarnings(ws)
		return nil
	}),
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the store files to or from the backup target",
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the store files",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, _ []string) error {
		msgs, err := s.processor.Backup(ctx)
		for _, m := range msgs {
			fmt.Println(m)
		}
		return err
	}),
}

var backupPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the store files, replacing the local copies",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, _ []string) error {
		restored, msgs, err := s.processor.Restore(ctx, false)
		for _, m := range msgs {
			fmt.Println(m)
		}
		if err != nil {
			return err
		}
		if !restored {
			fmt.Println(syncedStyle.Render("nothing to restore"))
		}
		return nil
	}),
}

func init() {
	compareCmd.Flags().String("period", "", "Period to compare (YYYY-MM, default current)")

	balancesCmd.Flags().String("from", "", "First period (YYYY-MM, default January)")
	balancesCmd.Flags().String("to", "", "Last period (YYYY-MM, default current)")

	repairDatesCmd.Flags().String("from", "", "First date of the window (DD/MM/YYYY)")
	repairDatesCmd.Flags().String("to", "", "Last date of the window (DD/MM/YYYY)")
	repairDatesCmd.Flags().Bool("dry-run", false, "Show the changes without writing")
	_ = repairDatesCmd.MarkFlagRequired("from")
	_ = repairDatesCmd.MarkFlagRequired("to")

	backupCmd.AddCommand(backupPushCmd, backupPullCmd)
}
