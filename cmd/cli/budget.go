package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage the category list",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the categories",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, _ []string) error {
		cats, err := s.processor.Categories(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(cats))
		for i, c := range cats {
			rows[i] = c.Row()
		}
		renderTable(os.Stdout, models.CategoryHeader, rows)
		return nil
	}),
}

var categoriesSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Add a category or update an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
		c := models.Category{Name: args[0]}
		if raw, _ := cmd.Flags().GetString("type"); raw != "" {
			t, err := models.ParseCategoryType(raw)
			if err != nil {
				return err
			}
			c.Type = t
		}
		c.Grouper, _ = cmd.Flags().GetString("grouper")

		ws, err := s.processor.UpsertCategories(ctx, c)
		if err != nil {
			return err
		}
		printWarnings(ws)
		fmt.Printf("category %q saved\n", c.Name)
		return nil
	}),
}

var categoriesRemoveCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove categories and their budget rows",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, args []string) error {
		ws, err := s.processor.RemoveCategories(ctx, args...)
		if err != nil {
			return err
		}
		printWarnings(ws)
		fmt.Printf("removed %d categor(ies)\n", len(args))
		return nil
	}),
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage the planned amounts per category and period",
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the budget matrix",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, _ []string) error {
		m, err := s.processor.Budget(ctx)
		if err != nil {
			return err
		}
		periods := m.Periods()
		if raw, _ := cmd.Flags().GetString("period"); raw != "" {
			p, err := period.Parse(raw)
			if err != nil {
				return err
			}
			periods = []period.Period{p}
		}

		headers := []string{"Categoria"}
		amountCols := make([]int, 0, len(periods))
		for i, p := range periods {
			headers = append(headers, p.String())
			amountCols = append(amountCols, i+1)
		}
		var rows [][]string
		for _, c := range m.Categories() {
			row := []string{c}
			for _, p := range periods {
				row = append(row, money(m.Planned(c, p)))
			}
			rows = append(rows, row)
		}
		renderTable(os.Stdout, headers, rows, amountCols...)
		return nil
	}),
}

var budgetSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Align the budget with the categories and the horizon",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, _ []string) error {
		changed, ws, err := s.processor.SyncBudget(ctx)
		if err != nil {
			return err
		}
		printWarnings(ws)
		if changed {
			fmt.Println("budget synchronized")
		} else {
			fmt.Println(syncedStyle.Render("budget already in sync"))
		}
		return nil
	}),
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <category> <period> <amount>",
	Short: "Set the planned amount of one category in one period",
	Args:  cobra.ExactArgs(3),
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, args []string) error {
		p, err := period.Parse(args[1])
		if err != nil {
			return err
		}
		amount, err := normalize.AmountStrict(args[2])
		if err != nil {
			return err
		}
		ws, err := s.processor.SetPlanned(ctx, args[0], p, amount)
		if err != nil {
			return err
		}
		printWarnings(ws)
		fmt.Printf("%s %s planned %s\n", args[0], p, money(amount))
		return nil
	}),
}

func init() {
	categoriesSetCmd.Flags().String("type", "", "Ingreso, Gasto Fijo, Gasto Variable or Otro")
	categoriesSetCmd.Flags().String("grouper", "", "Free-form group label")
	categoriesCmd.AddCommand(categoriesListCmd, categoriesSetCmd, categoriesRemoveCmd)

	budgetShowCmd.Flags().String("period", "", "Only this period (YYYY-MM)")
	budgetCmd.AddCommand(budgetShowCmd, budgetSyncCmd, budgetSetCmd)
}
