package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliador/pkg/blob"
	"github.com/yurifrl/conciliador/pkg/csv"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
)

var ledgerFilters filters

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and edit the consolidated ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print ledger rows",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, _ []string) error {
		f, err := ledgerFilters.build()
		if err != nil {
			return err
		}
		ledger, err := s.processor.Ledger(ctx)
		if err != nil {
			return err
		}
		matched := f.Apply(ledger)
		rows := make([][]string, len(matched))
		for i, t := range matched {
			rows[i] = []string{t.CanonicalDate(), t.Detail, t.Amount.String(), t.Bank, t.Category}
		}
		renderTable(os.Stdout, []string{"Fecha", "Detalle", "Monto", "Banco", "Categoria"}, rows, 2)
		fmt.Printf("%d of %d row(s)\n", len(matched), len(ledger))
		return nil
	}),
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered ledger as CSV",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, s *session, cmd *cobra.Command, _ []string) error {
		f, err := ledgerFilters.build()
		if err != nil {
			return err
		}
		ledger, err := s.processor.Ledger(ctx)
		if err != nil {
			return err
		}
		out, err := csv.Ledger(ledger, f)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if _, err := blob.WriteFileAtomic(output, bytes.NewReader(out)); err != nil {
			return err
		}
		s.logger.Info("ledger exported", "file", output)
		return nil
	}),
}

var setCategoryCmd = &cobra.Command{
	Use:   "set-category <category> <date> <detail> <amount>",
	Short: "Classify one ledger row",
	Args:  cobra.ExactArgs(4),
	RunE: run(func(ctx context.Context, s *session, _ *cobra.Command, args []string) error {
		t := models.Transaction{Detail: args[2], RawDate: args[1]}
		if d, ok := normalize.Date(args[1]); ok {
			t.Date = d
		}
		amount, err := normalize.AmountStrict(args[3])
		if err != nil {
			return err
		}
		t.Amount = amount

		ws, err := s.processor.SetCategory(ctx, args[0], t.Key())
		if err != nil {
			return err
		}
		printWarnings(ws)
		fmt.Printf("%s %s -> %s\n", t.CanonicalDate(), t.Detail, args[0])
		return nil
	}),
}

func init() {
	ledgerFilters.register(ledgerListCmd.Flags())
	ledgerFilters.register(ledgerExportCmd.Flags())
	ledgerExportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	ledgerCmd.AddCommand(ledgerListCmd, ledgerExportCmd, setCategoryCmd)
}
