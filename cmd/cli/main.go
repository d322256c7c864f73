package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliador/pkg/backend"
	"github.com/yurifrl/conciliador/pkg/config"
	"github.com/yurifrl/conciliador/pkg/service"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "conciliador",
	Short:         "Import bank statements and reconcile them against a budget",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// session is everything one command needs. It is opened per command and the
// ledger is checked, and restored from backup at most once, before use.
type session struct {
	cfg       *config.Config
	logger    *log.Logger
	backend   *backend.Backend
	processor *service.Processor
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "conciliador",
		Level:           cfg.LogLevel(),
	})

	ctx := cmd.Context()
	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	p, err := b.Processor(cfg, logger)
	if err != nil {
		b.Close()
		return nil, err
	}
	if _, err := p.EnsureLedger(ctx, false); err != nil {
		b.Close()
		return nil, fmt.Errorf("ledger unavailable: %w", err)
	}
	return &session{cfg: cfg, logger: logger, backend: b, processor: p}, nil
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("failed to close backend", "error", err)
	}
}

// run opens a session, hands it to fn and closes it afterwards.
func run(fn func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd.Context(), s, cmd, args)
	}
}

func printWarnings(ws []service.Warning) {
	for _, w := range ws {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w.Error()))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	flags.String("data-dir", "", "Directory of the csv store")
	flags.String("backend", "", "Data backend: csv, sqlite, postgres or sheets")
	flags.String("formats", "", "YAML file with extra statement formats")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("backup", "", "Backup target: none, local or gcs")

	rootCmd.AddCommand(importCmd, planCmd, applyCmd, detectCmd)
	rootCmd.AddCommand(ledgerCmd, categoriesCmd, budgetCmd, compareCmd, balancesCmd)
	rootCmd.AddCommand(repairDatesCmd, backupCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
