package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/yurifrl/conciliador/pkg/backend"
	"github.com/yurifrl/conciliador/pkg/config"
	"github.com/yurifrl/conciliador/pkg/server"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "conciliador",
	})

	flags := pflag.NewFlagSet("conciliador-server", pflag.ExitOnError)
	cfgFile := flags.StringP("config", "c", "", "Config file (default is config.yaml)")
	flags.String("addr", "", "Listen address (default 0.0.0.0:3000)")
	flags.String("data-dir", "", "Directory of the csv store")
	flags.String("backend", "", "Data backend: csv, sqlite, postgres or sheets")
	flags.String("formats", "", "YAML file with extra statement formats")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("backup", "", "Backup target: none, local or gcs")
	origins := flags.StringSlice("allow-origin", nil, "CORS allowed origin (repeatable)")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.LogLevel())

	ctx := context.Background()
	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend", "err", err)
	}
	defer b.Close()

	processor, err := b.Processor(cfg, logger)
	if err != nil {
		logger.Fatal("failed to load statement formats", "err", err)
	}
	if _, err := processor.EnsureLedger(ctx, false); err != nil {
		logger.Fatal("ledger unavailable", "err", err)
	}

	srv := server.New(logger, processor, server.Options{AllowOrigins: *origins})
	logger.Info("starting server", "addr", cfg.Server.Addr, "backend", cfg.Data.Backend)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
