// Package backend builds the tabular store, the backup target and the
// processor from the loaded configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliador/pkg/blob"
	"github.com/yurifrl/conciliador/pkg/blob/gcs"
	"github.com/yurifrl/conciliador/pkg/blob/local"
	"github.com/yurifrl/conciliador/pkg/config"
	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/parser"
	"github.com/yurifrl/conciliador/pkg/service"
	"github.com/yurifrl/conciliador/pkg/store"
	"github.com/yurifrl/conciliador/pkg/store/csvstore"
	"github.com/yurifrl/conciliador/pkg/store/sheetstore"
	"github.com/yurifrl/conciliador/pkg/store/sqlstore"
)

var ErrUnknownBackend = errors.New("unknown backend")

type Backend struct {
	Store  store.TabularStore
	Backup blob.Store

	cleanup []func() error
}

// Open creates the store named by data.backend and the backup target named by
// backup.backend. Callers must Close the result.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	b := &Backend{Store: st, cleanup: []func() error{st.Close}}

	switch cfg.Backup.Backend {
	case "", "none":
	case "local":
		dir, err := local.New(cfg.Backup.Dir)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to initialize local backup: %w", err)
		}
		b.Backup = dir
	case "gcs":
		bucket, err := gcs.New(ctx, cfg.Backup.Bucket, cfg.Backup.Prefix)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to initialize gcs backup: %w", err)
		}
		b.Backup = bucket
		b.cleanup = append(b.cleanup, bucket.Close)
	default:
		b.Close()
		return nil, fmt.Errorf("%w: backup %q", ErrUnknownBackend, cfg.Backup.Backend)
	}

	logger.Debug("initialized backend", "data", cfg.Data.Backend, "backup", cfg.Backup.Backend)
	return b, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.TabularStore, error) {
	switch cfg.Data.Backend {
	case "", "csv":
		st, err := csvstore.New(csvstore.Options{
			Dir:            cfg.Data.Dir,
			LedgerFile:     cfg.Data.LedgerFile,
			CategoriesFile: cfg.Data.CategoriesFile,
			BudgetFile:     cfg.Data.BudgetFile,
			Guard:          cfg.Guard(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize csv store: %w", err)
		}
		return st, nil
	case "sqlite":
		st, err := sqlstore.Open(ctx, logger, sqlstore.SQLite, cfg.Data.SQLitePath, cfg.Guard())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := sqlstore.Open(ctx, logger, sqlstore.Postgres, cfg.Data.PostgresURL, cfg.Guard())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return st, nil
	case "sheets":
		st, err := sheetstore.New(ctx, logger, sheetstore.Options{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			Guard:           cfg.Guard(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sheets store: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("%w: data %q", ErrUnknownBackend, cfg.Data.Backend)
}

// Close releases everything Open acquired, in reverse order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.cleanup) - 1; i >= 0; i-- {
		if err := b.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.cleanup = nil
	return errors.Join(errs...)
}

// Processor wires the statement formats from formats.file into a processor
// running against this backend.
func (b *Backend) Processor(cfg *config.Config, logger *log.Logger) (*service.Processor, error) {
	registry, err := parser.LoadRegistry(cfg.Formats.File)
	if err != nil {
		return nil, err
	}
	imp := importer.New(logger, parser.New(logger, registry))
	return service.NewProcessor(cfg, logger, imp, b.Store, b.Backup), nil
}
