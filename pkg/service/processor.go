// Package service runs every user action against the tabular store: it
// reads the full state, computes, and writes a full replacement. It holds no
// lock; callers serialize concurrent sessions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliador/pkg/blob"
	"github.com/yurifrl/conciliador/pkg/categories"
	"github.com/yurifrl/conciliador/pkg/config"
	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/store"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found in ledger")
	ErrUnknownCategory     = errors.New("category is not registered")
)

// Warning is a non-fatal problem that happened after the local write
// succeeded, such as a failed backup.
type Warning struct {
	Op  string
	Err error
}

func (w Warning) Error() string { return fmt.Sprintf("%s: %v", w.Op, w.Err) }

func (w Warning) Unwrap() error { return w.Err }

type Processor struct {
	config   *config.Config
	logger   *log.Logger
	importer *importer.Importer
	store    store.TabularStore
	backup   blob.Store
	now      func() time.Time
}

// NewProcessor wires the processor. backup may be nil when off-device
// backups are disabled.
func NewProcessor(cfg *config.Config, logger *log.Logger, imp *importer.Importer, st store.TabularStore, backup blob.Store) *Processor {
	return &Processor{
		config:   cfg,
		logger:   logger,
		importer: imp,
		store:    st,
		backup:   backup,
		now:      time.Now,
	}
}

func (p *Processor) horizon() []period.Period {
	return p.config.Horizon(p.now())
}

// loadLedger treats a ledger that was never saved as empty. A corrupt ledger
// is returned as an error; see EnsureLedger for the restore path.
func (p *Processor) loadLedger(ctx context.Context) ([]models.Transaction, error) {
	txs, err := p.store.LoadLedger(ctx)
	if errors.Is(err, store.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return txs, nil
}

func (p *Processor) registry(ctx context.Context) (*categories.Registry, error) {
	cats, err := p.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return categories.New(cats)
}

func (p *Processor) loadBudget(ctx context.Context) (models.BudgetMatrix, error) {
	m, err := p.store.LoadBudget(ctx)
	if errors.Is(err, store.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}
	return m, nil
}
