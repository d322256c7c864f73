// Package csvstore keeps the ledger, the category list and the budget matrix
// as flat CSV files in one directory.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/store"
)

type Options struct {
	Dir            string
	LedgerFile     string
	CategoriesFile string
	BudgetFile     string
	Guard          store.Guard
}

type Store struct {
	ledgerPath     string
	categoriesPath string
	budgetPath     string
	guard          store.Guard
}

var (
	_ store.TabularStore = (*Store)(nil)
	_ store.FileBacked   = (*Store)(nil)
)

func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		ledgerPath:     filepath.Join(opts.Dir, orDefault(opts.LedgerFile, "base_cc_santander.csv")),
		categoriesPath: filepath.Join(opts.Dir, orDefault(opts.CategoriesFile, "categorias.csv")),
		budgetPath:     filepath.Join(opts.Dir, orDefault(opts.BudgetFile, "presupuesto.csv")),
		guard:          opts.Guard,
	}, nil
}

func (s *Store) Files() []store.File {
	return []store.File{
		{Name: filepath.Base(s.ledgerPath), Path: s.ledgerPath},
		{Name: filepath.Base(s.categoriesPath), Path: s.categoriesPath},
		{Name: filepath.Base(s.budgetPath), Path: s.budgetPath},
	}
}

func (s *Store) Close() error { return nil }

// LoadLedger returns store.ErrNotExist when the file is missing and
// store.ErrCorruptLedger when it is empty or lacks required columns.
func (s *Store) LoadLedger(_ context.Context) ([]models.Transaction, error) {
	rows, err := readRows(s.ledgerPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotExist
		}
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptLedger, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", store.ErrCorruptLedger, s.ledgerPath)
	}
	return store.ParseLedgerRows(rows)
}

// SaveLedger replaces the ledger file, refusing implausible shrinks against
// the readable file currently on disk.
func (s *Store) SaveLedger(ctx context.Context, txs []models.Transaction) error {
	if prev, err := s.LoadLedger(ctx); err == nil {
		if err := s.guard.Check(len(prev), len(txs)); err != nil {
			return err
		}
	}
	return writeRows(s.ledgerPath, store.LedgerRows(txs))
}

func (s *Store) LoadCategories(_ context.Context) ([]models.Category, error) {
	rows, err := readRows(s.categoriesPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotExist
		}
		return nil, err
	}
	return store.ParseCategoryRows(rows)
}

func (s *Store) SaveCategories(_ context.Context, cats []models.Category) error {
	return writeRows(s.categoriesPath, store.CategoryRows(cats))
}

func (s *Store) LoadBudget(_ context.Context) (models.BudgetMatrix, error) {
	rows, err := readRows(s.budgetPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotExist
		}
		return nil, err
	}
	return store.ParseBudgetRows(rows)
}

func (s *Store) SaveBudget(_ context.Context, m models.BudgetMatrix) error {
	return writeRows(s.budgetPath, store.BudgetRows(m))
}

func readRows(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// writeRows writes to a temporary file in the same directory and renames it
// over the target, so readers never see a half-written table.
func writeRows(path string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
