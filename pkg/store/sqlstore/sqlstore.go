// Package sqlstore persists the ledger, categories and budget in SQLite or
// PostgreSQL. Each save replaces a whole table inside one transaction.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/store"
)

var ErrUnknownDialect = errors.New("unknown sql dialect")

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string { return string(d) }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	guard   store.Guard
	logger  *log.Logger
}

var _ store.TabularStore = (*Store)(nil)

// Open connects, pings and migrates. For SQLite the dsn is a file path.
func Open(ctx context.Context, logger *log.Logger, dialect Dialect, dsn string, guard store.Guard) (*Store, error) {
	switch dialect {
	case SQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	case Postgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("database ready", "dialect", dialect)
	return &Store{db: db, dialect: dialect, guard: guard, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadLedger returns an empty ledger when the table has no rows.
func (s *Store) LoadLedger(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fecha, detalle, monto, banco, categoria FROM ledger ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptLedger, err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var fecha, monto string
		var t models.Transaction
		if err := rows.Scan(&fecha, &t.Detail, &monto, &t.Bank, &t.Category); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrCorruptLedger, err)
		}
		t.Amount = normalize.Number(monto)
		if d, ok := normalize.Date(fecha); ok {
			t.Date = d
		} else {
			t.RawDate = fecha
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) SaveLedger(ctx context.Context, txs []models.Transaction) error {
	return s.replace(ctx, "ledger", func(tx *sql.Tx) error {
		var prev int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger`).Scan(&prev); err != nil {
			return fmt.Errorf("count ledger: %w", err)
		}
		if err := s.guard.Check(prev, len(txs)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger`); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			`INSERT INTO ledger (position, fecha, detalle, monto, banco, categoria) VALUES (?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, t := range txs {
			if _, err := stmt.ExecContext(ctx, i, t.CanonicalDate(), t.Detail, t.Amount.String(), t.Bank, t.Category); err != nil {
				return fmt.Errorf("insert ledger row %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadCategories returns store.ErrNotExist when no category was ever saved.
func (s *Store) LoadCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, grouper FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var c models.Category
		var typ string
		if err := rows.Scan(&c.Name, &typ, &c.Grouper); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = models.StoredCategoryType(typ)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, store.ErrNotExist
	}
	return cats, nil
}

func (s *Store) SaveCategories(ctx context.Context, cats []models.Category) error {
	return s.replace(ctx, "categories", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			`INSERT INTO categories (position, name, type, grouper) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, c := range cats {
			if _, err := stmt.ExecContext(ctx, i, c.Name, string(c.Type), c.Grouper); err != nil {
				return fmt.Errorf("insert category %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) LoadBudget(ctx context.Context) (models.BudgetMatrix, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, period, planned FROM budget ORDER BY category, period`)
	if err != nil {
		return nil, fmt.Errorf("query budget: %w", err)
	}
	defer rows.Close()

	var m models.BudgetMatrix
	for rows.Next() {
		var cat, per, planned string
		if err := rows.Scan(&cat, &per, &planned); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		p, err := period.Parse(strings.TrimSpace(per))
		if err != nil {
			s.logger.Warn("skipping budget row", "category", cat, "period", per, "error", err)
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(planned))
		if err != nil {
			amount = normalize.Number(planned)
		}
		m = append(m, models.BudgetEntry{Category: cat, Period: p, Planned: amount})
	}
	return m, rows.Err()
}

func (s *Store) SaveBudget(ctx context.Context, m models.BudgetMatrix) error {
	return s.replace(ctx, "budget", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budget`); err != nil {
			return fmt.Errorf("clear budget: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			`INSERT INTO budget (category, period, planned) VALUES (?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range m {
			if _, err := stmt.ExecContext(ctx, e.Category, e.Period.String(), e.Planned.String()); err != nil {
				return fmt.Errorf("insert budget %s/%s: %w", e.Category, e.Period, err)
			}
		}
		return nil
	})
}

func (s *Store) replace(ctx context.Context, table string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", table, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	s.logger.Debug("table replaced", "table", table)
	return nil
}
