// Package sheetstore keeps the ledger, categories and budget as tabs of a
// Google spreadsheet.
package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/store"
)

type Options struct {
	SpreadsheetID   string
	CredentialsFile string
	LedgerSheet     string
	CategoriesSheet string
	BudgetSheet     string
	Guard           store.Guard
}

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledger        string
	categories    string
	budget        string
	guard         store.Guard
	logger        *log.Logger
}

var _ store.TabularStore = (*Store)(nil)

// New authenticates with a service account file when one is given and falls
// back to application default credentials otherwise.
func New(ctx context.Context, logger *log.Logger, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, goption.WithCredentialsFile(opts.CredentialsFile))
	}
	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		ledger:        orDefault(opts.LedgerSheet, "Base"),
		categories:    orDefault(opts.CategoriesSheet, "Categorias"),
		budget:        orDefault(opts.BudgetSheet, "Presupuesto"),
		guard:         opts.Guard,
		logger:        logger,
	}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) LoadLedger(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.read(ctx, s.ledger)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotExist
	}
	return store.ParseLedgerRows(rows)
}

func (s *Store) SaveLedger(ctx context.Context, txs []models.Transaction) error {
	if prev, err := s.LoadLedger(ctx); err == nil {
		if err := s.guard.Check(len(prev), len(txs)); err != nil {
			return err
		}
	}
	return s.write(ctx, s.ledger, store.LedgerRows(txs))
}

func (s *Store) LoadCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.read(ctx, s.categories)
	if err != nil {
		return nil, err
	}
	cats, err := store.ParseCategoryRows(rows)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, store.ErrNotExist
	}
	return cats, nil
}

func (s *Store) SaveCategories(ctx context.Context, cats []models.Category) error {
	return s.write(ctx, s.categories, store.CategoryRows(cats))
}

func (s *Store) LoadBudget(ctx context.Context) (models.BudgetMatrix, error) {
	rows, err := s.read(ctx, s.budget)
	if err != nil {
		return nil, err
	}
	return store.ParseBudgetRows(rows)
}

func (s *Store) SaveBudget(ctx context.Context, m models.BudgetMatrix) error {
	return s.write(ctx, s.budget, store.BudgetRows(m))
}

func (s *Store) read(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		if missingRange(err) {
			return nil, store.ErrNotExist
		}
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return toStrings(resp.Values), nil
}

// write clears the tab and rewrites it from A1. The tab is created first
// when the spreadsheet does not have it yet.
func (s *Store) write(ctx context.Context, sheet string, rows [][]string) error {
	if err := s.ensureSheet(ctx, sheet); err != nil {
		return err
	}
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", sheet, err)
	}
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %q: %w", sheet, err)
	}
	s.logger.Debug("sheet replaced", "sheet", sheet, "rows", len(rows))
	return nil
}

func (s *Store) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheet {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	s.logger.Info("created sheet", "sheet", sheet)
	return nil
}

func missingRange(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusNotFound ||
		(gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range"))
}

func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		out := make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case nil:
			case string:
				out[j] = x
			case float64:
				out[j] = strconv.FormatFloat(x, 'f', -1, 64)
			case bool:
				out[j] = strconv.FormatBool(x)
			default:
				out[j] = fmt.Sprint(x)
			}
		}
		rows[i] = out
	}
	return rows
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		out := make([]interface{}, len(row))
		for j, c := range row {
			out[j] = c
		}
		values[i] = out
	}
	return values
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
