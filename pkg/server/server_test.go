package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/config"
	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/parser"
	"github.com/yurifrl/conciliador/pkg/service"
	"github.com/yurifrl/conciliador/pkg/store"
	"github.com/yurifrl/conciliador/pkg/store/csvstore"
)

const statement = "Fecha,Detalle,Monto\n10/03/2025,Jumbo,-45000\n12/03/2025,Uber,-3500\n26/03/2025,Sueldo,1500000\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard)
	st, err := csvstore.New(csvstore.Options{Dir: t.TempDir(), Guard: store.Guard{Ratio: 0.5, MinRows: 20}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Budget: config.BudgetConfig{HorizonMonths: 12, StartYear: 2025}}
	p := service.NewProcessor(cfg, logger, importer.New(logger, parser.New(logger, nil)), st, nil)
	s := New(logger, p, Options{})
	s.now = func() time.Time { return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, target string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("statement", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func importStatement(t *testing.T, s *Server) {
	t.Helper()
	rec := do(t, s, uploadRequest(t, "/api/import", map[string]string{"march.csv": statement}))
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestImport(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, uploadRequest(t, "/api/import?dry_run=true", map[string]string{"march.csv": statement}))
	if rec.Code != http.StatusOK {
		t.Fatalf("dry run: status %d body %s", rec.Code, rec.Body.String())
	}
	var dry struct {
		ToAdd int  `json:"to_add"`
		Saved bool `json:"saved"`
	}
	decode(t, rec, &dry)
	if dry.ToAdd != 3 || dry.Saved {
		t.Errorf("dry run: to_add=%d saved=%v", dry.ToAdd, dry.Saved)
	}

	rec = do(t, s, uploadRequest(t, "/api/import", map[string]string{"march.csv": statement}))
	var first struct {
		ToAdd   int `json:"to_add"`
		Batches []struct {
			Format string `json:"format"`
			Rows   int    `json:"rows"`
		} `json:"batches"`
		Saved bool `json:"saved"`
	}
	decode(t, rec, &first)
	if !first.Saved || first.ToAdd != 3 {
		t.Errorf("import: to_add=%d saved=%v", first.ToAdd, first.Saved)
	}
	if len(first.Batches) != 1 || first.Batches[0].Rows != 3 {
		t.Errorf("batches = %+v", first.Batches)
	}

	rec = do(t, s, uploadRequest(t, "/api/import", map[string]string{"march.csv": statement}))
	var again struct {
		ToAdd  int  `json:"to_add"`
		InSync int  `json:"in_sync"`
		Saved  bool `json:"saved"`
	}
	decode(t, rec, &again)
	if again.ToAdd != 0 || again.InSync != 3 || again.Saved {
		t.Errorf("reimport: %+v", again)
	}
}

func TestImportErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{
			name: "no file",
			req:  httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("")),
			want: http.StatusBadRequest,
		},
		{
			name: "unrecognized source",
			req:  uploadRequest(t, "/api/import", map[string]string{"notes.csv": "foo,bar\n1,2\n"}),
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			var body map[string]any
			decode(t, rec, &body)
			if body["status"] != "error" {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestLedger(t *testing.T) {
	s := newTestServer(t)
	importStatement(t, s)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/ledger?status=pending&max=0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Count        int           `json:"count"`
		Transactions []Transaction `json:"transactions"`
	}
	decode(t, rec, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2 expenses", body.Count)
	}
	if tx := body.Transactions[0]; tx.Date != "10-03-2025" || tx.Period != "2025-03" || tx.Status != "Pending" {
		t.Errorf("first = %+v", tx)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/ledger?format=csv&detail=uber", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("csv: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "Uber") {
		t.Errorf("csv = %q", rec.Body.String())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/ledger?period=march", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad period: status %d", rec.Code)
	}
}

func TestSaveLedgerRefusesEmpty(t *testing.T) {
	s := newTestServer(t)
	importStatement(t, s)

	rec := do(t, s, jsonRequest(t, http.MethodPut, "/api/ledger", map[string]any{"transactions": []Transaction{}}))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 (%s)", rec.Code, rec.Body.String())
	}
}

func TestSetCategory(t *testing.T) {
	s := newTestServer(t)
	importStatement(t, s)

	tests := []struct {
		name     string
		category string
		key      Key
		want     int
	}{
		{"known category", "Transporte", Key{Date: "12/03/2025", Detail: "Uber"}, http.StatusOK},
		{"unknown category", "Viajes", Key{Date: "12/03/2025", Detail: "Uber"}, http.StatusBadRequest},
		{"unknown transaction", "Transporte", Key{Date: "01/01/2024", Detail: "Nada"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.key.Amount = mustAmount(t, "-3500")
			req := jsonRequest(t, http.MethodPatch, "/api/ledger/category", map[string]any{
				"category": tt.category,
				"keys":     []Key{tt.key},
			})
			rec := do(t, s, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/ledger?category=Transporte", nil))
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	decode(t, rec, &body)
	if len(body.Transactions) != 1 || body.Transactions[0].Status != "Reconciled" {
		t.Errorf("transactions = %+v", body.Transactions)
	}
}

func TestCategoriesAndBudget(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	var cats struct {
		Categories []map[string]string `json:"categories"`
	}
	decode(t, rec, &cats)
	if len(cats.Categories) == 0 {
		t.Fatal("expected default categories")
	}

	rec = do(t, s, jsonRequest(t, http.MethodPut, "/api/categories", map[string]any{
		"categories": []map[string]string{
			{"name": "Sueldo", "type": "Ingreso"},
			{"name": "Transporte", "type": "Gasto Variable"},
		},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("save categories: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, jsonRequest(t, http.MethodPut, "/api/categories", map[string]any{
		"categories": []map[string]string{{"name": "  "}},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: status %d", rec.Code)
	}

	rec = do(t, s, jsonRequest(t, http.MethodPut, "/api/budget/entry", map[string]any{
		"category": "Transporte", "period": "2025-03", "planned": "-10000",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("set planned: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, jsonRequest(t, http.MethodPut, "/api/budget/entry", map[string]any{
		"category": "Viajes", "period": "2025-03", "planned": "1",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: status %d", rec.Code)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/budget", nil))
	var b struct {
		Entries []struct {
			Category string `json:"category"`
			Period   string `json:"period"`
			Planned  string `json:"planned"`
		} `json:"entries"`
		Periods []string `json:"periods"`
	}
	decode(t, rec, &b)
	if len(b.Periods) != 12 || b.Periods[0] != "2025-01" {
		t.Errorf("periods = %v", b.Periods)
	}
	if len(b.Entries) != 24 {
		t.Errorf("entries = %d, want 24", len(b.Entries))
	}
	found := false
	for _, e := range b.Entries {
		if e.Category == "Transporte" && e.Period == "2025-03" {
			found = e.Planned == "-10000"
		}
	}
	if !found {
		t.Error("planned amount for Transporte 2025-03 not returned")
	}
}

func TestCompareAndBalances(t *testing.T) {
	s := newTestServer(t)
	importStatement(t, s)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/compare", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("compare: status %d body %s", rec.Code, rec.Body.String())
	}
	var cmp struct {
		Table struct {
			Period string `json:"period"`
			Totals struct {
				PendingReal string `json:"pending_real"`
			} `json:"totals"`
		} `json:"table"`
	}
	decode(t, rec, &cmp)
	if cmp.Table.Period != "2025-03" {
		t.Errorf("period = %q", cmp.Table.Period)
	}
	if cmp.Table.Totals.PendingReal == "" || cmp.Table.Totals.PendingReal == "0" {
		t.Errorf("pending_real = %q", cmp.Table.Totals.PendingReal)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/balances?from=2025-02&to=2025-03", nil))
	var bal struct {
		Balances []struct {
			Period string `json:"period"`
		} `json:"balances"`
	}
	decode(t, rec, &bal)
	if len(bal.Balances) != 2 || bal.Balances[1].Period != "2025-03" {
		t.Errorf("balances = %+v", bal.Balances)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/balances?from=2025-04&to=2025-03", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reversed range: status %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{parser.ErrUnrecognizedSource, http.StatusUnprocessableEntity},
		{service.ErrUnknownCategory, http.StatusBadRequest},
		{service.ErrTransactionNotFound, http.StatusNotFound},
		{store.ErrImplausibleShrink, http.StatusConflict},
		{store.ErrCorruptLedger, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
