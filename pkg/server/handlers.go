package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/csv"
	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/service"
)

// Transaction is the JSON form of a ledger row.
type Transaction struct {
	Date     string          `json:"date"`
	Detail   string          `json:"detail"`
	Amount   decimal.Decimal `json:"amount"`
	Bank     string          `json:"bank"`
	Category string          `json:"category"`
	Status   models.Status   `json:"status,omitempty"`
	Period   string          `json:"period,omitempty"`
}

func toJSON(t models.Transaction) Transaction {
	out := Transaction{
		Date:     t.CanonicalDate(),
		Detail:   t.Detail,
		Amount:   t.Amount,
		Bank:     t.Bank,
		Category: t.Category,
		Status:   t.Status(),
	}
	if p, ok := t.Period(); ok {
		out.Period = p.String()
	}
	return out
}

func (t Transaction) model() models.Transaction {
	m := models.Transaction{
		Detail:   strings.TrimSpace(t.Detail),
		Amount:   t.Amount,
		Bank:     strings.TrimSpace(t.Bank),
		Category: strings.TrimSpace(t.Category),
	}
	if d, ok := normalize.Date(t.Date); ok {
		m.Date = d
	} else {
		m.RawDate = t.Date
	}
	if m.Category == "" {
		m.Category = models.PendingCategory
	}
	return m
}

type Key struct {
	Date   string          `json:"date"`
	Detail string          `json:"detail"`
	Amount decimal.Decimal `json:"amount"`
}

func (k Key) model() models.Key {
	return Transaction{Date: k.Date, Detail: k.Detail, Amount: k.Amount}.model().Key()
}

type importEntry struct {
	Source string      `json:"source"`
	Status string      `json:"status"`
	Tx     Transaction `json:"transaction"`
}

type importBatch struct {
	ID      string `json:"id"`
	File    string `json:"file"`
	Format  string `json:"format"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

func (s *Server) handleImport(c *gin.Context) {
	uploads, err := readUpload(c, "statement")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "failed to read file", err)
		return
	}
	files := make([]importer.File, len(uploads))
	for i, u := range uploads {
		files[i] = importer.File{Name: u.name, Data: u.data}
	}
	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))

	res, err := s.processor.Import(c.Request.Context(), files, service.ImportOptions{
		DryRun:           dryRun,
		SkipUnrecognized: len(files) > 1,
	})
	if err != nil {
		s.fail(c, "failed to process file", err)
		return
	}

	batches := make([]importBatch, len(res.Batches))
	for i, b := range res.Batches {
		batches[i] = importBatch{ID: b.ID, File: b.File, Format: b.Format, Rows: len(b.Transactions), Skipped: b.Skipped}
	}
	items := make([]importEntry, len(res.Report.Items))
	for i, e := range res.Report.Items {
		items[i] = importEntry{Source: e.Source, Status: e.Status.String(), Tx: toJSON(e.Transaction)}
	}
	failures := make([]gin.H, len(res.Failures))
	for i, f := range res.Failures {
		failures[i] = gin.H{"file": f.File, "error": f.Err.Error()}
	}
	s.logger.Info("import complete", "files", len(files), "to_add", res.Report.MissingCount(), "in_sync", res.Report.InSyncCount(), "saved", res.Saved)

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"batches":  batches,
		"items":    items,
		"to_add":   res.Report.MissingCount(),
		"in_sync":  res.Report.InSyncCount(),
		"saved":    res.Saved,
		"failures": failures,
		"warnings": warnings(res.Warnings),
	})
}

func (s *Server) ledgerFilter(c *gin.Context) (csv.Filter, error) {
	var f csv.Filter
	var err error
	if f.Period, err = s.periodParam(c, "period", period.Period{}); err != nil {
		return f, err
	}
	switch strings.ToLower(c.Query("status")) {
	case "":
	case "pending":
		f.Status = models.StatusPending
	case "reconciled":
		f.Status = models.StatusReconciled
	}
	f.Category = c.Query("category")
	f.Detail = c.Query("detail")
	for name, dst := range map[string]**decimal.Decimal{"min": &f.MinAmount, "max": &f.MaxAmount} {
		if v := c.Query(name); v != "" {
			d, err := normalize.AmountStrict(v)
			if err != nil {
				return f, err
			}
			*dst = &d
		}
	}
	return f, nil
}

func (s *Server) handleLedger(c *gin.Context) {
	filter, err := s.ledgerFilter(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid filter", err)
		return
	}
	ledger, err := s.processor.Ledger(c.Request.Context())
	if err != nil {
		s.fail(c, "failed to load ledger", err)
		return
	}

	if c.Query("format") == "csv" {
		out, err := csv.Ledger(ledger, filter)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "failed to render csv", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)
		c.Data(http.StatusOK, "text/csv", out)
		return
	}

	rows := filter.Apply(ledger)
	out := make([]Transaction, len(rows))
	for i, t := range rows {
		out[i] = toJSON(t)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "transactions": out, "count": len(out)})
}

func (s *Server) handleSaveLedger(c *gin.Context) {
	var req struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	txs := make([]models.Transaction, len(req.Transactions))
	for i, t := range req.Transactions {
		txs[i] = t.model()
	}
	ws, err := s.processor.SaveLedger(c.Request.Context(), txs)
	if err != nil {
		s.fail(c, "failed to save ledger", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "warnings": warnings(ws)})
}

func (s *Server) handleSetCategory(c *gin.Context) {
	var req struct {
		Category string `json:"category"`
		Keys     []Key  `json:"keys"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	keys := make([]models.Key, len(req.Keys))
	for i, k := range req.Keys {
		keys[i] = k.model()
	}
	ws, err := s.processor.SetCategory(c.Request.Context(), req.Category, keys...)
	if err != nil {
		s.fail(c, "failed to set category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "updated": len(keys), "warnings": warnings(ws)})
}

func (s *Server) handleCategories(c *gin.Context) {
	cats, err := s.processor.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, "failed to load categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "categories": cats})
}

func (s *Server) handleSaveCategories(c *gin.Context) {
	var req struct {
		Categories []models.Category `json:"categories"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	ws, err := s.processor.SaveCategories(c.Request.Context(), req.Categories)
	if err != nil {
		s.fail(c, "failed to save categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "warnings": warnings(ws)})
}

func (s *Server) handleBudget(c *gin.Context) {
	m, err := s.processor.Budget(c.Request.Context())
	if err != nil {
		s.fail(c, "failed to load budget", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "entries": m, "periods": m.Periods()})
}

func (s *Server) handleSetPlanned(c *gin.Context) {
	var req models.BudgetEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Period.IsZero() {
		s.respondError(c, http.StatusBadRequest, "period is required", nil)
		return
	}
	ws, err := s.processor.SetPlanned(c.Request.Context(), req.Category, req.Period, req.Planned)
	if err != nil {
		s.fail(c, "failed to set planned amount", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "warnings": warnings(ws)})
}

func (s *Server) handleCompare(c *gin.Context) {
	p, err := s.periodParam(c, "period", period.Current(s.now()))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid period", err)
		return
	}
	table, err := s.processor.Compare(c.Request.Context(), p)
	if err != nil {
		s.fail(c, "failed to compare", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "table": table})
}

func (s *Server) handleBalances(c *gin.Context) {
	current := period.Current(s.now())
	from, err := s.periodParam(c, "from", period.Period{Year: current.Year, Month: time.January})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid from period", err)
		return
	}
	to, err := s.periodParam(c, "to", current)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid to period", err)
		return
	}
	if to.Before(from) {
		s.respondError(c, http.StatusBadRequest, "invalid range", nil)
		return
	}
	balances, err := s.processor.Running(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, "failed to compute balances", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "balances": balances})
}
