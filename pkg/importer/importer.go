package importer

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/parser"
)

// File is one uploaded or on-disk statement.
type File struct {
	Name string
	Data []byte
}

// Batch is the normalized content of one statement file.
type Batch struct {
	ID           string
	File         string
	Format       string
	Transactions []models.Transaction
	// Skipped counts rows dropped because their date could not be parsed.
	Skipped int
}

// Importer turns raw statement bytes into pending ledger transactions. It is
// decoupled from CLI and HTTP details so both layers share it.
type Importer struct {
	logger *log.Logger
	parser *parser.Parser
}

func New(logger *log.Logger, p *parser.Parser) *Importer {
	return &Importer{logger: logger, parser: p}
}

// Import detects the format, extracts the rows, normalizes dates and tags
// every transaction with the format's bank and the Pending category.
func (i *Importer) Import(f File) (*Batch, error) {
	res, err := i.parser.ProcessBytes(f.Data, f.Name)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		ID:     uuid.NewString(),
		File:   f.Name,
		Format: res.Format.Name(),
	}
	for _, rec := range res.Records {
		date, ok := normalize.Date(rec.Date)
		if !ok {
			b.Skipped++
			i.logger.Debug("skipping row with unparsable date", "file", f.Name, "row", rec.Row, "date", rec.Date)
			continue
		}
		b.Transactions = append(b.Transactions, models.Transaction{
			Date:     date,
			Detail:   strings.TrimSpace(rec.Detail),
			Amount:   rec.Amount,
			Bank:     rec.Bank,
			Category: models.PendingCategory,
		})
	}

	i.logger.Info("imported statement", "file", f.Name, "format", b.Format, "rows", len(b.Transactions), "skipped", b.Skipped, "batch", b.ID)
	return b, nil
}
