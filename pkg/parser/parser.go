package parser

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliador/pkg/normalize"
)

// Record is one statement row with its amount already signed (positive is
// money in). The date is left as text for the importer to normalize.
type Record struct {
	Row    int
	Date   string
	Detail string
	Amount decimal.Decimal
	Bank   string
}

// Result is the outcome of reading one statement file.
type Result struct {
	File    string
	Format  Format
	Records []Record
}

type Parser struct {
	logger   *log.Logger
	registry *Registry
}

func New(logger *log.Logger, registry *Registry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Parser{
		logger:   logger,
		registry: registry,
	}
}

// ProcessBytes detects the format of a statement and extracts its rows.
func (p *Parser) ProcessBytes(data []byte, filename string) (*Result, error) {
	kind, ok := kindOf(filename)
	if !ok {
		p.logger.Debug("unsupported extension", "filename", filename)
		return nil, ErrUnrecognizedSource
	}
	p.logger.Debug("detected file kind", "kind", kind, "filename", filename)

	switch kind {
	case Spreadsheet:
		return p.parseSpreadsheet(data, filename)
	default:
		return p.parseDelimited(data, filename)
	}
}

// Detect returns the format that would be used for the file.
func (p *Parser) Detect(data []byte, filename string) (Format, error) {
	res, err := p.ProcessBytes(data, filename)
	if err != nil {
		return nil, err
	}
	return res.Format, nil
}

func (p *Parser) parseSpreadsheet(data []byte, filename string) (*Result, error) {
	rows, err := readSheet(data, filename)
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{File: filename, Err: errNoData}
	}

	var format *SpreadsheetFormat
	for _, f := range p.registry.spreadsheets() {
		if f.matches(rows) {
			format = f
			break
		}
	}
	if format == nil {
		return nil, ErrUnrecognizedSource
	}
	p.logger.Debug("matched spreadsheet format", "format", format.Name(), "filename", filename)

	if format.HeaderRow >= len(rows) {
		return nil, &SchemaError{Format: format.Name(), Missing: []string{"header"}}
	}
	cols, err := format.ColumnMap.resolve(format.Name(), rows[format.HeaderRow])
	if err != nil {
		return nil, err
	}

	res := &Result{File: filename, Format: format}
	for i, row := range rows[format.HeaderRow+1:] {
		if blank(row) {
			continue
		}
		rec := Record{
			Row:    format.HeaderRow + i + 2,
			Date:   cell(row, cols.date),
			Detail: cell(row, cols.detail),
			Bank:   bankOf(row, cols, format),
		}
		if format.ColumnMap.signed() {
			rec.Amount = normalize.Number(cell(row, cols.amount))
		} else {
			rec.Amount = normalize.Number(cell(row, cols.credit)).Sub(normalize.Number(cell(row, cols.charge)))
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func (p *Parser) parseDelimited(data []byte, filename string) (*Result, error) {
	rows, err := readDelimited(data)
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{File: filename, Err: errNoData}
	}

	header := rows[0]
	var (
		format *DelimitedFormat
		cols   columns
		first  error
	)
	for _, f := range p.registry.delimited() {
		c, err := f.ColumnMap.resolve(f.Name(), header)
		if err == nil {
			format, cols = f, c
			break
		}
		if first == nil {
			first = err
		}
	}
	if format == nil {
		if first == nil {
			return nil, ErrUnrecognizedSource
		}
		return nil, first
	}
	p.logger.Debug("matched delimited format", "format", format.Name(), "filename", filename)

	res := &Result{File: filename, Format: format}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		res.Records = append(res.Records, Record{
			Row:    i + 2,
			Date:   cell(row, cols.date),
			Detail: cell(row, cols.detail),
			Amount: normalize.Amount(cell(row, cols.amount)),
			Bank:   bankOf(row, cols, format),
		})
	}
	return res, nil
}

func bankOf(row []string, cols columns, f Format) string {
	if b := cell(row, cols.bank); b != "" {
		return b
	}
	return f.Bank()
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
