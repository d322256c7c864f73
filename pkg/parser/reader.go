package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

const maxSheetRows = 100000

var delimiters = []rune{',', ';', '\t', '|'}

func kindOf(filename string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls", ".xlsx", ".xlsm":
		return Spreadsheet, true
	case ".csv", ".txt", ".tsv":
		return Delimited, true
	}
	return "", false
}

// Supported reports whether filename has a statement extension.
func Supported(filename string) bool {
	_, ok := kindOf(filename)
	return ok
}

// readSheet returns the cells of the first worksheet. Numeric cells keep
// their raw machine representation so amounts and date serials are not
// reformatted by the workbook's display locale.
func readSheet(data []byte, filename string) ([][]string, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".xls" {
		wb, err := xls.OpenReader(bytes.NewReader(data), "cp1252")
		if err != nil {
			return nil, fmt.Errorf("error creating workbook: %w", err)
		}
		return wb.ReadAllCells(maxSheetRows), nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// readDelimited decodes the text (stripping a BOM, falling back to
// Windows-1252 for non UTF-8 input) and splits it with the sniffed delimiter.
func readDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("error decoding text: %w", err)
		}
		data = decoded
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty file")
	}

	r := newCSVReader(data, sniffDelimiter(data))
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func newCSVReader(data []byte, comma rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r
}

// sniffDelimiter picks the candidate that splits the first line into the
// most fields while keeping the field count stable over the sample.
func sniffDelimiter(data []byte) rune {
	best, bestFields, bestStable := ',', 1, -1
	for _, d := range delimiters {
		r := newCSVReader(data, d)
		header, err := r.Read()
		if err != nil || len(header) < 2 {
			continue
		}
		stable := 0
		for i := 0; i < 10; i++ {
			rec, err := r.Read()
			if err != nil {
				break
			}
			if len(rec) == len(header) {
				stable++
			}
		}
		if stable > bestStable || (stable == bestStable && len(header) > bestFields) {
			best, bestFields, bestStable = d, len(header), stable
		}
	}
	return best
}
