package parser

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells which reader a format needs.
type Kind string

const (
	Spreadsheet Kind = "spreadsheet"
	Delimited   Kind = "delimited"
)

// Format describes how to recognize and read one statement layout.
type Format interface {
	Name() string
	Kind() Kind
	Bank() string
	Columns() ColumnMap
}

// SpreadsheetFormat is recognized by a signature string in the first rows of
// the first sheet. The header sits at HeaderRow (0-based).
type SpreadsheetFormat struct {
	FormatName     string
	BankLabel      string
	Signature      string
	HeaderScanRows int
	HeaderRow      int
	ColumnMap      ColumnMap
}

func (f *SpreadsheetFormat) Name() string       { return f.FormatName }
func (f *SpreadsheetFormat) Kind() Kind         { return Spreadsheet }
func (f *SpreadsheetFormat) Bank() string       { return f.BankLabel }
func (f *SpreadsheetFormat) Columns() ColumnMap { return f.ColumnMap }

// matches checks the signature against the flattened header-scan rows. A
// format without a signature matches any sheet whose header resolves.
func (f *SpreadsheetFormat) matches(rows [][]string) bool {
	if f.Signature == "" {
		if f.HeaderRow >= len(rows) {
			return false
		}
		_, err := f.ColumnMap.resolve(f.FormatName, rows[f.HeaderRow])
		return err == nil
	}
	n := f.HeaderScanRows
	if n > len(rows) {
		n = len(rows)
	}
	var sb strings.Builder
	for _, row := range rows[:n] {
		sb.WriteString(strings.Join(row, " "))
		sb.WriteByte('\n')
	}
	return strings.Contains(sb.String(), f.Signature)
}

// DelimitedFormat is recognized by its header: the first delimited format
// whose required columns all resolve wins.
type DelimitedFormat struct {
	FormatName string
	BankLabel  string
	ColumnMap  ColumnMap
}

func (f *DelimitedFormat) Name() string       { return f.FormatName }
func (f *DelimitedFormat) Kind() Kind         { return Delimited }
func (f *DelimitedFormat) Bank() string       { return f.BankLabel }
func (f *DelimitedFormat) Columns() ColumnMap { return f.ColumnMap }

// Registry is the ordered set of known formats.
type Registry struct {
	formats []Format
}

func NewRegistry(formats ...Format) *Registry {
	return &Registry{formats: formats}
}

func (r *Registry) Formats() []Format {
	return r.formats
}

// Register appends formats; earlier registrations win detection ties.
func (r *Registry) Register(formats ...Format) {
	r.formats = append(r.formats, formats...)
}

func (r *Registry) spreadsheets() []*SpreadsheetFormat {
	var out []*SpreadsheetFormat
	for _, f := range r.formats {
		if sf, ok := f.(*SpreadsheetFormat); ok {
			out = append(out, sf)
		}
	}
	return out
}

func (r *Registry) delimited() []*DelimitedFormat {
	var out []*DelimitedFormat
	for _, f := range r.formats {
		if df, ok := f.(*DelimitedFormat); ok {
			out = append(out, df)
		}
	}
	return out
}

//go:embed formats.yaml
var defaultFormats []byte

// DefaultRegistry returns the built-in formats.
func DefaultRegistry() *Registry {
	r, err := ParseRegistry(defaultFormats)
	if err != nil {
		panic(fmt.Sprintf("built-in formats: %v", err))
	}
	return r
}

// LoadRegistry returns the built-in formats preceded by the ones in path, so
// user formats take priority. An empty path yields the defaults.
func LoadRegistry(path string) (*Registry, error) {
	r := DefaultRegistry()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formats file: %w", err)
	}
	user, err := ParseRegistry(data)
	if err != nil {
		return nil, err
	}
	return NewRegistry(append(user.formats, r.formats...)...), nil
}

type formatFile struct {
	Formats []formatSpec `yaml:"formats"`
}

type formatSpec struct {
	Name           string    `yaml:"name"`
	Kind           Kind      `yaml:"kind"`
	Bank           string    `yaml:"bank"`
	Signature      string    `yaml:"signature"`
	HeaderScanRows int       `yaml:"header_scan_rows"`
	HeaderRow      int       `yaml:"header_row"`
	Columns        ColumnMap `yaml:"columns"`
}

// ParseRegistry decodes a YAML format list.
func ParseRegistry(data []byte) (*Registry, error) {
	var ff formatFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse formats yaml: %w", err)
	}
	r := NewRegistry()
	for i, spec := range ff.Formats {
		f, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("format %d: %w", i, err)
		}
		r.Register(f)
	}
	return r, nil
}

func (s formatSpec) build() (Format, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(s.Columns.Date) == 0 || len(s.Columns.Detail) == 0 {
		return nil, fmt.Errorf("%s: date and detail columns are required", s.Name)
	}
	if !s.Columns.signed() && (len(s.Columns.Charge) == 0 || len(s.Columns.Credit) == 0) {
		return nil, fmt.Errorf("%s: either amount or charge and credit columns are required", s.Name)
	}
	switch s.Kind {
	case Spreadsheet:
		scan := s.HeaderScanRows
		if scan <= 0 {
			scan = 5
		}
		return &SpreadsheetFormat{
			FormatName:     s.Name,
			BankLabel:      s.Bank,
			Signature:      s.Signature,
			HeaderScanRows: scan,
			HeaderRow:      s.HeaderRow,
			ColumnMap:      s.Columns,
		}, nil
	case Delimited:
		return &DelimitedFormat{FormatName: s.Name, BankLabel: s.Bank, ColumnMap: s.Columns}, nil
	default:
		return nil, fmt.Errorf("%s: unknown kind %q", s.Name, s.Kind)
	}
}
