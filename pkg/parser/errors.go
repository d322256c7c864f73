package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedSource means no registered format claims the file.
	ErrUnrecognizedSource = errors.New("unrecognized statement source")
	// ErrSchemaMismatch means the format matched but required columns are missing.
	ErrSchemaMismatch = errors.New("statement schema mismatch")
	// ErrParse covers unreadable or structurally broken files.
	ErrParse = errors.New("statement parse error")

	errNoData = errors.New("no data found")
)

// ParseError carries the file and, when known, the row that failed.
type ParseError struct {
	File string
	Row  int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("parse %s row %d: %v", e.File, e.Row, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// SchemaError lists the logical fields that could not be mapped to a column.
type SchemaError struct {
	Format  string
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("format %s: missing columns %v in header %q", e.Format, e.Missing, e.Header)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }
