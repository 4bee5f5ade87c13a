package core

// errors.go defines the error taxonomy of the import engine.
//
//   - Schema/usage errors (no mapped columns, nil column, length mismatch on
//     re-export, missing parser) are plain sentinels, always returned.
//   - Structural row errors (too many fields, unclosed quote, embedded line
//     break, blank row under BlankRowError) are *ImportError values carrying
//     the source line number.
//   - Per-cell value errors are *CellError values, governed by DataErrorPolicy.

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNoMappedColumns     = errors.New("no mapped columns declared")
	ErrNilColumn           = errors.New("column is nil")
	ErrInvalidColumn       = errors.New("invalid column")
	ErrTooManyFields       = errors.New("too many fields")
	ErrUnclosedQuote       = errors.New("unclosed quotation")
	ErrEmbeddedLineBreak   = errors.New("embedded line break in field")
	ErrInvalidDelimiter    = errors.New("invalid delimiter")
	ErrBlankRow            = errors.New("blank row not allowed")
	ErrLengthMismatch      = errors.New("row length does not match column count")
	ErrNoParser            = errors.New("no parser for typed column")
	ErrEnforcementRequired = errors.New("column count enforcement required")
	ErrParse               = errors.New("invalid value")
	ErrUnknownOption       = errors.New("option not recognized")
)

// MaxDisplayLength is the longest raw text quoted verbatim in error messages.
var MaxDisplayLength = 40

// ImportError describes a row-shape failure at a specific source line.
type ImportError struct {
	Line       int    // 1-based source line number
	Column     int    // 1-based column position, 0 if not column specific
	ColumnName string // Declared column name, if known
	Raw        string // Offending raw text, if any
	Err        error
}

func (e *ImportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d", e.Line)
	if e.Column > 0 {
		fmt.Fprintf(&b, ", column %d", e.Column)
		if e.ColumnName != "" {
			fmt.Fprintf(&b, " (%s)", e.ColumnName)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Raw != "" {
		fmt.Fprintf(&b, ": %q", truncateForDisplay(e.Raw))
	}
	return b.String()
}

func (e *ImportError) Unwrap() error { return e.Err }

// CellError describes a value that could not be converted to its column's
// type. Under DataErrorEmbed it is stored in place of the cell value.
type CellError struct {
	Line       int    // 1-based source line number of the row
	Column     int    // 1-based mapped column position
	ColumnName string
	Raw        string
	Err        error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("line %d, column %d (%s): cannot convert %q: %v",
		e.Line, e.Column, e.ColumnName, truncateForDisplay(e.Raw), e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// truncateForDisplay shortens s to MaxDisplayLength runes, marking the cut.
func truncateForDisplay(s string) string {
	if utf8.RuneCountInString(s) <= MaxDisplayLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxDisplayLength]) + "..."
}
