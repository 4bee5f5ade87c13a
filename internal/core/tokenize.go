package core

// tokenize.go splits one physical line into field strings.
//
// Two layouts are supported:
//   - Delimited: a single delimiter rune, with double-quoted spans in which the
//     delimiter is literal and "" is an escaped quote.
//   - Fixed-width: consecutive column widths sliced at cumulative rune offsets.
//
// Tokenizers only see single lines: an embedded '\r' or '\n' is an error.

import (
	"fmt"
	"strings"
)

// Tokenizer splits one line into fields. lineNumber is the 1-based source
// line used in error reports.
type Tokenizer interface {
	Tokenize(line string, lineNumber int) ([]string, error)
}

// DelimitedTokenizer splits lines on Delimiter.
//
// When Columns is set, field i belongs to column i: fields of not-mapped
// columns are dropped, and with EnforceColumnCount a field beyond the last
// declared column fails the row.
type DelimitedTokenizer struct {
	Delimiter          rune
	Columns            []*Column
	EnforceColumnCount bool
}

// ValidateDelimiter checks that r can separate fields.
func ValidateDelimiter(r rune) error {
	switch r {
	case 0, '"', '\r', '\n':
		return fmt.Errorf("%w: %q", ErrInvalidDelimiter, r)
	}
	return nil
}

// Tokenize implements Tokenizer.
func (t DelimitedTokenizer) Tokenize(line string, lineNumber int) ([]string, error) {
	if err := ValidateDelimiter(t.Delimiter); err != nil {
		return nil, err
	}

	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		col      int
	)

	closeField := func() error {
		value := field.String()
		field.Reset()
		defer func() { col++ }()

		if len(t.Columns) == 0 {
			fields = append(fields, value)
			return nil
		}
		if col >= len(t.Columns) {
			if t.EnforceColumnCount {
				return &ImportError{
					Line:   lineNumber,
					Column: col + 1,
					Raw:    value,
					Err:    fmt.Errorf("%w: expected at most %d", ErrTooManyFields, len(t.Columns)),
				}
			}
			fields = append(fields, value)
			return nil
		}
		if !t.Columns[col].NotMapped {
			fields = append(fields, value)
		}
		return nil
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\r' || r == '\n':
			return nil, &ImportError{
				Line:   lineNumber,
				Column: col + 1,
				Raw:    field.String(),
				Err:    ErrEmbeddedLineBreak,
			}
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == t.Delimiter && !inQuotes:
			if err := closeField(); err != nil {
				return nil, err
			}
		default:
			field.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, &ImportError{
			Line:   lineNumber,
			Column: col + 1,
			Raw:    field.String(),
			Err:    ErrUnclosedQuote,
		}
	}
	if err := closeField(); err != nil {
		return nil, err
	}
	return fields, nil
}

// FixedWidthTokenizer slices lines by column width.
//
// The cursor advances by every column's width, mapped or not. A mapped column
// of width 0 yields an empty field so later columns keep their position. A
// line shorter than the layout yields whatever text is available, and a
// whitespace-only line yields no fields at all so it counts as blank.
type FixedWidthTokenizer struct {
	Columns []*Column
}

// Tokenize implements Tokenizer.
func (t FixedWidthTokenizer) Tokenize(line string, lineNumber int) ([]string, error) {
	if !hasMappedColumn(t.Columns) {
		return nil, ErrNoMappedColumns
	}
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		return nil, &ImportError{Line: lineNumber, Raw: line[:i], Err: ErrEmbeddedLineBreak}
	}
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	runes := []rune(line)
	fields := make([]string, 0, len(t.Columns))
	cursor := 0
	for _, c := range t.Columns {
		if c == nil {
			continue
		}
		width := max(c.Width, 0)
		if !c.NotMapped {
			start := min(cursor, len(runes))
			end := min(cursor+width, len(runes))
			fields = append(fields, string(runes[start:end]))
		}
		cursor += width
	}
	return fields, nil
}

func hasMappedColumn(columns []*Column) bool {
	for _, c := range columns {
		if c != nil && !c.NotMapped {
			return true
		}
	}
	return false
}
