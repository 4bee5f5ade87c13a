package core

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/language"
)

// ParseFunc converts raw field text into a value. It overrides the
// column's built-in converter.
type ParseFunc func(raw string) (any, error)

// FormatFunc renders a parsed value back into display text.
type FormatFunc func(v any) string

// Column describes one field of a tabular layout.
//
// The name is fixed at construction; everything else may be adjusted before
// the column is handed to a DataImport.
type Column struct {
	name string

	Start int // 0-based start position, fixed-width layouts only
	Width int // Field width in runes, fixed-width layouts only

	Type      FieldType
	Parser    ParseFunc  // Optional override of the built-in converter
	Formatter FormatFunc // Optional override of the built-in formatter

	NumberStyle NumberStyle
	DateStyle   DateStyle
	DateLayouts []string     // Go time layouts tried in order
	Locale      language.Tag // Decimal and group separators; language.Und is "."/","

	TrueValues  string // Pipe-delimited, e.g. "Y|yes"
	FalseValues string
	EnumValues  []string
	IgnoreCase  bool
	Strict      bool // Reject out-of-range numerics instead of clamping

	NullDisplay string // Text rendered for null values
	NotMapped   bool   // Consumes layout space but produces no value

	conv *Converter
}

// NewColumn creates a column bound to the default converter for typ.
func NewColumn(name string, typ FieldType) (*Column, error) {
	return DefaultConverters().NewColumn(name, typ)
}

// MustNewColumn is like NewColumn but panics on error.
// Use it for static layouts known to be valid.
func MustNewColumn(name string, typ FieldType) *Column {
	c, err := NewColumn(name, typ)
	if err != nil {
		panic(err)
	}
	return c
}

// NewColumn creates a column bound to the converter cs holds for typ.
// A type missing from cs yields a column that fails at parse time, unless it
// is a string or object column.
func (cs Converters) NewColumn(name string, typ FieldType) (*Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be blank", ErrInvalidColumn)
	}

	c := &Column{
		name:        name,
		Type:        typ,
		NumberStyle: NumberStyleDefault,
		DateStyle:   DateStyleDefault,
	}
	if conv, ok := cs[typ]; ok {
		c.conv = &conv
	}

	switch typ {
	case FieldCurrency:
		c.NumberStyle = NumberStyleCurrency
	case FieldFloat32, FieldFloat64:
		c.NumberStyle |= NumberAllowExponent
	case FieldBool:
		c.TrueValues = DefaultTrueValues
		c.FalseValues = DefaultFalseValues
		c.IgnoreCase = true
	case FieldEnum:
		c.IgnoreCase = true
	}
	return c, nil
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// WithWidth sets the fixed-width field width and returns c.
func (c *Column) WithWidth(width int) *Column {
	c.Width = width
	return c
}

// WithNotMapped marks the column as a layout placeholder and returns c.
func (c *Column) WithNotMapped() *Column {
	c.NotMapped = true
	return c
}

// WithDateLayouts sets the accepted date layouts and returns c.
func (c *Column) WithDateLayouts(layouts ...string) *Column {
	c.DateLayouts = layouts
	return c
}

// Validate checks the column invariants.
func (c *Column) Validate() error {
	if c == nil {
		return ErrNilColumn
	}
	if strings.TrimSpace(c.name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidColumn)
	}
	if c.Width < 0 {
		return fmt.Errorf("%w: column %q has negative width %d", ErrInvalidColumn, c.name, c.Width)
	}
	if c.Start < 0 {
		return fmt.Errorf("%w: column %q has negative start %d", ErrInvalidColumn, c.name, c.Start)
	}
	return nil
}

func (c *Column) separators() separators {
	return localeSeparators(c.Locale)
}

// Parse converts one raw value. column and line locate the cell in error
// reports (both 1-based). Null input yields nil.
//
// Conversion failures follow policy: DataErrorThrow returns a *CellError,
// DataErrorEmbed returns the *CellError as the value, DataErrorUseDefault
// returns the type's zero value. A typed column without any parser is a
// schema error and is returned under every policy.
func (c *Column) Parse(raw pgtype.Text, column, line int, policy DataErrorPolicy) (any, error) {
	if !raw.Valid {
		return nil, nil
	}

	var (
		v   any
		err error
	)
	switch {
	case c.Parser != nil:
		v, err = c.callParser(raw.String)
	case c.conv != nil && c.conv.Parse != nil:
		v, err = c.conv.Parse(raw.String, c)
	case c.Type == FieldString || c.Type == FieldObject:
		return raw.String, nil
	default:
		return nil, fmt.Errorf("column %q (%s): %w", c.name, c.Type, ErrNoParser)
	}
	if err == nil {
		return v, nil
	}

	cellErr := &CellError{
		Line:       line,
		Column:     column,
		ColumnName: c.name,
		Raw:        raw.String,
		Err:        err,
	}
	switch policy {
	case DataErrorEmbed:
		return cellErr, nil
	case DataErrorUseDefault:
		return c.zero(), nil
	default:
		return nil, cellErr
	}
}

// callParser invokes the custom parser, turning a panic into an error.
func (c *Column) callParser(raw string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: parser panic: %v", ErrParse, r)
		}
	}()
	return c.Parser(raw)
}

func (c *Column) zero() any {
	if c.conv != nil && c.conv.Zero != nil {
		return c.conv.Zero()
	}
	return nil
}

// Format renders a parsed value for display. Embedded cell errors render as
// their original raw text.
func (c *Column) Format(v any) string {
	switch val := v.(type) {
	case nil:
		return c.NullDisplay
	case *CellError:
		return val.Raw
	}
	if c.Formatter != nil {
		return c.Formatter(v)
	}
	if c.conv != nil && c.conv.Format != nil {
		return c.conv.Format(v, c)
	}
	return fmt.Sprint(v)
}
