// Package layout loads declarative import layouts from YAML or JSON files and
// turns them into configured importers.
//
// A layout names the input format, the import options and the ordered column
// list:
//
//	name: payroll
//	format: fixed
//	blank_rows: drop_leading_and_trailing
//	columns:
//	  - {name: surname, width: 10}
//	  - {name: hired, type: flatdate, width: 8}
//	  - {name: filler, width: 3, not_mapped: true}
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/textimport/internal/core"
)

// Input formats.
const (
	FormatDelimited = "delimited"
	FormatFixed     = "fixed"
)

// Layout is a declarative description of one import.
type Layout struct {
	Name        string       `yaml:"name" json:"name" validate:"required"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Format      string       `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=delimited fixed"`
	OptionsSpec `yaml:",inline"`
	Columns     []ColumnSpec `yaml:"columns" json:"columns" validate:"required,min=1,dive"`
}

// ColumnSpec declares one column of a layout.
type ColumnSpec struct {
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	Width       int      `yaml:"width,omitempty" json:"width,omitempty" validate:"gte=0"`
	Start       int      `yaml:"start,omitempty" json:"start,omitempty" validate:"gte=0"`
	NotMapped   bool     `yaml:"not_mapped,omitempty" json:"not_mapped,omitempty"`
	Formats     []string `yaml:"formats,omitempty" json:"formats,omitempty"`
	Locale      string   `yaml:"locale,omitempty" json:"locale,omitempty"`
	TrueValues  []string `yaml:"true_values,omitempty" json:"true_values,omitempty"`
	FalseValues []string `yaml:"false_values,omitempty" json:"false_values,omitempty"`
	Values      []string `yaml:"values,omitempty" json:"values,omitempty"`
	IgnoreCase  *bool    `yaml:"ignore_case,omitempty" json:"ignore_case,omitempty"`
	Strict      bool     `yaml:"strict,omitempty" json:"strict,omitempty"`
	Null        string   `yaml:"null,omitempty" json:"null,omitempty"`
	NumberStyle []string `yaml:"number_style,omitempty" json:"number_style,omitempty"`
}

var numberStyleFlags = map[string]core.NumberStyle{
	"thousands":       core.NumberAllowThousands,
	"currency_symbol": core.NumberAllowCurrencySymbol,
	"parentheses":     core.NumberAllowParentheses,
	"exponent":        core.NumberAllowExponent,
	"whitespace":      core.NumberAllowWhiteSpace,
}

var validate = validator.New()

// Load reads a layout file. The format follows the extension: .json is JSON,
// .yaml and .yml are YAML. Unknown keys are rejected in both.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	var l *Layout
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		l, err = ParseJSON(data)
	case ".yaml", ".yml":
		l, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("layout %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseYAML decodes and validates a YAML layout.
func ParseYAML(data []byte) (*Layout, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ParseJSON decodes and validates a JSON layout.
func ParseJSON(data []byte) (*Layout, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks struct constraints first, then the values that only the
// import engine understands: option names, field types and locales.
func (l *Layout) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("layout validation failed: %w", err)
	}

	var errs []error
	if _, err := ParseOptions(l.OptionsSpec); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(l.Columns))
	for i, cs := range l.Columns {
		key := strings.ToLower(strings.TrimSpace(cs.Name))
		if seen[key] {
			errs = append(errs, fmt.Errorf("column %d: duplicate name %q", i+1, cs.Name))
		}
		seen[key] = true

		if _, err := core.ParseFieldType(cs.Type); err != nil {
			errs = append(errs, fmt.Errorf("column %q: %w", cs.Name, err))
		}
		if cs.Locale != "" {
			if _, err := language.Parse(cs.Locale); err != nil {
				errs = append(errs, fmt.Errorf("column %q: locale %q: %w", cs.Name, cs.Locale, err))
			}
		}
		for _, s := range cs.NumberStyle {
			if _, ok := numberStyleFlags[strings.ToLower(s)]; !ok {
				errs = append(errs, fmt.Errorf("column %q: unknown number style %q", cs.Name, s))
			}
		}
		if l.Format == FormatFixed && cs.Width == 0 && !cs.NotMapped {
			errs = append(errs, fmt.Errorf("column %q: fixed-width columns need a width", cs.Name))
		}
	}
	return errors.Join(errs...)
}

// Options resolves the layout's import options.
func (l *Layout) Options() (Options, error) {
	return ParseOptions(l.OptionsSpec)
}

// BuildColumns builds the layout's columns from the converters in cs.
func (l *Layout) BuildColumns(cs core.Converters) ([]*core.Column, error) {
	cols := make([]*core.Column, 0, len(l.Columns))
	for _, spec := range l.Columns {
		c, err := spec.column(cs)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// Importer builds an importer for the layout. A nil cs uses the default
// converters.
func (l *Layout) Importer(cs core.Converters) (*core.Importer, error) {
	if cs == nil {
		cs = core.DefaultConverters()
	}
	opts, err := l.Options()
	if err != nil {
		return nil, err
	}
	cols, err := l.BuildColumns(cs)
	if err != nil {
		return nil, err
	}

	imp := &core.Importer{
		Columns:    cols,
		FixedWidth: l.Format == FormatFixed,
	}
	opts.Apply(imp)
	return imp, nil
}

func (s ColumnSpec) column(cs core.Converters) (*core.Column, error) {
	typ, err := core.ParseFieldType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", s.Name, err)
	}
	c, err := cs.NewColumn(s.Name, typ)
	if err != nil {
		return nil, err
	}

	c.Width = s.Width
	c.Start = s.Start
	c.NotMapped = s.NotMapped
	c.Strict = s.Strict
	c.NullDisplay = s.Null
	if len(s.Formats) > 0 {
		c.DateLayouts = s.Formats
	}
	if s.Locale != "" {
		tag, err := language.Parse(s.Locale)
		if err != nil {
			return nil, fmt.Errorf("column %q: locale %q: %w", s.Name, s.Locale, err)
		}
		c.Locale = tag
	}
	if len(s.TrueValues) > 0 {
		c.TrueValues = strings.Join(s.TrueValues, "|")
	}
	if len(s.FalseValues) > 0 {
		c.FalseValues = strings.Join(s.FalseValues, "|")
	}
	if len(s.Values) > 0 {
		c.EnumValues = s.Values
	}
	if s.IgnoreCase != nil {
		c.IgnoreCase = *s.IgnoreCase
	}
	if len(s.NumberStyle) > 0 {
		var style core.NumberStyle
		for _, name := range s.NumberStyle {
			f, ok := numberStyleFlags[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("column %q: unknown number style %q", s.Name, name)
			}
			style |= f
		}
		c.NumberStyle = style
	}
	return c, nil
}
