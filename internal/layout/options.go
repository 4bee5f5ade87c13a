package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/JonMunkholm/textimport/internal/core"
)

// OptionsSpec is the textual form of the import options shared by layout
// files and environment configuration.
type OptionsSpec struct {
	Delimiter     string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	HasHeader     bool   `yaml:"has_header,omitempty" json:"has_header,omitempty"`
	AutoTruncate  string `yaml:"auto_truncate,omitempty" json:"auto_truncate,omitempty"`
	BlankRows     string `yaml:"blank_rows,omitempty" json:"blank_rows,omitempty"`
	DataErrors    string `yaml:"data_errors,omitempty" json:"data_errors,omitempty"`
	Encoding      string `yaml:"encoding,omitempty" json:"encoding,omitempty"`
	MaxLineLength int    `yaml:"max_line_length,omitempty" json:"max_line_length,omitempty" validate:"gte=0"`
}

// Options are resolved import options.
type Options struct {
	Delimiter     rune
	HasHeader     bool
	AutoTrunc     core.AutoTruncate
	BlankRows     core.BlankRowPolicy
	DataErrors    core.DataErrorPolicy
	Encoding      encoding.Encoding // nil means UTF-8
	MaxLineLength int
}

// ParseOptions resolves spec, reporting every invalid option at once.
func ParseOptions(spec OptionsSpec) (Options, error) {
	var (
		opts Options
		errs []error
		err  error
	)
	if opts.Delimiter, err = ParseDelimiter(spec.Delimiter); err != nil {
		errs = append(errs, err)
	}
	if opts.AutoTrunc, err = core.ParseAutoTruncate(spec.AutoTruncate); err != nil {
		errs = append(errs, err)
	}
	if opts.BlankRows, err = core.ParseBlankRowPolicy(spec.BlankRows); err != nil {
		errs = append(errs, err)
	}
	if opts.DataErrors, err = core.ParseDataErrorPolicy(spec.DataErrors); err != nil {
		errs = append(errs, err)
	}
	if opts.Encoding, err = ParseEncoding(spec.Encoding); err != nil {
		errs = append(errs, err)
	}
	if spec.MaxLineLength < 0 {
		errs = append(errs, fmt.Errorf("max line length %d is negative", spec.MaxLineLength))
	}
	opts.HasHeader = spec.HasHeader
	opts.MaxLineLength = spec.MaxLineLength
	return opts, errors.Join(errs...)
}

// Apply copies the options onto imp.
func (o Options) Apply(imp *core.Importer) {
	imp.Delimiter = o.Delimiter
	imp.HasHeader = o.HasHeader
	imp.AutoTrunc = o.AutoTrunc
	imp.BlankRows = o.BlankRows
	imp.DataErrors = o.DataErrors
	imp.Encoding = o.Encoding
	imp.MaxLineLength = o.MaxLineLength
}

var delimiterNames = map[string]rune{
	"":          ',',
	"comma":     ',',
	"tab":       '\t',
	`\t`:        '\t',
	"pipe":      '|',
	"semicolon": ';',
	"space":     ' ',
}

// ParseDelimiter resolves a delimiter given as a single character or by
// name (comma, tab, pipe, semicolon, space). Empty means comma.
func ParseDelimiter(s string) (rune, error) {
	if r, ok := delimiterNames[strings.ToLower(s)]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q must be a single character", core.ErrInvalidDelimiter, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if err := core.ValidateDelimiter(r); err != nil {
		return 0, err
	}
	return r, nil
}

// ParseEncoding resolves a WHATWG encoding label such as "windows-1252",
// "latin1" or "shift_jis". Empty and UTF-8 labels return nil, meaning the
// input is read as UTF-8 without a decoding step.
func ParseEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}
