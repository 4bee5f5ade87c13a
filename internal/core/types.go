package core

import (
	"fmt"
	"strings"
)

// FieldType is the data type tag of a column. The set is closed: every
// FieldType has exactly one converter in a Converters set.
type FieldType int

const (
	FieldString FieldType = iota
	FieldObject
	FieldBool
	FieldInt
	FieldInt16
	FieldInt32
	FieldInt64
	FieldByte
	FieldFloat32
	FieldFloat64
	FieldDecimal
	FieldCurrency
	FieldDate
	FieldFlatDate
	FieldDateTime
	FieldTime
	FieldEnum
	FieldBytes
	FieldUUID
)

var fieldTypeNames = map[FieldType]string{
	FieldString:   "string",
	FieldObject:   "object",
	FieldBool:     "bool",
	FieldInt:      "int",
	FieldInt16:    "int16",
	FieldInt32:    "int32",
	FieldInt64:    "int64",
	FieldByte:     "byte",
	FieldFloat32:  "float32",
	FieldFloat64:  "float64",
	FieldDecimal:  "decimal",
	FieldCurrency: "currency",
	FieldDate:     "date",
	FieldFlatDate: "flatdate",
	FieldDateTime: "datetime",
	FieldTime:     "time",
	FieldEnum:     "enum",
	FieldBytes:    "bytes",
	FieldUUID:     "uuid",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// ParseFieldType resolves a field type by name (case-insensitive).
// "text" is accepted as an alias for string and "numeric" for decimal.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "text":
		return FieldString, nil
	case "numeric":
		return FieldDecimal, nil
	}
	for t, name := range fieldTypeNames {
		if name == s {
			return t, nil
		}
	}
	return FieldString, fmt.Errorf("unknown field type %q: %w", s, ErrUnknownOption)
}

// AutoTruncate is the per-field post-processing applied during ingest.
type AutoTruncate int

const (
	// AutoTruncNone stores fields exactly as tokenized.
	AutoTruncNone AutoTruncate = iota
	// AutoTruncTrim trims surrounding whitespace.
	AutoTruncTrim
	// AutoTruncZap trims, then turns an empty result into null.
	AutoTruncZap
)

func (a AutoTruncate) String() string {
	switch a {
	case AutoTruncNone:
		return "none"
	case AutoTruncTrim:
		return "trim"
	case AutoTruncZap:
		return "zap"
	default:
		return fmt.Sprintf("AutoTruncate(%d)", int(a))
	}
}

// ParseAutoTruncate resolves an AutoTruncate by name.
func ParseAutoTruncate(s string) (AutoTruncate, error) {
	switch normalizeOption(s) {
	case "", "none":
		return AutoTruncNone, nil
	case "trim":
		return AutoTruncTrim, nil
	case "zap":
		return AutoTruncZap, nil
	}
	return AutoTruncNone, fmt.Errorf("unknown auto truncate mode %q: %w", s, ErrUnknownOption)
}

// BlankRowPolicy decides what happens to blank rows.
type BlankRowPolicy int

const (
	BlankRowAllow BlankRowPolicy = iota
	BlankRowDrop
	BlankRowDropLeading
	BlankRowDropTrailing
	BlankRowDropLeadingAndTrailing
	BlankRowStopImporting
	BlankRowError
)

var blankRowPolicyNames = []string{
	"allow", "drop", "drop_leading", "drop_trailing",
	"drop_leading_and_trailing", "stop_importing", "error",
}

func (p BlankRowPolicy) String() string {
	if p >= 0 && int(p) < len(blankRowPolicyNames) {
		return blankRowPolicyNames[p]
	}
	return fmt.Sprintf("BlankRowPolicy(%d)", int(p))
}

// dropsLeading reports whether the policy prunes a leading run of blank rows.
func (p BlankRowPolicy) dropsLeading() bool {
	return p == BlankRowDropLeading || p == BlankRowDropLeadingAndTrailing
}

// dropsTrailing reports whether the policy prunes a trailing run of blank rows.
func (p BlankRowPolicy) dropsTrailing() bool {
	return p == BlankRowDropTrailing || p == BlankRowDropLeadingAndTrailing
}

// ParseBlankRowPolicy resolves a BlankRowPolicy by name. Separators
// ("-", "_", " ") and case are ignored, so "DropLeadingAndTrailing" and
// "drop-leading-and-trailing" are equivalent.
func ParseBlankRowPolicy(s string) (BlankRowPolicy, error) {
	key := normalizeOption(s)
	if key == "" {
		return BlankRowAllow, nil
	}
	for i, name := range blankRowPolicyNames {
		if strings.ReplaceAll(name, "_", "") == key {
			return BlankRowPolicy(i), nil
		}
	}
	return BlankRowAllow, fmt.Errorf("unknown blank row policy %q: %w", s, ErrUnknownOption)
}

// DataErrorPolicy governs per-cell value parse failures during typed export.
type DataErrorPolicy int

const (
	// DataErrorThrow aborts the export with the cell's error.
	DataErrorThrow DataErrorPolicy = iota
	// DataErrorEmbed stores a *CellError in the cell and continues.
	DataErrorEmbed
	// DataErrorUseDefault stores the field type's zero value and continues.
	DataErrorUseDefault
)

func (p DataErrorPolicy) String() string {
	switch p {
	case DataErrorThrow:
		return "throw"
	case DataErrorEmbed:
		return "embed"
	case DataErrorUseDefault:
		return "ignore_and_use_default_value"
	default:
		return fmt.Sprintf("DataErrorPolicy(%d)", int(p))
	}
}

// ParseDataErrorPolicy resolves a DataErrorPolicy by name.
func ParseDataErrorPolicy(s string) (DataErrorPolicy, error) {
	switch normalizeOption(s) {
	case "", "throw":
		return DataErrorThrow, nil
	case "embed":
		return DataErrorEmbed, nil
	case "ignoreandusedefaultvalue", "usedefault", "default", "ignore":
		return DataErrorUseDefault, nil
	}
	return DataErrorThrow, fmt.Errorf("unknown data error policy %q: %w", s, ErrUnknownOption)
}

func normalizeOption(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// RowOutcome reports what ImportRaw did with a row.
type RowOutcome int

const (
	// RowAppended means a row (possibly blank) was added.
	RowAppended RowOutcome = iota
	// RowSkipped means the row was dropped and counted as skipped.
	RowSkipped
	// StopRequested means the blank row policy asked the caller to stop
	// reading input. Rows already imported are kept.
	StopRequested
)

func (o RowOutcome) String() string {
	switch o {
	case RowAppended:
		return "appended"
	case RowSkipped:
		return "skipped"
	case StopRequested:
		return "stop_requested"
	default:
		return fmt.Sprintf("RowOutcome(%d)", int(o))
	}
}

// NumberStyle is a set of flags relaxing numeric parsing.
type NumberStyle int

const (
	NumberAllowThousands NumberStyle = 1 << iota
	NumberAllowCurrencySymbol
	NumberAllowParentheses
	NumberAllowExponent
	NumberAllowWhiteSpace

	// NumberStyleDefault is used by columns that declare no style.
	NumberStyleDefault = NumberAllowWhiteSpace | NumberAllowThousands
	// NumberStyleCurrency accepts accounting-formatted amounts.
	NumberStyleCurrency = NumberAllowWhiteSpace | NumberAllowThousands |
		NumberAllowCurrencySymbol | NumberAllowParentheses
)

// Has reports whether all flags in f are set.
func (s NumberStyle) Has(f NumberStyle) bool { return s&f == f }

// DateStyle is a set of flags controlling date parsing.
type DateStyle int

const (
	DateAllowWhiteSpace DateStyle = 1 << iota
	DateAssumeUTC
	DateAssumeLocal

	DateStyleDefault = DateAllowWhiteSpace | DateAssumeUTC
)

// Has reports whether all flags in f are set.
func (s DateStyle) Has(f DateStyle) bool { return s&f == f }
