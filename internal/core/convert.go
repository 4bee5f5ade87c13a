package core

// convert.go provides the built-in string-to-value converters used by columns.
//
// These functions handle the messy reality of fixed-width and delimited exports:
//   - Multiple date formats (US, EU, ISO, flat yyyymmdd)
//   - Currency symbols, thousand separators and accounting parentheses
//   - Locale-specific decimal and group separators
//   - Configurable boolean tokens (yes/no, Y/N, 1/0)
//
// A Converters set is an ordinary map owned by whoever builds columns. The
// converter is bound to a column when it is constructed, so no per-cell type
// inspection happens during export.

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Converter parses raw text into a typed value for one FieldType and renders
// it back.
type Converter struct {
	Parse  func(raw string, c *Column) (any, error)
	Format func(v any, c *Column) string
	Zero   func() any
}

// Converters maps each field type to its converter.
type Converters map[FieldType]Converter

var (
	plainNumberRegex    = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	exponentNumberRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	dateTimeLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "1/2/2006 3:04 PM",
		"01/02/2006 15:04",
	}
	timeLayouts = []string{
		"15:04:05.999999999", "15:04:05", "15:04", "3:04:05 PM", "3:04 PM", "3:04PM",
	}
)

const (
	flatDateLayout = "20060102"
	isoDateLayout  = "2006-01-02"
)

// DefaultTrueValues and DefaultFalseValues are the pipe-delimited tokens
// given to bool columns that do not declare their own.
const (
	DefaultTrueValues  = "true|t|yes|y|1"
	DefaultFalseValues = "false|f|no|n|0"
)

// DefaultConverters returns a fresh converter set covering every FieldType.
func DefaultConverters() Converters {
	text := Converter{
		Parse:  func(raw string, _ *Column) (any, error) { return raw, nil },
		Format: formatText,
		Zero:   func() any { return "" },
	}
	return Converters{
		FieldString:   text,
		FieldObject:   text,
		FieldBool:     {Parse: parseBool, Format: formatBool, Zero: func() any { return false }},
		FieldInt:      integerConverter(math.MinInt, math.MaxInt, func(v int64) any { return int(v) }),
		FieldInt16:    integerConverter(math.MinInt16, math.MaxInt16, func(v int64) any { return int16(v) }),
		FieldInt32:    integerConverter(math.MinInt32, math.MaxInt32, func(v int64) any { return int32(v) }),
		FieldInt64:    integerConverter(math.MinInt64, math.MaxInt64, func(v int64) any { return v }),
		FieldByte:     integerConverter(0, math.MaxUint8, func(v int64) any { return uint8(v) }),
		FieldFloat32:  floatConverter(32),
		FieldFloat64:  floatConverter(64),
		FieldDecimal:  {Parse: parseDecimal, Format: formatDecimal, Zero: zeroNumeric},
		FieldCurrency: {Parse: parseDecimal, Format: formatDecimal, Zero: zeroNumeric},
		FieldDate:     {Parse: parseDate, Format: formatDate(isoDateLayout), Zero: func() any { return time.Time{} }},
		FieldFlatDate: {Parse: parseFlatDate, Format: formatDate(flatDateLayout), Zero: func() any { return time.Time{} }},
		FieldDateTime: {Parse: parseDateTime, Format: formatDate(time.RFC3339), Zero: func() any { return time.Time{} }},
		FieldTime:     {Parse: parseTimeOfDay, Format: formatTimeOfDay, Zero: func() any { return time.Duration(0) }},
		FieldEnum:     {Parse: parseEnum, Format: formatText, Zero: func() any { return "" }},
		FieldBytes:    {Parse: parseBytes, Format: formatBytes, Zero: func() any { return []byte{} }},
		FieldUUID:     {Parse: parseUUID, Format: formatUUID, Zero: func() any { return uuid.Nil }},
	}
}

func formatText(v any, _ *Column) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ----------------------------------------------------------------------------
// Numbers
// ----------------------------------------------------------------------------

// separators holds the decimal and group separators of a locale.
type separators struct {
	decimal string
	group   string
}

var (
	defaultSeparators = separators{decimal: ".", group: ","}
	separatorCache    sync.Map // language.Tag string -> separators
)

// localeSeparators derives the separators of tag by formatting sample numbers
// with a localized printer.
func localeSeparators(tag language.Tag) separators {
	if tag == language.Und {
		return defaultSeparators
	}
	key := tag.String()
	if cached, ok := separatorCache.Load(key); ok {
		return cached.(separators)
	}

	p := message.NewPrinter(tag)
	seps := defaultSeparators
	if dec := stripDigits(p.Sprintf("%.1f", 1.5)); dec != "" {
		seps.decimal = dec
	}
	if grp := stripDigits(p.Sprintf("%d", 1000000)); grp != "" {
		// "1.000.000" leaves "..": keep one separator
		r := []rune(grp)
		seps.group = string(r[0])
	}
	if seps.group == seps.decimal {
		seps.group = defaultSeparators.group
	}

	separatorCache.Store(key, seps)
	return seps
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
}

// normalizeNumber turns user-formatted numeric text into a canonical
// "[-]digits[.digits][e[-]digits]" string according to style and locale.
func normalizeNumber(raw string, style NumberStyle, seps separators) (string, error) {
	s := raw
	if style.Has(NumberAllowWhiteSpace) {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return "", fmt.Errorf("%w: empty number", ErrParse)
	}

	// Detect negative accounting format "(123.45)"
	negative := false
	if style.Has(NumberAllowParentheses) && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if style.Has(NumberAllowCurrencySymbol) {
		s = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "").Replace(s)
	}
	if style.Has(NumberAllowThousands) {
		s = strings.ReplaceAll(s, seps.group, "")
		// Locales grouping with a (narrow) non-breaking space also accept a plain one
		if seps.group == "\u00a0" || seps.group == "\u202f" {
			s = strings.ReplaceAll(s, " ", "")
		}
	}
	if seps.decimal != "." {
		s = strings.ReplaceAll(s, seps.decimal, ".")
	}
	s = strings.TrimSpace(s)

	if negative {
		if strings.HasPrefix(s, "-") {
			return "", fmt.Errorf("%w: double negative %q", ErrParse, raw)
		}
		s = "-" + s
	}

	re := plainNumberRegex
	if style.Has(NumberAllowExponent) {
		re = exponentNumberRegex
	}
	if !re.MatchString(s) {
		return "", fmt.Errorf("%w: not a number", ErrParse)
	}
	return s, nil
}

func integerConverter(lo, hi int64, box func(int64) any) Converter {
	return Converter{
		Parse: func(raw string, c *Column) (any, error) {
			s, err := normalizeNumber(raw, c.NumberStyle&^NumberAllowExponent, c.separators())
			if err != nil {
				return nil, err
			}
			if strings.Contains(s, ".") {
				return nil, fmt.Errorf("%w: fractional value for integer column", ErrParse)
			}
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil && !(isRangeError(err) && !c.Strict) {
				return nil, fmt.Errorf("%w: %v", ErrParse, err)
			}
			// ParseInt saturates on overflow, so v is already clamped to int64
			if v < lo || v > hi {
				if c.Strict {
					return nil, fmt.Errorf("%w: %d out of range [%d, %d]", ErrParse, v, lo, hi)
				}
				v = max(lo, min(v, hi))
			}
			return box(v), nil
		},
		Format: formatNumber,
		Zero:   func() any { return box(0) },
	}
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func floatConverter(bits int) Converter {
	return Converter{
		Parse: func(raw string, c *Column) (any, error) {
			s, err := normalizeNumber(raw, c.NumberStyle, c.separators())
			if err != nil {
				return nil, err
			}
			v, err := strconv.ParseFloat(s, bits)
			if err != nil {
				if !isRangeError(err) || c.Strict {
					return nil, fmt.Errorf("%w: %v", ErrParse, err)
				}
				limit := math.MaxFloat64
				if bits == 32 {
					limit = math.MaxFloat32
				}
				v = math.Copysign(limit, v)
			}
			if bits == 32 {
				return float32(v), nil
			}
			return v, nil
		},
		Format: formatNumber,
		Zero: func() any {
			if bits == 32 {
				return float32(0)
			}
			return float64(0)
		},
	}
}

func formatNumber(v any, c *Column) string {
	var s string
	switch n := v.(type) {
	case float32:
		s = strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
	if seps := c.separators(); seps.decimal != "." {
		s = strings.Replace(s, ".", seps.decimal, 1)
	}
	return s
}

func parseDecimal(raw string, c *Column) (any, error) {
	s, err := normalizeNumber(raw, c.NumberStyle, c.separators())
	if err != nil {
		return nil, err
	}
	return numericFromString(s)
}

// MaxDecimalExponent bounds the power of ten a decimal value may carry,
// matching the display scale limit of PostgreSQL numeric.
const MaxDecimalExponent = 16383

// numericFromString builds a pgtype.Numeric from a canonical number,
// keeping the scale of the input ("1.50" stays 150e-2).
func numericFromString(s string) (pgtype.Numeric, error) {
	mantissa, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return pgtype.Numeric{}, fmt.Errorf("%w: bad exponent", ErrParse)
		}
		mantissa, exp = s[:i], e
	}
	whole, frac, _ := strings.Cut(mantissa, ".")
	digits := whole + frac
	if digits == "-" || digits == "+" {
		digits += "0"
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return pgtype.Numeric{}, fmt.Errorf("%w: not a number", ErrParse)
	}
	scale := exp - len(frac)
	if scale > MaxDecimalExponent || scale < -MaxDecimalExponent {
		return pgtype.Numeric{}, fmt.Errorf("%w: exponent out of range (limit %d)", ErrParse, MaxDecimalExponent)
	}
	return pgtype.Numeric{Int: n, Exp: int32(scale), Valid: true}, nil
}

func zeroNumeric() any {
	return pgtype.Numeric{Int: big.NewInt(0), Valid: true}
}

// formatNumericText renders a numeric in plain decimal notation.
func formatNumericText(n pgtype.Numeric, decimalSep string) string {
	switch {
	case !n.Valid:
		return ""
	case n.NaN:
		return "NaN"
	case n.InfinityModifier == pgtype.Infinity:
		return "Infinity"
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return "-Infinity"
	case n.Int == nil:
		return "0"
	}

	digits := new(big.Int).Abs(n.Int).String()
	sign := ""
	if n.Int.Sign() < 0 {
		sign = "-"
	}

	exp := int(n.Exp)
	if exp >= 0 {
		if n.Int.Sign() != 0 {
			digits += strings.Repeat("0", exp)
		}
		return sign + digits
	}

	scale := -exp
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return sign + digits[:point] + decimalSep + digits[point:]
}

func formatDecimal(v any, c *Column) string {
	switch n := v.(type) {
	case pgtype.Numeric:
		return formatNumericText(n, c.separators().decimal)
	case *pgtype.Numeric:
		if n == nil {
			return c.NullDisplay
		}
		return formatNumericText(*n, c.separators().decimal)
	default:
		return formatNumber(v, c)
	}
}

// ----------------------------------------------------------------------------
// Booleans and enums
// ----------------------------------------------------------------------------

// splitTokens splits a pipe-delimited token list, dropping empty tokens.
func splitTokens(list string) []string {
	parts := strings.Split(list, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchToken(s string, tokens []string, ignoreCase bool) bool {
	for _, tok := range tokens {
		if tok == s || (ignoreCase && strings.EqualFold(tok, s)) {
			return true
		}
	}
	return false
}

func parseBool(raw string, c *Column) (any, error) {
	s := strings.TrimSpace(raw)
	trueValues, falseValues := c.TrueValues, c.FalseValues
	if trueValues == "" {
		trueValues = DefaultTrueValues
	}
	if falseValues == "" {
		falseValues = DefaultFalseValues
	}
	switch {
	case matchToken(s, splitTokens(trueValues), c.IgnoreCase):
		return true, nil
	case matchToken(s, splitTokens(falseValues), c.IgnoreCase):
		return false, nil
	}
	return nil, fmt.Errorf("%w: expected one of %s or %s", ErrParse, trueValues, falseValues)
}

func formatBool(v any, c *Column) string {
	b, ok := v.(bool)
	if !ok {
		return fmt.Sprint(v)
	}
	list := c.FalseValues
	if b {
		list = c.TrueValues
	}
	if tokens := splitTokens(list); len(tokens) > 0 {
		return tokens[0]
	}
	return strconv.FormatBool(b)
}

func parseEnum(raw string, c *Column) (any, error) {
	s := strings.TrimSpace(raw)
	if len(c.EnumValues) == 0 {
		return s, nil
	}
	for _, ev := range c.EnumValues {
		if ev == s || (c.IgnoreCase && strings.EqualFold(ev, s)) {
			return ev, nil
		}
	}
	return nil, fmt.Errorf("%w: value must be one of: %s", ErrParse, strings.Join(c.EnumValues, ", "))
}

// ----------------------------------------------------------------------------
// Dates and times
// ----------------------------------------------------------------------------

func (c *Column) dateInput(raw string) string {
	if c.DateStyle.Has(DateAllowWhiteSpace) {
		return strings.TrimSpace(raw)
	}
	return raw
}

func (c *Column) dateLocation() *time.Location {
	if c.DateStyle.Has(DateAssumeLocal) {
		return time.Local
	}
	return time.UTC
}

func parseWithLayouts(s string, layouts []string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseDate parses a calendar date. Declared layouts win; otherwise
// 4-digit year layouts are tried first (unambiguous), then 2-digit year
// layouts with pivot year adjustment.
func parseDate(raw string, c *Column) (any, error) {
	s := c.dateInput(raw)
	loc := c.dateLocation()
	if len(c.DateLayouts) > 0 {
		if t, ok := parseWithLayouts(s, c.DateLayouts, loc); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: date does not match %s", ErrParse, strings.Join(c.DateLayouts, ", "))
	}
	if t, ok := parseWithLayouts(s, fourDigitYearLayouts, loc); ok {
		return t, nil
	}
	if t, ok := parseWithLayouts(s, twoDigitYearLayouts, loc); ok {
		if t.Year() > time.Now().Year()+TwoDigitYearPivot {
			t = t.AddDate(-100, 0, 0)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: invalid date format (use YYYY-MM-DD or similar)", ErrParse)
}

func parseFlatDate(raw string, c *Column) (any, error) {
	s := c.dateInput(raw)
	t, err := time.ParseInLocation(flatDateLayout, s, c.dateLocation())
	if err != nil {
		return nil, fmt.Errorf("%w: expected yyyymmdd", ErrParse)
	}
	return t, nil
}

func parseDateTime(raw string, c *Column) (any, error) {
	s := c.dateInput(raw)
	layouts := c.DateLayouts
	if len(layouts) == 0 {
		layouts = append(append([]string{}, dateTimeLayouts...), fourDigitYearLayouts...)
	}
	if t, ok := parseWithLayouts(s, layouts, c.dateLocation()); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: invalid date/time format", ErrParse)
}

func formatDate(defaultLayout string) func(v any, c *Column) string {
	return func(v any, c *Column) string {
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Sprint(v)
		}
		layout := defaultLayout
		if len(c.DateLayouts) > 0 && c.Type != FieldFlatDate {
			layout = c.DateLayouts[0]
		}
		return t.Format(layout)
	}
}

// parseTimeOfDay parses a wall-clock time into the duration since midnight.
func parseTimeOfDay(raw string, c *Column) (any, error) {
	s := c.dateInput(raw)
	layouts := c.DateLayouts
	if len(layouts) == 0 {
		layouts = timeLayouts
	}
	t, ok := parseWithLayouts(s, layouts, time.UTC)
	if !ok {
		return nil, fmt.Errorf("%w: invalid time of day", ErrParse)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()), nil
}

func formatTimeOfDay(v any, _ *Column) string {
	d, ok := v.(time.Duration)
	if !ok {
		return fmt.Sprint(v)
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	if d > 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", int64(d)), "0")
		return fmt.Sprintf("%02d:%02d:%02d.%s", h, m, sec, frac)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// ----------------------------------------------------------------------------
// Bytes and identifiers
// ----------------------------------------------------------------------------

func parseBytes(raw string, _ *Column) (any, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64", ErrParse)
	}
	return b, nil
}

func formatBytes(v any, _ *Column) string {
	if b, ok := v.([]byte); ok {
		return base64.StdEncoding.EncodeToString(b)
	}
	return fmt.Sprint(v)
}

func parseUUID(raw string, _ *Column) (any, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid uuid", ErrParse)
	}
	return id, nil
}

func formatUUID(v any, _ *Column) string {
	if id, ok := v.(uuid.UUID); ok {
		return id.String()
	}
	return fmt.Sprint(v)
}
