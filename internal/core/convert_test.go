package core

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/language"
)

func text(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }

// parseCell runs raw through c with DataErrorThrow.
func parseCell(t *testing.T, c *Column, raw string) (any, error) {
	t.Helper()
	return c.Parse(text(raw), 1, 1, DataErrorThrow)
}

// ----------------------------------------------------------------------------
// Decimal / currency
// ----------------------------------------------------------------------------

func TestDecimalConverter(t *testing.T) {
	tests := []struct {
		name      string
		typ       FieldType
		input     string
		wantErr   bool
		wantValue string // Decimal text of the parsed numeric
	}{
		{name: "positive integer", typ: FieldDecimal, input: "123", wantValue: "123"},
		{name: "negative integer", typ: FieldDecimal, input: "-456", wantValue: "-456"},
		{name: "explicit plus", typ: FieldDecimal, input: "+7", wantValue: "7"},
		{name: "decimal number", typ: FieldDecimal, input: "123.45", wantValue: "123.45"},
		{name: "scale is kept", typ: FieldDecimal, input: "1.50", wantValue: "1.50"},
		{name: "leading decimal point", typ: FieldDecimal, input: ".99", wantValue: "0.99"},
		{name: "trailing decimal point", typ: FieldDecimal, input: "99.", wantValue: "99"},
		{name: "thousands separators", typ: FieldDecimal, input: "1,234,567.89", wantValue: "1234567.89"},
		{name: "surrounding whitespace", typ: FieldDecimal, input: "  42.0  ", wantValue: "42.0"},
		{name: "currency symbol rejected for decimal", typ: FieldDecimal, input: "$5", wantErr: true},
		{name: "exponent rejected for decimal", typ: FieldDecimal, input: "1e3", wantErr: true},
		{name: "letters", typ: FieldDecimal, input: "abc", wantErr: true},
		{name: "empty", typ: FieldDecimal, input: "", wantErr: true},
		{name: "two points", typ: FieldDecimal, input: "1.2.3", wantErr: true},

		{name: "currency with symbol", typ: FieldCurrency, input: "$1,234.56", wantValue: "1234.56"},
		{name: "currency euro", typ: FieldCurrency, input: "€99.99", wantValue: "99.99"},
		{name: "accounting negative", typ: FieldCurrency, input: "(100.00)", wantValue: "-100.00"},
		{name: "accounting negative with symbol", typ: FieldCurrency, input: "($1,500)", wantValue: "-1500"},
		{name: "double negative", typ: FieldCurrency, input: "(-5)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNewColumn("Amount", tt.typ)
			got, err := parseCell(t, c, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("Parse(%q) error = %v, want ErrParse", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			n, ok := got.(pgtype.Numeric)
			if !ok {
				t.Fatalf("Parse(%q) = %T, want pgtype.Numeric", tt.input, got)
			}
			if s := formatNumericText(n, "."); s != tt.wantValue {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, s, tt.wantValue)
			}
		})
	}
}

func TestDecimalConverter_Exponent(t *testing.T) {
	c := MustNewColumn("Amount", FieldDecimal)
	c.NumberStyle |= NumberAllowExponent

	tests := []struct {
		input     string
		wantErr   bool
		wantValue string
	}{
		{input: "1e3", wantValue: "1000"},
		{input: "1.5E-2", wantValue: "0.015"},
		{input: "-2.50e1", wantValue: "-25.0"},
		{input: "1e16383", wantValue: "1" + strings.Repeat("0", 16383)},
		{input: "1e16384", wantErr: true},
		{input: "1e-16384", wantErr: true},
		{input: "1e3000000000", wantErr: true},
		{input: "1e-3000000000", wantErr: true},
		{input: "1e99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCell(t, c, tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Fatalf("Parse(%q) = %v, %v; want ErrParse", tt.input, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if s := formatNumericText(got.(pgtype.Numeric), "."); s != tt.wantValue {
				t.Errorf("Parse(%q) = %.40s, want %.40s", tt.input, s, tt.wantValue)
			}
		})
	}
}

func TestDecimalConverter_Locale(t *testing.T) {
	c := MustNewColumn("Betrag", FieldDecimal)
	c.Locale = language.German

	got, err := parseCell(t, c, "1.234,56")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if s := formatNumericText(got.(pgtype.Numeric), "."); s != "1234.56" {
		t.Errorf("Parse = %s, want 1234.56", s)
	}
	if s := c.Format(got); s != "1234,56" {
		t.Errorf("Format = %q, want %q", s, "1234,56")
	}
}

// ----------------------------------------------------------------------------
// Integers and floats
// ----------------------------------------------------------------------------

func TestIntegerConverters(t *testing.T) {
	tests := []struct {
		name    string
		typ     FieldType
		strict  bool
		input   string
		want    any
		wantErr bool
	}{
		{name: "int", typ: FieldInt, input: "42", want: 42},
		{name: "int with whitespace", typ: FieldInt, input: " 42 ", want: 42},
		{name: "int with thousands", typ: FieldInt, input: "1,000", want: 1000},
		{name: "negative int32", typ: FieldInt32, input: "-17", want: int32(-17)},
		{name: "fraction rejected", typ: FieldInt, input: "4.5", wantErr: true},
		{name: "not a number", typ: FieldInt, input: "four", wantErr: true},
		{name: "int16 clamps high", typ: FieldInt16, input: "40000", want: int16(math.MaxInt16)},
		{name: "int16 clamps low", typ: FieldInt16, input: "-40000", want: int16(math.MinInt16)},
		{name: "int16 strict overflow", typ: FieldInt16, strict: true, input: "40000", wantErr: true},
		{name: "byte clamps negative", typ: FieldByte, input: "-1", want: uint8(0)},
		{name: "byte in range", typ: FieldByte, input: "255", want: uint8(255)},
		{name: "int64 saturates", typ: FieldInt64, input: "99999999999999999999", want: int64(math.MaxInt64)},
		{name: "int64 strict overflow", typ: FieldInt64, strict: true, input: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNewColumn("N", tt.typ)
			c.Strict = tt.strict
			got, err := parseCell(t, c, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestFloatConverters(t *testing.T) {
	tests := []struct {
		name    string
		typ     FieldType
		strict  bool
		input   string
		want    any
		wantErr bool
	}{
		{name: "float64", typ: FieldFloat64, input: "3.25", want: 3.25},
		{name: "float64 exponent", typ: FieldFloat64, input: "1.5e3", want: 1500.0},
		{name: "float32", typ: FieldFloat32, input: "0.5", want: float32(0.5)},
		{name: "float32 clamps overflow", typ: FieldFloat32, input: "1e39", want: float32(math.MaxFloat32)},
		{name: "float32 clamps negative overflow", typ: FieldFloat32, input: "-1e39", want: float32(-math.MaxFloat32)},
		{name: "float32 strict overflow", typ: FieldFloat32, strict: true, input: "1e39", wantErr: true},
		{name: "garbage", typ: FieldFloat64, input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNewColumn("F", tt.typ)
			c.Strict = tt.strict
			got, err := parseCell(t, c, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Booleans and enums
// ----------------------------------------------------------------------------

func TestBoolConverter(t *testing.T) {
	tests := []struct {
		name        string
		trueValues  string
		falseValues string
		ignoreCase  *bool
		input       string
		want        bool
		wantErr     bool
	}{
		{name: "true", input: "true", want: true},
		{name: "upper Y", input: "Y", want: true},
		{name: "one", input: "1", want: true},
		{name: "no", input: "no", want: false},
		{name: "zero with spaces", input: " 0 ", want: false},
		{name: "unknown token", input: "maybe", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "custom tokens", trueValues: "J|Ja", falseValues: "N|Nein", input: "Ja", want: true},
		{name: "custom false token", trueValues: "J|Ja", falseValues: "N|Nein", input: "nein", want: false},
		{name: "case sensitive miss", trueValues: "J", falseValues: "N", ignoreCase: boolPtr(false), input: "j", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNewColumn("Flag", FieldBool)
			if tt.trueValues != "" {
				c.TrueValues = tt.trueValues
				c.FalseValues = tt.falseValues
			}
			if tt.ignoreCase != nil {
				c.IgnoreCase = *tt.ignoreCase
			}
			got, err := parseCell(t, c, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }

func TestBoolConverter_Format(t *testing.T) {
	c := MustNewColumn("Flag", FieldBool)
	c.TrueValues = "Y|yes"
	c.FalseValues = "N|no"

	if got := c.Format(true); got != "Y" {
		t.Errorf("Format(true) = %q, want %q", got, "Y")
	}
	if got := c.Format(false); got != "N" {
		t.Errorf("Format(false) = %q, want %q", got, "N")
	}
}

func TestEnumConverter(t *testing.T) {
	c := MustNewColumn("Status", FieldEnum)
	c.EnumValues = []string{"Open", "Closed"}

	got, err := parseCell(t, c, "open")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if got != "Open" {
		t.Errorf("Parse(%q) = %v, want canonical %q", "open", got, "Open")
	}

	if _, err := parseCell(t, c, "Pending"); err == nil {
		t.Error("Parse(\"Pending\") should fail for a value outside the enum")
	}

	c.IgnoreCase = false
	if _, err := parseCell(t, c, "open"); err == nil {
		t.Error("case sensitive enum should reject \"open\"")
	}
}

// ----------------------------------------------------------------------------
// Dates and times
// ----------------------------------------------------------------------------

func TestDateConverter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string // yyyy-mm-dd
		wantErr bool
	}{
		{name: "ISO format", input: "2024-01-15", want: "2024-01-15"},
		{name: "US format", input: "01/15/2024", want: "2024-01-15"},
		{name: "US no padding", input: "1/5/2024", want: "2024-01-05"},
		{name: "month name", input: "Jan 15, 2024", want: "2024-01-15"},
		{name: "flat", input: "20240115", want: "2024-01-15"},
		{name: "surrounding whitespace", input: "  2024-01-15 ", want: "2024-01-15"},
		{name: "invalid month", input: "2024-13-01", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNewColumn("Date", FieldDate)
			got, err := parseCell(t, c, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if s := got.(time.Time).Format("2006-01-02"); s != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, s, tt.want)
			}
			if loc := got.(time.Time).Location(); loc != time.UTC {
				t.Errorf("Parse(%q) location = %v, want UTC", tt.input, loc)
			}
		})
	}
}

func TestDateConverter_TwoDigitYear(t *testing.T) {
	originalPivot := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = originalPivot }()
	TwoDigitYearPivot = 20

	tests := []struct {
		input    string
		wantYear int
	}{
		{input: "01/15/25", wantYear: 2025},
		{input: "01/15/99", wantYear: 1999},
		{input: "01/15/85", wantYear: 1985},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCell(t, MustNewColumn("Date", FieldDate), tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if y := got.(time.Time).Year(); y != tt.wantYear {
				t.Errorf("Parse(%q) year = %d, want %d", tt.input, y, tt.wantYear)
			}
		})
	}
}

func TestDateConverter_DeclaredLayouts(t *testing.T) {
	c := MustNewColumn("Date", FieldDate).WithDateLayouts("02.01.2006")

	got, err := parseCell(t, c, "15.01.2024")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if s := c.Format(got); s != "15.01.2024" {
		t.Errorf("Format = %q, want first declared layout", s)
	}
	if _, err := parseCell(t, c, "2024-01-15"); err == nil {
		t.Error("declared layouts should replace the built-in ones")
	}
}

func TestFlatDateConverter(t *testing.T) {
	c := MustNewColumn("Born", FieldFlatDate)

	got, err := parseCell(t, c, "20010519")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	want := time.Date(2001, 5, 19, 0, 0, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}
	if s := c.Format(got); s != "20010519" {
		t.Errorf("Format = %q, want %q", s, "20010519")
	}
	if _, err := parseCell(t, c, "2001-05-19"); err == nil {
		t.Error("flat date should reject separated dates")
	}
}

func TestDateTimeConverter(t *testing.T) {
	c := MustNewColumn("At", FieldDateTime)

	got, err := parseCell(t, c, "2024-01-15T10:30:00Z")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}

	got, err = parseCell(t, c, "2024-01-15 10:30")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}
}

func TestTimeOfDayConverter(t *testing.T) {
	c := MustNewColumn("Clock", FieldTime)

	tests := []struct {
		input string
		want  time.Duration
		text  string
	}{
		{input: "13:45", want: 13*time.Hour + 45*time.Minute, text: "13:45:00"},
		{input: "08:05:09", want: 8*time.Hour + 5*time.Minute + 9*time.Second, text: "08:05:09"},
		{input: "3:04 PM", want: 15*time.Hour + 4*time.Minute, text: "15:04:00"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCell(t, c, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if s := c.Format(got); s != tt.text {
				t.Errorf("Format = %q, want %q", s, tt.text)
			}
		})
	}

	if _, err := parseCell(t, c, "25:00"); err == nil {
		t.Error("Parse(\"25:00\") should fail")
	}
}

// ----------------------------------------------------------------------------
// Bytes and identifiers
// ----------------------------------------------------------------------------

func TestBytesConverter(t *testing.T) {
	c := MustNewColumn("Blob", FieldBytes)

	got, err := parseCell(t, c, "aGVsbG8=")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if !bytes.Equal(got.([]byte), []byte("hello")) {
		t.Errorf("Parse = %q, want %q", got, "hello")
	}
	if s := c.Format(got); s != "aGVsbG8=" {
		t.Errorf("Format = %q, want %q", s, "aGVsbG8=")
	}
	if _, err := parseCell(t, c, "not base64!"); err == nil {
		t.Error("Parse should reject invalid base64")
	}
}

func TestUUIDConverter(t *testing.T) {
	c := MustNewColumn("ID", FieldUUID)
	want := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	got, err := parseCell(t, c, " 6BA7B810-9DAD-11D1-80B4-00C04FD430C8 ")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Parse = %v, want %v", got, want)
	}
	if s := c.Format(got); s != want.String() {
		t.Errorf("Format = %q, want %q", s, want.String())
	}
	if _, err := parseCell(t, c, "nope"); err == nil {
		t.Error("Parse should reject an invalid uuid")
	}
}

// ----------------------------------------------------------------------------
// Converter sets
// ----------------------------------------------------------------------------

func TestConverters_Injected(t *testing.T) {
	cs := DefaultConverters()
	cs[FieldInt] = Converter{
		Parse: func(raw string, _ *Column) (any, error) { return len(raw), nil },
	}

	c, err := cs.NewColumn("Len", FieldInt)
	if err != nil {
		t.Fatalf("NewColumn unexpected error: %v", err)
	}
	got, err := parseCell(t, c, "abcd")
	if err != nil {
		t.Fatalf("Parse unexpected error: %v", err)
	}
	if got != 4 {
		t.Errorf("Parse = %v, want 4 from injected converter", got)
	}

	// The default set is unaffected
	if got, _ := parseCell(t, MustNewColumn("N", FieldInt), "12"); got != 12 {
		t.Errorf("default converter Parse = %v, want 12", got)
	}
}

func TestConverters_MissingType(t *testing.T) {
	cs := Converters{}

	c, err := cs.NewColumn("When", FieldDate)
	if err != nil {
		t.Fatalf("NewColumn unexpected error: %v", err)
	}
	for _, policy := range []DataErrorPolicy{DataErrorThrow, DataErrorEmbed, DataErrorUseDefault} {
		if _, err := c.Parse(text("2024-01-01"), 1, 1, policy); !errors.Is(err, ErrNoParser) {
			t.Errorf("policy %s: error = %v, want ErrNoParser", policy, err)
		}
	}

	s, err := cs.NewColumn("Name", FieldString)
	if err != nil {
		t.Fatalf("NewColumn unexpected error: %v", err)
	}
	if got, err := parseCell(t, s, "raw"); err != nil || got != "raw" {
		t.Errorf("string column without converter = %v, %v; want raw text", got, err)
	}
}
