package core

import "github.com/jackc/pgx/v5/pgtype"

// ImportedRow is one parsed record. Values are raw field text; a value with
// Valid=false is null. A row whose values are nil is a blank row that the
// blank row policy chose to keep.
type ImportedRow struct {
	line   int
	values []pgtype.Text
}

func newImportedRow(line int, values []pgtype.Text) ImportedRow {
	return ImportedRow{line: line, values: values}
}

// LineNumber returns the 1-based source line the row came from.
func (r ImportedRow) LineNumber() int { return r.line }

// IsBlank reports whether the row is a retained blank row.
func (r ImportedRow) IsBlank() bool { return r.values == nil }

// Len returns the number of values, 0 for a blank row.
func (r ImportedRow) Len() int { return len(r.values) }

// Values returns a copy of the row's values, nil for a blank row.
func (r ImportedRow) Values() []pgtype.Text {
	if r.values == nil {
		return nil
	}
	out := make([]pgtype.Text, len(r.values))
	copy(out, r.values)
	return out
}

// Strings returns the values as plain strings, null values as "".
func (r ImportedRow) Strings() []string {
	if r.values == nil {
		return nil
	}
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = v.String
	}
	return out
}

// withAppended returns a new row carrying r's values plus v. Blank rows stay
// blank. The receiver's slice is never modified.
func (r ImportedRow) withAppended(v pgtype.Text) ImportedRow {
	if r.values == nil {
		return r
	}
	values := make([]pgtype.Text, len(r.values)+1)
	copy(values, r.values)
	values[len(r.values)] = v
	return ImportedRow{line: r.line, values: values}
}
