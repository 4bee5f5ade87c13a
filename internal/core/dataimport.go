package core

// dataimport.go holds the DataImport aggregate: the rows of one import, the
// column metadata they are read against, and the policies applied while rows
// are appended and exported.
//
// Row lifecycle:
//
//	raw fields -> blank row policy -> padded / trimmed -> stored string row
//	           -> (ExportToObjectArrays) typed row
//	           -> (ExportToFormattedObjectStringArrays) display strings
//
// Rows never move backwards through these stages; corrections need a re-import.

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// DataImport accumulates rows for a single import. It is not safe for
// concurrent use.
type DataImport struct {
	AutoTrunc  AutoTruncate
	BlankRows  BlankRowPolicy
	DataErrors DataErrorPolicy

	// EnforceColumnCount forces every row to the mapped column count,
	// padding short rows and rejecting long ones. Typed export requires it.
	EnforceColumnCount bool

	columns []*Column
	rows    []ImportedRow
	skipped int
}

// NewDataImport creates an import. Declaring columns turns on column count
// enforcement.
func NewDataImport(columns ...*Column) (*DataImport, error) {
	d := &DataImport{EnforceColumnCount: len(columns) > 0}
	for _, c := range columns {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// Columns returns the declared columns, mapped or not.
func (d *DataImport) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// MappedColumns returns the columns that produce values, in layout order.
func (d *DataImport) MappedColumns() []*Column {
	out := make([]*Column, 0, len(d.columns))
	for _, c := range d.columns {
		if !c.NotMapped {
			out = append(out, c)
		}
	}
	return out
}

func (d *DataImport) mappedCount() int {
	n := 0
	for _, c := range d.columns {
		if !c.NotMapped {
			n++
		}
	}
	return n
}

// Rows returns the imported rows in source order.
func (d *DataImport) Rows() []ImportedRow {
	out := make([]ImportedRow, len(d.rows))
	copy(out, d.rows)
	return out
}

// RowCount returns the number of rows held, blank rows included.
func (d *DataImport) RowCount() int { return len(d.rows) }

// SkippedRows returns how many source lines were consumed without producing
// a row.
func (d *DataImport) SkippedRows() int { return d.skipped }

// NextLineNumber returns the source line number the next ImportRaw call
// corresponds to.
func (d *DataImport) NextLineNumber() int { return len(d.rows) + d.skipped + 1 }

// SkipLine records a consumed source line that yields no row, such as a
// header.
func (d *DataImport) SkipLine() { d.skipped++ }

// AddColumn appends a column. When column count enforcement is on and rows
// already exist, every non-blank row is rebuilt with one extra value: the
// empty string passed through the AutoTrunc policy.
func (d *DataImport) AddColumn(c *Column) error {
	if c == nil {
		return ErrNilColumn
	}
	if err := c.Validate(); err != nil {
		return err
	}
	d.columns = append(d.columns, c)

	if !d.EnforceColumnCount || c.NotMapped || len(d.rows) == 0 {
		return nil
	}
	fill := d.truncate("")
	rebuilt := make([]ImportedRow, len(d.rows))
	for i, row := range d.rows {
		rebuilt[i] = row.withAppended(fill)
	}
	d.rows = rebuilt
	return nil
}

// isBlankRow reports whether fields form a blank row: no fields, or a single
// whitespace-only field.
func isBlankRow(fields []string) bool {
	return len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "")
}

// ImportRaw appends one tokenized row read from source line line. A line of
// 0 or less means "the next line" (NextLineNumber).
//
// Blank rows are dispatched on BlankRows. StopRequested tells the caller to
// stop reading; it is not an error. Under column count enforcement a row with
// more fields than mapped columns fails immediately.
func (d *DataImport) ImportRaw(fields []string, line int) (RowOutcome, error) {
	if line <= 0 {
		line = d.NextLineNumber()
	}
	mapped := d.mappedCount()
	if d.EnforceColumnCount && mapped == 0 {
		return RowSkipped, ErrNoMappedColumns
	}

	if isBlankRow(fields) {
		return d.importBlank(line)
	}

	if d.EnforceColumnCount && len(fields) > mapped {
		return RowSkipped, &ImportError{
			Line: line,
			Err:  fmt.Errorf("%w: got %d, expected %d", ErrTooManyFields, len(fields), mapped),
		}
	}

	n := len(fields)
	if d.EnforceColumnCount {
		n = mapped
	}
	values := make([]pgtype.Text, n)
	for i := range values {
		raw := ""
		if i < len(fields) {
			raw = fields[i]
		}
		values[i] = d.truncate(raw)
	}
	d.rows = append(d.rows, newImportedRow(line, values))
	return RowAppended, nil
}

func (d *DataImport) importBlank(line int) (RowOutcome, error) {
	switch d.BlankRows {
	case BlankRowDrop:
		d.skipped++
		return RowSkipped, nil
	case BlankRowDropLeading, BlankRowDropLeadingAndTrailing:
		if len(d.rows) == 0 {
			d.skipped++
			return RowSkipped, nil
		}
	case BlankRowStopImporting:
		d.skipped++
		return StopRequested, nil
	case BlankRowError:
		return RowSkipped, &ImportError{Line: line, Err: ErrBlankRow}
	}
	// Allow, DropTrailing, and DropLeading once data has started. Trailing
	// runs are pruned by FinalizeImport.
	d.rows = append(d.rows, newImportedRow(line, nil))
	return RowAppended, nil
}

// truncate applies the AutoTrunc policy to one field.
func (d *DataImport) truncate(s string) pgtype.Text {
	switch d.AutoTrunc {
	case AutoTruncTrim:
		return pgtype.Text{String: strings.TrimSpace(s), Valid: true}
	case AutoTruncZap:
		s = strings.TrimSpace(s)
		return pgtype.Text{String: s, Valid: s != ""}
	default:
		return pgtype.Text{String: s, Valid: true}
	}
}

// FinalizeImport applies the blank row pruning that cannot be decided while
// rows stream in. Every removed row is counted as skipped. Calling it again
// removes nothing further.
func (d *DataImport) FinalizeImport() error {
	switch d.BlankRows {
	case BlankRowDrop:
		kept := make([]ImportedRow, 0, len(d.rows))
		for _, row := range d.rows {
			if row.IsBlank() {
				d.skipped++
				continue
			}
			kept = append(kept, row)
		}
		d.rows = kept
	case BlankRowError:
		for _, row := range d.rows {
			if row.IsBlank() {
				return &ImportError{Line: row.LineNumber(), Err: ErrBlankRow}
			}
		}
	}

	if d.BlankRows.dropsLeading() {
		n := 0
		for n < len(d.rows) && d.rows[n].IsBlank() {
			n++
		}
		if n > 0 {
			d.rows = append([]ImportedRow(nil), d.rows[n:]...)
			d.skipped += n
		}
	}
	if d.BlankRows.dropsTrailing() {
		n := 0
		for n < len(d.rows) && d.rows[len(d.rows)-1-n].IsBlank() {
			n++
		}
		if n > 0 {
			d.rows = d.rows[:len(d.rows)-n]
			d.skipped += n
		}
	}
	return nil
}

// ExportToStringArrays returns every row's raw values. Blank rows are nil.
func (d *DataImport) ExportToStringArrays() [][]pgtype.Text {
	out := make([][]pgtype.Text, len(d.rows))
	for i, row := range d.rows {
		out[i] = row.Values()
	}
	return out
}

// ExportToObjectArrays parses every row through its mapped columns. Blank
// rows are nil. Cells that failed under DataErrorEmbed hold a *CellError and
// are also collected into the returned error list.
func (d *DataImport) ExportToObjectArrays() ([][]any, []*CellError, error) {
	if !d.EnforceColumnCount {
		return nil, nil, ErrEnforcementRequired
	}
	mapped := d.MappedColumns()
	if len(mapped) == 0 {
		return nil, nil, ErrNoMappedColumns
	}

	out := make([][]any, len(d.rows))
	var cellErrs []*CellError
	for i, row := range d.rows {
		if row.IsBlank() {
			continue
		}
		if row.Len() != len(mapped) {
			return nil, nil, &ImportError{
				Line: row.LineNumber(),
				Err:  fmt.Errorf("%w: got %d values, expected %d", ErrLengthMismatch, row.Len(), len(mapped)),
			}
		}

		values := make([]any, len(mapped))
		for j, col := range mapped {
			v, err := col.Parse(row.values[j], j+1, row.LineNumber(), d.DataErrors)
			if err != nil {
				return nil, nil, err
			}
			if ce, ok := v.(*CellError); ok {
				cellErrs = append(cellErrs, ce)
			}
			values[j] = v
		}
		out[i] = values
	}
	return out, cellErrs, nil
}

// ExportToFormattedObjectStringArrays renders the result of
// ExportToObjectArrays back to display strings using each mapped column's
// Format. A row whose length differs from the mapped column count is an error.
func (d *DataImport) ExportToFormattedObjectStringArrays(rows [][]any) ([][]string, error) {
	mapped := d.MappedColumns()
	if len(mapped) == 0 {
		return nil, ErrNoMappedColumns
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		if len(row) != len(mapped) {
			return nil, fmt.Errorf("row %d: %w: got %d values, expected %d",
				i+1, ErrLengthMismatch, len(row), len(mapped))
		}
		formatted := make([]string, len(row))
		for j, v := range row {
			formatted[j] = mapped[j].Format(v)
		}
		out[i] = formatted
	}
	return out, nil
}
