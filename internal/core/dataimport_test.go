package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

// importLines feeds each line as a single field, the way a delimited
// tokenizer would for single-column input.
func importLines(t *testing.T, d *DataImport, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := d.ImportRaw([]string{line}, 0); err != nil {
			t.Fatalf("ImportRaw(%q) unexpected error: %v", line, err)
		}
	}
}

func rowStrings(d *DataImport) [][]string {
	var out [][]string
	for _, row := range d.Rows() {
		out = append(out, row.Strings())
	}
	return out
}

func TestNewDataImport(t *testing.T) {
	d, err := NewDataImport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.EnforceColumnCount {
		t.Error("import without columns should not enforce column count")
	}

	d, err = NewDataImport(MustNewColumn("A", FieldString))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.EnforceColumnCount {
		t.Error("import with columns should enforce column count")
	}

	if _, err := NewDataImport(MustNewColumn("A", FieldString), nil); !errors.Is(err, ErrNilColumn) {
		t.Errorf("nil column error = %v, want ErrNilColumn", err)
	}
}

func TestImportRaw_Shape(t *testing.T) {
	cols := []*Column{
		MustNewColumn("A", FieldString),
		MustNewColumn("B", FieldString),
		MustNewColumn("C", FieldString),
	}

	t.Run("short rows padded", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		if _, err := d.ImportRaw([]string{"1"}, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := rowStrings(d), [][]string{{"1", "", ""}}; !reflect.DeepEqual(got, want) {
			t.Errorf("rows = %q, want %q", got, want)
		}
	})

	t.Run("too many fields", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		_, err := d.ImportRaw([]string{"1", "2", "3", "4"}, 6)
		if !errors.Is(err, ErrTooManyFields) {
			t.Fatalf("error = %v, want ErrTooManyFields", err)
		}
		var ie *ImportError
		if !errors.As(err, &ie) || ie.Line != 6 {
			t.Errorf("error = %#v, want *ImportError at line 6", err)
		}
		if d.RowCount() != 0 {
			t.Errorf("RowCount = %d, want 0", d.RowCount())
		}
	})

	t.Run("without columns rows keep their length", func(t *testing.T) {
		d, _ := NewDataImport()
		importLines(t, d, "x")
		if _, err := d.ImportRaw([]string{"a", "b", "c"}, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := rowStrings(d), [][]string{{"x"}, {"a", "b", "c"}}; !reflect.DeepEqual(got, want) {
			t.Errorf("rows = %q, want %q", got, want)
		}
	})

	t.Run("no mapped columns", func(t *testing.T) {
		d, _ := NewDataImport(MustNewColumn("X", FieldString).WithNotMapped())
		if _, err := d.ImportRaw([]string{"a"}, 0); !errors.Is(err, ErrNoMappedColumns) {
			t.Errorf("error = %v, want ErrNoMappedColumns", err)
		}
	})

	t.Run("line numbers", func(t *testing.T) {
		d, _ := NewDataImport()
		d.SkipLine()
		importLines(t, d, "a", "b")
		rows := d.Rows()
		if rows[0].LineNumber() != 2 || rows[1].LineNumber() != 3 {
			t.Errorf("line numbers = %d, %d; want 2, 3", rows[0].LineNumber(), rows[1].LineNumber())
		}
	})
}

func TestImportRaw_AutoTrunc(t *testing.T) {
	tests := []struct {
		mode AutoTruncate
		want []pgtype.Text
	}{
		{mode: AutoTruncNone, want: []pgtype.Text{text("  a "), text("   ")}},
		{mode: AutoTruncTrim, want: []pgtype.Text{text("a"), text("")}},
		{mode: AutoTruncZap, want: []pgtype.Text{text("a"), {}}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			d, _ := NewDataImport(MustNewColumn("A", FieldString), MustNewColumn("B", FieldString))
			d.AutoTrunc = tt.mode
			if _, err := d.ImportRaw([]string{"  a ", "   "}, 0); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := d.ExportToStringArrays()[0]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("values = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBlankRowPolicies(t *testing.T) {
	// Lines 1..6: blank, a, blank, b, blank, blank
	lines := []string{"", "a", " ", "b", "", "\t"}

	tests := []struct {
		policy      BlankRowPolicy
		wantRows    [][]string // nil entries are blank rows
		wantSkipped int
	}{
		{
			policy:      BlankRowAllow,
			wantRows:    [][]string{nil, {"a"}, nil, {"b"}, nil, nil},
			wantSkipped: 0,
		},
		{
			policy:      BlankRowDrop,
			wantRows:    [][]string{{"a"}, {"b"}},
			wantSkipped: 4,
		},
		{
			policy:      BlankRowDropLeading,
			wantRows:    [][]string{{"a"}, nil, {"b"}, nil, nil},
			wantSkipped: 1,
		},
		{
			policy:      BlankRowDropTrailing,
			wantRows:    [][]string{nil, {"a"}, nil, {"b"}},
			wantSkipped: 2,
		},
		{
			policy:      BlankRowDropLeadingAndTrailing,
			wantRows:    [][]string{{"a"}, nil, {"b"}},
			wantSkipped: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			d, _ := NewDataImport(MustNewColumn("V", FieldString))
			d.BlankRows = tt.policy
			importLines(t, d, lines...)
			if err := d.FinalizeImport(); err != nil {
				t.Fatalf("FinalizeImport unexpected error: %v", err)
			}

			if got := rowStrings(d); !reflect.DeepEqual(got, tt.wantRows) {
				t.Errorf("rows = %q, want %q", got, tt.wantRows)
			}
			if d.SkippedRows() != tt.wantSkipped {
				t.Errorf("SkippedRows = %d, want %d", d.SkippedRows(), tt.wantSkipped)
			}
			if total := d.RowCount() + d.SkippedRows(); total != len(lines) {
				t.Errorf("RowCount+SkippedRows = %d, want %d lines", total, len(lines))
			}
		})
	}
}

func TestBlankRowPolicy_StopImporting(t *testing.T) {
	d, _ := NewDataImport(MustNewColumn("V", FieldString))
	d.BlankRows = BlankRowStopImporting
	importLines(t, d, "a", "b")

	outcome, err := d.ImportRaw([]string{""}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != StopRequested {
		t.Errorf("outcome = %v, want %v", outcome, StopRequested)
	}
	if d.RowCount() != 2 || d.SkippedRows() != 1 {
		t.Errorf("RowCount = %d, SkippedRows = %d; want 2, 1", d.RowCount(), d.SkippedRows())
	}
}

func TestBlankRowPolicy_Error(t *testing.T) {
	d, _ := NewDataImport(MustNewColumn("V", FieldString))
	d.BlankRows = BlankRowError
	importLines(t, d, "a")

	_, err := d.ImportRaw(nil, 0)
	if !errors.Is(err, ErrBlankRow) {
		t.Fatalf("error = %v, want ErrBlankRow", err)
	}
	var ie *ImportError
	if !errors.As(err, &ie) || ie.Line != 2 {
		t.Errorf("error = %v, want *ImportError at line 2", err)
	}
}

func TestFinalizeImport_SingleBlankRow(t *testing.T) {
	d, _ := NewDataImport(MustNewColumn("V", FieldString))
	d.BlankRows = BlankRowDropLeadingAndTrailing
	importLines(t, d, "")
	if err := d.FinalizeImport(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.RowCount() != 0 || d.SkippedRows() != 1 {
		t.Errorf("RowCount = %d, SkippedRows = %d; want 0, 1", d.RowCount(), d.SkippedRows())
	}
}

func TestFinalizeImport_Idempotent(t *testing.T) {
	for _, policy := range []BlankRowPolicy{BlankRowAllow, BlankRowDrop, BlankRowDropTrailing, BlankRowDropLeadingAndTrailing} {
		t.Run(policy.String(), func(t *testing.T) {
			d, _ := NewDataImport(MustNewColumn("V", FieldString))
			d.BlankRows = policy
			importLines(t, d, "", "a", "", "b", "")
			if err := d.FinalizeImport(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			rows, skipped := rowStrings(d), d.SkippedRows()

			if err := d.FinalizeImport(); err != nil {
				t.Fatalf("second FinalizeImport unexpected error: %v", err)
			}
			if got := rowStrings(d); !reflect.DeepEqual(got, rows) {
				t.Errorf("rows changed on second finalize: %q -> %q", rows, got)
			}
			if d.SkippedRows() != skipped {
				t.Errorf("SkippedRows changed on second finalize: %d -> %d", skipped, d.SkippedRows())
			}
		})
	}
}

func TestAddColumn(t *testing.T) {
	t.Run("rebuilds existing rows", func(t *testing.T) {
		d, _ := NewDataImport(MustNewColumn("A", FieldString))
		d.AutoTrunc = AutoTruncZap
		importLines(t, d, "x", "", "y")

		before := d.Rows()
		if err := d.AddColumn(MustNewColumn("B", FieldString)); err != nil {
			t.Fatalf("AddColumn unexpected error: %v", err)
		}

		want := [][]pgtype.Text{{text("x"), {}}, nil, {text("y"), {}}}
		if got := d.ExportToStringArrays(); !reflect.DeepEqual(got, want) {
			t.Errorf("rows = %#v, want %#v", got, want)
		}
		if before[0].Len() != 1 {
			t.Errorf("previously returned row changed length to %d", before[0].Len())
		}
		if d.Rows()[2].LineNumber() != 3 {
			t.Errorf("line number lost on rebuild")
		}
	})

	t.Run("not mapped column leaves rows alone", func(t *testing.T) {
		d, _ := NewDataImport(MustNewColumn("A", FieldString))
		importLines(t, d, "x")
		if err := d.AddColumn(MustNewColumn("Skip", FieldString).WithNotMapped()); err != nil {
			t.Fatalf("AddColumn unexpected error: %v", err)
		}
		if got := d.Rows()[0].Len(); got != 1 {
			t.Errorf("row length = %d, want 1", got)
		}
	})

	t.Run("nil column", func(t *testing.T) {
		d, _ := NewDataImport()
		if err := d.AddColumn(nil); !errors.Is(err, ErrNilColumn) {
			t.Errorf("error = %v, want ErrNilColumn", err)
		}
	})
}

func TestExportToObjectArrays(t *testing.T) {
	cols := []*Column{
		MustNewColumn("Name", FieldString),
		MustNewColumn("Age", FieldInt),
		MustNewColumn("Active", FieldBool),
	}

	t.Run("typed rows", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		d.AutoTrunc = AutoTruncZap
		if _, err := d.ImportRaw([]string{"Ann", "34", "Y"}, 0); err != nil {
			t.Fatal(err)
		}
		if _, err := d.ImportRaw([]string{"Bob", " ", "n"}, 0); err != nil {
			t.Fatal(err)
		}

		rows, cellErrs, err := d.ExportToObjectArrays()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cellErrs) != 0 {
			t.Errorf("cell errors = %v, want none", cellErrs)
		}
		want := [][]any{{"Ann", 34, true}, {"Bob", nil, false}}
		if !reflect.DeepEqual(rows, want) {
			t.Errorf("rows = %#v, want %#v", rows, want)
		}
	})

	t.Run("throw aborts", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		if _, err := d.ImportRaw([]string{"Ann", "old", "Y"}, 0); err != nil {
			t.Fatal(err)
		}
		_, _, err := d.ExportToObjectArrays()
		var ce *CellError
		if !errors.As(err, &ce) || ce.Column != 2 || ce.ColumnName != "Age" || ce.Line != 1 {
			t.Errorf("error = %v, want CellError at line 1 column 2 (Age)", err)
		}
	})

	t.Run("embed keeps going", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		d.DataErrors = DataErrorEmbed
		if _, err := d.ImportRaw([]string{"Ann", "old", "Y"}, 0); err != nil {
			t.Fatal(err)
		}
		if _, err := d.ImportRaw([]string{"Bob", "20", "maybe"}, 0); err != nil {
			t.Fatal(err)
		}
		rows, cellErrs, err := d.ExportToObjectArrays()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cellErrs) != 2 {
			t.Fatalf("cell errors = %d, want 2", len(cellErrs))
		}
		if ce, ok := rows[0][1].(*CellError); !ok || ce.Raw != "old" {
			t.Errorf("rows[0][1] = %#v, want embedded CellError for \"old\"", rows[0][1])
		}
		if rows[1][1] != 20 {
			t.Errorf("rows[1][1] = %v, want 20", rows[1][1])
		}
	})

	t.Run("use default", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		d.DataErrors = DataErrorUseDefault
		if _, err := d.ImportRaw([]string{"Ann", "old", "maybe"}, 0); err != nil {
			t.Fatal(err)
		}
		rows, cellErrs, err := d.ExportToObjectArrays()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cellErrs) != 0 {
			t.Errorf("cell errors = %v, want none", cellErrs)
		}
		if want := []any{"Ann", 0, false}; !reflect.DeepEqual(rows[0], want) {
			t.Errorf("row = %#v, want %#v", rows[0], want)
		}
	})

	t.Run("blank rows stay nil", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		if _, err := d.ImportRaw(nil, 0); err != nil {
			t.Fatal(err)
		}
		rows, _, err := d.ExportToObjectArrays()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 || rows[0] != nil {
			t.Errorf("rows = %#v, want one nil row", rows)
		}
	})

	t.Run("requires enforcement", func(t *testing.T) {
		d, _ := NewDataImport()
		if _, _, err := d.ExportToObjectArrays(); !errors.Is(err, ErrEnforcementRequired) {
			t.Errorf("error = %v, want ErrEnforcementRequired", err)
		}
	})
}

func TestExportToFormattedObjectStringArrays(t *testing.T) {
	cols := []*Column{
		MustNewColumn("Name", FieldString),
		MustNewColumn("Born", FieldFlatDate),
		MustNewColumn("Amount", FieldCurrency),
	}
	cols[0].NullDisplay = "-"

	t.Run("round trip", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		d.DataErrors = DataErrorEmbed
		d.AutoTrunc = AutoTruncZap
		input := [][]string{
			{"Smith", "20010519", "12.50"},
			{"", "19991231", "-3"},
			{"Jones", "not-a-date", "7"},
		}
		for _, fields := range input {
			if _, err := d.ImportRaw(fields, 0); err != nil {
				t.Fatal(err)
			}
		}

		objects, _, err := d.ExportToObjectArrays()
		if err != nil {
			t.Fatalf("ExportToObjectArrays unexpected error: %v", err)
		}
		got, err := d.ExportToFormattedObjectStringArrays(objects)
		if err != nil {
			t.Fatalf("ExportToFormattedObjectStringArrays unexpected error: %v", err)
		}
		want := [][]string{
			{"Smith", "20010519", "12.50"},
			{"-", "19991231", "-3"},
			{"Jones", "not-a-date", "7"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("formatted = %q, want %q", got, want)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		d, _ := NewDataImport(cols...)
		_, err := d.ExportToFormattedObjectStringArrays([][]any{{"only one"}})
		if !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("error = %v, want ErrLengthMismatch", err)
		}
	})
}
