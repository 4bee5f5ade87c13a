// Package core provides the import engine for delimited and fixed-width text.
//
// The package contains all parsing logic independent of any UI or transport
// layer. It is used by the web handlers, the CLI and tests without
// modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Column: name, layout position, field type and conversion options of
//     one field. Its converter is bound at construction from a [Converters]
//     set, so callers can inject their own conversions.
//   - DataImport: the rows of one import plus the blank row, truncation and
//     data error policies applied while rows are appended and exported.
//   - Tokenizers: [DelimitedTokenizer] and [FixedWidthTokenizer] split one
//     line into fields.
//   - Importer: drives line splitting, tokenizing and row import for text,
//     readers and files.
//
// # Declaring a Layout
//
//	last := core.MustNewColumn("LastName", core.FieldString).WithWidth(10)
//	born := core.MustNewColumn("Born", core.FieldFlatDate).WithWidth(8)
//	filler := core.MustNewColumn("Filler", core.FieldString).WithWidth(1).WithNotMapped()
//	code := core.MustNewColumn("Code", core.FieldString).WithWidth(2)
//
//	imp := &core.Importer{Columns: []*core.Column{last, born, filler, code}, FixedWidth: true}
//	d, err := imp.ImportText("Smith     20010519N01")
//
// # Row Flow
//
//  1. Lines are split on "\r\n", "\n" or "\r"
//  2. A blank first line and the header line (if any) are skipped
//  3. Each line is tokenized and passed to [DataImport.ImportRaw], which
//     applies the blank row policy, pads short rows and trims values
//  4. [DataImport.FinalizeImport] prunes leading and trailing blank rows
//  5. [DataImport.ExportToObjectArrays] converts values through each
//     column, honoring the [DataErrorPolicy]
//
// # Error Handling
//
// Row-shape failures are [*ImportError] values and conversion failures are
// [*CellError] values; both wrap a sentinel such as [ErrTooManyFields] or
// [ErrParse]. [MapError] maps any of them to a user-facing message and code.
package core
