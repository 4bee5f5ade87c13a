package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/textimport/internal/core"
	"github.com/JonMunkholm/textimport/internal/layout"
)

// optionFlags are the import option flags shared by commands that import.
type optionFlags struct {
	delimiter    string
	header       bool
	autoTruncate string
	blankRows    string
	dataErrors   string
	encoding     string
}

func (o *optionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.delimiter, "delimiter", "d", "", `field delimiter: one character or comma, tab, pipe, semicolon, space`)
	cmd.Flags().BoolVar(&o.header, "header", false, "skip the first line as a header")
	cmd.Flags().StringVar(&o.autoTruncate, "auto-truncate", "", "none, trim or zap")
	cmd.Flags().StringVar(&o.blankRows, "blank-rows", "", "allow, drop, drop_leading, drop_trailing, drop_leading_and_trailing, stop_importing or error")
	cmd.Flags().StringVar(&o.dataErrors, "data-errors", "", "throw, embed or ignore_and_use_default_value")
	cmd.Flags().StringVar(&o.encoding, "encoding", "", "input character encoding, e.g. windows-1252")
}

// apply overrides spec with the flags set on the command line.
func (o *optionFlags) apply(cmd *cobra.Command, spec *layout.OptionsSpec) {
	flags := cmd.Flags()
	if flags.Changed("delimiter") {
		spec.Delimiter = o.delimiter
	}
	if flags.Changed("header") {
		spec.HasHeader = o.header
	}
	if flags.Changed("auto-truncate") {
		spec.AutoTruncate = o.autoTruncate
	}
	if flags.Changed("blank-rows") {
		spec.BlankRows = o.blankRows
	}
	if flags.Changed("data-errors") {
		spec.DataErrors = o.dataErrors
	}
	if flags.Changed("encoding") {
		spec.Encoding = o.encoding
	}
}

func newParseCommand(a *app) *cobra.Command {
	var (
		opts       optionFlags
		layoutPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Import a text file and print the rows",
		Long: `Import a delimited or fixed-width text file and print its rows.

Without a layout every field is kept as text and rows may differ in length.
With a layout the fields are converted to the declared types and printed in
their canonical form. The file defaults to standard input.

Output formats:
  - csv: one record per row, blank rows as empty lines
  - tsv: like csv with tab separators
  - json: columns, summary, rows with line numbers and conversion errors`,
		Example: `  # Re-emit a semicolon-separated file as CSV
  textimport parse -d semicolon data.txt

  # Convert through a layout, embedding bad cells instead of failing
  textimport parse --layout payroll.yaml --data-errors embed -o json payroll.dat

  # Read a Latin-1 file from stdin
  cat legacy.csv | textimport parse --encoding iso-8859-1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := a.importer(cmd, &opts, layoutPath)
			if err != nil {
				return err
			}

			var d *core.DataImport
			if len(args) == 1 && args[0] != "-" {
				d, err = imp.ImportFile(cmd.Context(), args[0])
			} else {
				d, err = imp.ImportReader(cmd.Context(), cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			if err := writeRows(cmd.OutOrStdout(), d, output); err != nil {
				return err
			}
			a.logger.Info("import completed", "rows", d.RowCount(), "skipped", d.SkippedRows())
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&output, "output", "o", "csv", "output format: csv, tsv or json")

	return cmd
}

// importer builds an importer from the configured defaults or a layout
// file, then applies the option flags.
func (a *app) importer(cmd *cobra.Command, opts *optionFlags, layoutPath string) (*core.Importer, error) {
	imp := &core.Importer{Logger: a.logger}
	spec := layout.OptionsSpec{
		Delimiter:    a.cfg.Import.Delimiter,
		HasHeader:    a.cfg.Import.HasHeader,
		AutoTruncate: a.cfg.Import.AutoTruncate,
		BlankRows:    a.cfg.Import.BlankRows,
		DataErrors:   a.cfg.Import.DataErrors,
		Encoding:     a.cfg.Import.Encoding,
	}

	if layoutPath != "" {
		l, err := layout.Load(layoutPath)
		if err != nil {
			return nil, err
		}
		if imp.Columns, err = l.BuildColumns(core.DefaultConverters()); err != nil {
			return nil, err
		}
		imp.FixedWidth = l.Format == layout.FormatFixed
		imp.Logger = a.logger.With("layout", l.Name)
		spec = l.OptionsSpec
	}
	if spec.MaxLineLength == 0 {
		spec.MaxLineLength = a.cfg.Import.MaxLineLength
	}
	opts.apply(cmd, &spec)

	resolved, err := layout.ParseOptions(spec)
	if err != nil {
		return nil, err
	}
	resolved.Apply(imp)
	return imp, nil
}

// writeRows prints d in the requested format. Declared columns are printed
// as converted, formatted values; otherwise the raw text is printed.
func writeRows(w io.Writer, d *core.DataImport, format string) error {
	switch format {
	case "json":
		p, err := core.BuildPreview(d, 0)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)

	case "csv", "tsv":
		var rows [][]string
		if d.EnforceColumnCount {
			objects, _, err := d.ExportToObjectArrays()
			if err != nil {
				return err
			}
			if rows, err = d.ExportToFormattedObjectStringArrays(objects); err != nil {
				return err
			}
		} else {
			for _, row := range d.Rows() {
				rows = append(rows, row.Strings())
			}
		}

		cw := csv.NewWriter(w)
		if format == "tsv" {
			cw.Comma = '\t'
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	default:
		return fmt.Errorf("unknown output format %q: %w", format, core.ErrUnknownOption)
	}
}
