package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/textimport/internal/layout"
)

func newLayoutCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Work with layout files",
	}
	cmd.AddCommand(newLayoutCheckCommand(a))
	return cmd
}

func newLayoutCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate layout files",
		Long: `Validate layout files without importing anything.

Each file is decoded strictly (unknown keys are errors), checked for required
fields, and its options, field types and locales are resolved.`,
		Example: `  textimport layout check layouts/*.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var errs []error
			for _, path := range args {
				l, err := layout.Load(path)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s\n", path)
					errs = append(errs, err)
					continue
				}
				if _, err := l.Importer(nil); err != nil {
					fmt.Fprintf(out, "FAIL %s\n", path)
					errs = append(errs, fmt.Errorf("layout %s: %w", path, err))
					continue
				}
				format := l.Format
				if format == "" {
					format = layout.FormatDelimited
				}
				fmt.Fprintf(out, "ok   %s: %s, %s, %d columns\n", path, l.Name, format, len(l.Columns))
			}
			if len(errs) > 0 {
				a.logger.Debug("layout check failed", "files", len(errs))
			}
			return errors.Join(errs...)
		},
	}
}
