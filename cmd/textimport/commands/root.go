// Package commands implements the textimport command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/textimport/internal/config"
	"github.com/JonMunkholm/textimport/internal/logging"
)

// app carries what every subcommand shares once the root command has run
// its pre-run hook.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	lookup   config.LookupFunc // nil means the process environment
	logLevel string
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return newRootCommand(&app{}, version, commit, buildDate).ExecuteContext(ctx)
}

func newRootCommand(a *app, version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "textimport",
		Short: "Import delimited and fixed-width text",
		Long: `textimport reads delimited or fixed-width text, applies blank row and
data error policies, and converts fields to typed values.

Defaults come from IMPORT_* environment variables (a .env file is honored).
Layout files (YAML or JSON) declare columns, types and options.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(newParseCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newLayoutCommand(a))

	return rootCmd
}

// init loads configuration and sets up logging.
func (a *app) init() error {
	var (
		cfg *config.Config
		err error
	)
	if a.lookup != nil {
		cfg, err = config.LoadFrom(a.lookup)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.Setup(level, cfg.Logging.Format)
	a.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}
