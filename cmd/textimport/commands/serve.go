package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/textimport/internal/layout"
	"github.com/JonMunkholm/textimport/internal/web"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		port    int
		layouts []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP import server",
		Long: `Run the HTTP import server.

Endpoints:
  - GET  /            upload form
  - POST /preview     HTML preview of an uploaded file
  - POST /api/import  JSON import of a raw or multipart body
  - POST /api/preview JSON preview
  - GET  /api/layouts registered layouts
  - GET  /healthz     liveness and import slot usage

Layouts come from IMPORT_LAYOUTS and --layout flags and are selected with
the "layout" parameter.`,
		Example: `  # Serve two layouts on port 9000
  textimport serve --port 9000 --layout orders.yaml --layout payroll.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			paths := append(append([]string{}, a.cfg.Import.Layouts...), layouts...)
			set, err := layout.LoadAll(paths)
			if err != nil {
				return err
			}
			for _, name := range set.Names() {
				a.logger.Info("layout registered", "name", name)
			}

			return serve(cmd.Context(), a, web.NewServer(a.cfg, set))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	cmd.Flags().StringSliceVar(&layouts, "layout", nil, "layout file to serve (repeatable)")

	return cmd
}

// serve runs srv until it fails or ctx is cancelled, then shuts it down
// within the configured timeout.
func serve(ctx context.Context, a *app, srv *web.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("imports did not complete in time", "error", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
