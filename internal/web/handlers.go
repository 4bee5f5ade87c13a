package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/textimport/internal/core"
	"github.com/JonMunkholm/textimport/internal/layout"
	"github.com/JonMunkholm/textimport/internal/logging"
	"github.com/JonMunkholm/textimport/internal/web/templates"
)

// ImportResponse is the JSON result of POST /api/import.
type ImportResponse struct {
	ImportID string `json:"importId"`
	Layout   string `json:"layout,omitempty"`
	*core.PreviewResponse
}

// LayoutInfo describes a registered layout.
type LayoutInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format"`
	Columns     int    `json:"columns"`
}

// handleIndex serves the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Page("Text import", templates.ImportForm(s.layouts.Names()))
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleHealth reports liveness and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"activeImports": s.limiter.Active(),
		"capacity":      s.limiter.Capacity(),
	})
}

// handleListLayouts lists the registered layouts.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	infos := []LayoutInfo{}
	for _, name := range s.layouts.Names() {
		l, ok := s.layouts.Get(name)
		if !ok {
			continue
		}
		format := l.Format
		if format == "" {
			format = layout.FormatDelimited
		}
		infos = append(infos, LayoutInfo{
			Name:        l.Name,
			Description: l.Description,
			Format:      format,
			Columns:     len(l.Columns),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleImport imports the request text and returns every row.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	resp, _, ok := s.runImport(w, r, 0)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview imports the request text and shows the first rows. It
// answers with HTML unless the client asks for JSON.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	resp, name, ok := s.runImport(w, r, s.cfg.Import.PreviewRows)
	if !ok {
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Page("Import preview", templates.Preview(name, resp.PreviewResponse))
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render preview", "error", err)
	}
}

// runImport performs one import under the concurrency limit. On failure it
// has already written the error response and returns ok == false.
func (s *Server) runImport(w http.ResponseWriter, r *http.Request, maxRows int) (*ImportResponse, string, bool) {
	start := time.Now()
	ctx := r.Context()

	in, err := s.readInput(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return nil, "", false
	}

	imp, name, err := s.importer(r, in.params)
	if err != nil {
		s.respondError(w, r, err, 0)
		return nil, name, false
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err, 0)
		return nil, name, false
	}
	defer s.limiter.Release()

	imp.ID = uuid.NewString()
	logger := logging.WithFields(ctx, "import_id", imp.ID, "layout", name)

	d, err := imp.ImportReader(ctx, in.body)
	if err != nil {
		s.respondError(w, r, err, 0)
		return nil, name, false
	}

	preview, err := core.BuildPreview(d, maxRows)
	if err != nil {
		s.respondError(w, r, err, 0)
		return nil, name, false
	}
	preview.ProcessingTimeMs = time.Since(start).Milliseconds()

	logger.Info("import completed",
		"rows", d.RowCount(),
		"skipped", d.SkippedRows(),
		"error_cells", preview.Summary.ErrorCells,
		"duration_ms", preview.ProcessingTimeMs,
	)

	return &ImportResponse{ImportID: imp.ID, Layout: name, PreviewResponse: preview}, name, true
}
