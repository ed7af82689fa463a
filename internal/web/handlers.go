package web

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/salesetl/internal/extract"
	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/pipeline"
	"github.com/JonMunkholm/salesetl/internal/transform"
)

// defaultViewLimit caps rows returned by GET /api/views/{view}.
const defaultViewLimit = 1000

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "busy": s.runner.Busy()})
}

// handleRun runs the pipeline synchronously. The run keeps going if the
// client disconnects.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		runID := ""
		if res != nil {
			runID = res.RunID
		}
		respondRunError(w, r, err, runStatus(err), runID)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func runStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, extract.ErrMissingInput), errors.Is(err, transform.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	res := s.runner.Latest()
	if res == nil {
		respondError(w, r, ErrNoRun, http.StatusNotFound)
		return
	}
	writeJSON(w, res)
}

// ViewInfo describes one view of the latest run.
type ViewInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	views, ok := s.latestViews(w, r)
	if !ok {
		return
	}
	counts := views.RowCounts()
	out := make([]ViewInfo, 0, len(transform.ViewNames))
	for _, name := range transform.ViewNames {
		out = append(out, ViewInfo{Name: name, Rows: counts[name]})
	}
	writeJSON(w, out)
}

// ViewResponse is a page of rows from one view.
type ViewResponse struct {
	View    string   `json:"view"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	if !slices.Contains(transform.ViewNames, name) {
		respondError(w, r, ErrUnknownView, http.StatusNotFound)
		return
	}

	limit := defaultViewLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONStatus(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Code: "REQ001"})
			return
		}
		limit = n
	}

	views, ok := s.latestViews(w, r)
	if !ok {
		return
	}
	f := views.Get(name)
	if f == nil {
		f = frame.New(name)
	}
	page := f.Head(limit)
	rows := page.Rows
	if rows == nil {
		rows = [][]any{}
	}
	writeJSON(w, ViewResponse{View: name, Columns: f.Columns, Rows: rows, Total: f.Len()})
}

// latestViews writes a 404 and returns false when there is nothing to show.
func (s *Server) latestViews(w http.ResponseWriter, r *http.Request) (*transform.Views, bool) {
	res := s.runner.Latest()
	if res == nil || res.Views == nil {
		respondError(w, r, ErrNoRun, http.StatusNotFound)
		return nil, false
	}
	return res.Views, true
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	s.serveOutput(w, r, func(res *pipeline.Result) string { return res.ReportPath }, "application/pdf")
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s.serveOutput(w, r, func(res *pipeline.Result) string { return res.SnapshotPath }, "application/vnd.apache.parquet")
}

func (s *Server) serveOutput(w http.ResponseWriter, r *http.Request, pick func(*pipeline.Result) string, contentType string) {
	res := s.runner.Latest()
	if res == nil || pick(res) == "" {
		respondError(w, r, ErrNoRun, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, pick(res))
}
