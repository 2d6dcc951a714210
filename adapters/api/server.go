// Package api exposes benchmark results over HTTP. Read-only: runs are
// started from the CLI; the API serves summaries and per-task reports to
// dashboards and leaderboard collectors.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fabbench/domain/core"
	"fabbench/domain/report"
	"fabbench/internal"
	"fabbench/ports"
)

// Server serves run results from the report sink.
type Server struct {
	sink   ports.ReportSink
	logger *internal.Logger
}

func NewServer(sink ports.ReportSink) *Server {
	return &Server{sink: sink, logger: internal.DefaultLogger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/runs/{runID}", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/reports", s.handleReports)
	})
	return r
}

// ListenAndServe runs the API on the given port.
func (s *Server) ListenAndServe(port string) error {
	s.logger.Info("[API] listening on :%s", port)
	return http.ListenAndServe(":"+port, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := s.sink.GetSummary(r.Context(), runID)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("[API] summary lookup failed for run %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reports, err := s.sink.ListReports(r.Context(), runID)
	if err != nil {
		s.logger.Error("[API] report listing failed for run %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if reports == nil {
		reports = []report.TaskReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
