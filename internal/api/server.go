// Package api exposes the layout engine over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/pdftext"
	"github.com/pagelens/pagelens/layout"
)

// Server is the HTTP API server for pagelens.
type Server struct {
	router   chi.Router
	analyzer *layout.Analyzer
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(analyzer *layout.Analyzer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		analyzer: analyzer,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/v1/analyze", s.handleAnalyze)
	r.Post("/v1/analyze/pdf", s.handleAnalyzePDF)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// analyzeRequest is the body of POST /v1/analyze.
type analyzeRequest struct {
	Pages []layout.PageInput `json:"pages"`
}

// analyzeResponse is the body of successful analyze calls.
type analyzeResponse struct {
	Pages any `json:"pages"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Pages) == 0 {
		s.writeError(w, http.StatusBadRequest, "no pages in request")
		return
	}

	s.runAnalysis(w, r, req.Pages)
}

// handleAnalyzePDF accepts a raw PDF body, extracts its text, and runs
// the same analysis as /v1/analyze.
func (s *Server) handleAnalyzePDF(w http.ResponseWriter, r *http.Request) {
	inputs, err := pdftext.Extract(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "extract pdf: "+err.Error())
		return
	}

	s.runAnalysis(w, r, inputs)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, inputs []layout.PageInput) {
	pages, err := s.analyzer.AnalyzeDocument(r.Context(), inputs, layout.DocumentOptions{
		Workers:            s.cfg.Workers,
		Logger:             s.log,
		UseGlobalFontStats: s.cfg.GlobalFontStats,
	})
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{Pages: pages})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
