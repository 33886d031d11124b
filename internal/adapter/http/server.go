package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 500
)

// Analyzer runs the crisis pipeline for HTTP callers.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.ReportRequest) domain.AnalysisRecord
	AnalyzeBatch(ctx context.Context, texts, sources, locations []string) ([]domain.AnalysisRecord, error)
}

// Server exposes the analysis API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /analyze_crisis, /analyze_batch,
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, analyzer Analyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("POST /analyze_crisis", s.handleAnalyze)
	mux.HandleFunc("POST /analyze_batch", s.handleBatch)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type analyzeRequest struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Location *string `json:"location"`
}

type batchRequest struct {
	Texts     []string `json:"texts"`
	Sources   []string `json:"sources"`
	Locations []string `json:"locations"`
}

type batchResponse struct {
	Count   int                     `json:"count"`
	Results []domain.AnalysisRecord `json:"results"`
}

// handleAnalyze serves POST /analyze_crisis. An omitted, null or blank
// location all mean the same thing: the location is extracted from the text.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("text is required: %w", domain.ErrInvalidInput))
		return
	}
	if body.Location != nil && strings.TrimSpace(*body.Location) == "" {
		body.Location = nil
	}

	rec := s.analyzer.Analyze(r.Context(), domain.ReportRequest{
		Text:     body.Text,
		Source:   body.Source,
		Location: body.Location,
	})
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	switch {
	case len(body.Texts) == 0:
		writeError(w, http.StatusBadRequest, fmt.Errorf("texts is required: %w", domain.ErrInvalidInput))
		return
	case len(body.Texts) > maxBatchSize:
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("batch of %d exceeds limit of %d", len(body.Texts), maxBatchSize))
		return
	}

	recs, err := s.analyzer.AnalyzeBatch(r.Context(), body.Texts, body.Sources, body.Locations)
	if err != nil {
		s.logger.Warn("batch analysis aborted", "error", err, "batch_size", len(body.Texts))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Count: len(recs), Results: recs})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
