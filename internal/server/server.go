// Package server provides the HTTP API with lifecycle management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitstack/nutridb/internal/metrics"
	"github.com/fitstack/nutridb/internal/models"
	"github.com/fitstack/nutridb/internal/service"
)

// WorkerTrigger starts enrichment work on demand.
type WorkerTrigger interface {
	RunCycle(ctx context.Context) (*service.CycleSummary, error)
	ScanAndEnqueue(ctx context.Context) (int, error)
}

// StatusReader serves pipeline status snapshots.
type StatusReader interface {
	Current(ctx context.Context) (*models.PipelineStatus, error)
}

// Server exposes the enrichment pipeline over HTTP.
type Server struct {
	http      *http.Server
	worker    WorkerTrigger
	status    StatusReader
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates the HTTP server on the given port. The collector may be nil.
func New(port int, worker WorkerTrigger, status StatusReader, collector *metrics.Collector, logger *slog.Logger) *Server {
	s := &Server{
		worker:    worker,
		status:    status,
		collector: collector,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/enrichment/run", s.handleRunCycle)
	mux.HandleFunc("POST /api/enrichment/scan", s.handleScan)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           LoggingMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run starts the server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("starting HTTP server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.status.Current(r.Context())
	if err != nil {
		s.logger.Error("status read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read pipeline status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	summary, err := s.worker.RunCycle(r.Context())
	if errors.Is(err, service.ErrCycleRunning) {
		writeError(w, http.StatusConflict, "a cycle is already running")
		return
	}
	if err != nil {
		s.logger.Error("cycle trigger failed", "error", err)
		writeError(w, http.StatusInternalServerError, "cycle failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	n, err := s.worker.ScanAndEnqueue(r.Context())
	if err != nil {
		s.logger.Error("scan trigger failed", "error", err)
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"enqueued": n})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
