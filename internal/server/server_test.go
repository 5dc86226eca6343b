package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/nutridb/internal/metrics"
	"github.com/fitstack/nutridb/internal/models"
	"github.com/fitstack/nutridb/internal/service"
)

type stubWorker struct {
	summary  *service.CycleSummary
	cycleErr error
	enqueued int
	scanErr  error
}

func (s *stubWorker) RunCycle(context.Context) (*service.CycleSummary, error) {
	return s.summary, s.cycleErr
}

func (s *stubWorker) ScanAndEnqueue(context.Context) (int, error) {
	return s.enqueued, s.scanErr
}

type stubStatus struct {
	status *models.PipelineStatus
	err    error
}

func (s *stubStatus) Current(context.Context) (*models.PipelineStatus, error) {
	return s.status, s.err
}

func newTestServer(worker *stubWorker, status *stubStatus) *Server {
	logger := slog.New(slog.DiscardHandler)
	return New(0, worker, status, metrics.NewCollector(), logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubWorker{}, &stubStatus{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	status := &stubStatus{status: &models.PipelineStatus{
		TotalFoods:          5,
		TotalVerified:       3,
		FoodsBelowThreshold: 2,
		AverageQualityScore: 76.5,
		QueueSize:           1,
	}}
	srv := newTestServer(&stubWorker{}, status)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.PipelineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.TotalFoods)
	assert.Equal(t, 76.5, got.AverageQualityScore)
}

func TestStatusEndpointError(t *testing.T) {
	srv := newTestServer(&stubWorker{}, &stubStatus{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRunCycleEndpoint(t *testing.T) {
	worker := &stubWorker{summary: &service.CycleSummary{
		Processed:  4,
		Successful: 3,
		Failed:     1,
		Remaining:  2,
	}}
	srv := newTestServer(worker, &stubStatus{})

	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/run", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got service.CycleSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Processed)
	assert.Equal(t, 2, got.Remaining)
}

func TestRunCycleConflictWhileRunning(t *testing.T) {
	srv := newTestServer(&stubWorker{cycleErr: service.ErrCycleRunning}, &stubStatus{})

	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/run", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunCycleRequiresPost(t *testing.T) {
	srv := newTestServer(&stubWorker{}, &stubStatus{})

	req := httptest.NewRequest(http.MethodGet, "/api/enrichment/run", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanEndpoint(t *testing.T) {
	srv := newTestServer(&stubWorker{enqueued: 7}, &stubStatus{})

	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/scan", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enqueued":7}`, rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(&stubWorker{}, &stubStatus{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
