package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferbench/inferbench/internal/service/benchrun"
	"github.com/inferbench/inferbench/internal/storage"
	"github.com/inferbench/inferbench/pkg/models"
)

// Mock implementations

type mockController struct {
	rejectTriggers bool
	running        bool
	report         *models.Report

	triggers []benchrun.TriggerConfig
}

func (m *mockController) Trigger(cfg benchrun.TriggerConfig) benchrun.TriggerResult {
	m.triggers = append(m.triggers, cfg)
	if m.rejectTriggers {
		return benchrun.TriggerResult{Accepted: false}
	}
	return benchrun.TriggerResult{Accepted: true, RunID: "run-abcd1234"}
}

func (m *mockController) Status() benchrun.Status {
	return benchrun.Status{Running: m.running, HasResults: m.report != nil}
}

func (m *mockController) Results() (*models.Report, error) {
	if m.report == nil {
		return nil, benchrun.ErrNoResults
	}
	return m.report, nil
}

type mockHistory struct {
	reports map[string]*models.Report
}

func (m *mockHistory) Get(ctx context.Context, id string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, storage.ErrReportNotFound
	}
	return r, nil
}

func (m *mockHistory) ListRecent(ctx context.Context, limit int) ([]*models.Report, error) {
	var out []*models.Report
	for _, r := range m.reports {
		out = append(out, r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sampleReport() *models.Report {
	return &models.Report{
		ID:        "report-test1234",
		Timestamp: time.Now(),
		SystemInfo: models.SystemInfo{
			CPUCount:      8,
			TotalMemoryGB: 16.0,
		},
		Results: []models.TestResult{
			{TestName: "short_prompt_warmup", Success: true, TokensPerSecond: 22.5},
		},
		Summary: models.SummaryStats{
			TotalTests:         1,
			Successful:         1,
			AvgTokensPerSecond: 22.5,
			AvgCPUPercent:      55.0,
			Utilization:        models.UtilizationModerate,
		},
	}
}

func setupTestServer(controller *mockController) *Server {
	server := New(controller, WithReportHistory(&mockHistory{
		reports: map[string]*models.Report{"report-test1234": sampleReport()},
	}))
	// Set server as ready by default in tests
	server.SetReady(true)
	return server
}

func TestHealth(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "benchmark-api", response.Service)
}

func TestHealthDuringRun(t *testing.T) {
	// Liveness stays 200 even while a benchmark is in flight.
	server := setupTestServer(&mockController{running: true})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyEndpoint(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyEndpointNotReady(t *testing.T) {
	server := setupTestServer(&mockController{})
	server.SetReady(false)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTriggerBenchmark(t *testing.T) {
	controller := &mockController{}
	server := setupTestServer(controller)

	req := httptest.NewRequest("POST", "/benchmark", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response TriggerBenchmarkResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "started", response.Status)
	assert.Equal(t, "run-abcd1234", response.RunID)
	require.Len(t, controller.triggers, 1)
	assert.Equal(t, benchrun.TriggerConfig{}, controller.triggers[0])
}

func TestTriggerBenchmarkWithOverrides(t *testing.T) {
	controller := &mockController{}
	server := setupTestServer(controller)

	body := strings.NewReader(`{"host": "10.0.0.5", "port": 9090, "model": "other-model"}`)
	req := httptest.NewRequest("POST", "/benchmark", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, controller.triggers, 1)
	assert.Equal(t, benchrun.TriggerConfig{
		Host:  "10.0.0.5",
		Port:  9090,
		Model: "other-model",
	}, controller.triggers[0])
}

func TestTriggerBenchmarkInvalidPort(t *testing.T) {
	controller := &mockController{}
	server := setupTestServer(controller)

	body := strings.NewReader(`{"port": 99999}`)
	req := httptest.NewRequest("POST", "/benchmark", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, controller.triggers)
}

func TestTriggerBenchmarkAlreadyRunning(t *testing.T) {
	server := setupTestServer(&mockController{rejectTriggers: true, running: true})

	req := httptest.NewRequest("POST", "/benchmark", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response TriggerBenchmarkResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "already_running", response.Status)
	assert.Empty(t, response.RunID)
}

func TestStatusIdle(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.False(t, response.Running)
	assert.False(t, response.HasResults)
}

func TestStatusRunning(t *testing.T) {
	server := setupTestServer(&mockController{running: true, report: sampleReport()})

	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.True(t, response.Running)
	assert.True(t, response.HasResults)
}

func TestResultsNoData(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/results", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "no_data", response.Status)
}

func TestResults(t *testing.T) {
	server := setupTestServer(&mockController{report: sampleReport()})

	req := httptest.NewRequest("GET", "/results", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.Report
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "report-test1234", response.ID)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "short_prompt_warmup", response.Results[0].TestName)
	assert.Equal(t, models.UtilizationModerate, response.Summary.Utilization)
}

func TestGetReport(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/api/v1/reports/report-test1234", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.Report
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "report-test1234", response.ID)
}

func TestGetReportNotFound(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/api/v1/reports/missing", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListReports(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/api/v1/reports", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Reports []models.Report `json:"reports"`
		Count   int             `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 1, response.Count)
}

func TestListReportsBadLimit(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/api/v1/reports?limit=0", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddlewarePreservesValid(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "client-id-123")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, "client-id-123", w.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddlewareRejectsInvalid(t *testing.T) {
	server := setupTestServer(&mockController{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces!")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	got := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "bad id with spaces!", got)
}
