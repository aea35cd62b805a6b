package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/inferbench/inferbench/internal/service/benchrun"
	"github.com/inferbench/inferbench/internal/storage"
)

// Request/Response types

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Status    string `json:"status,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse is the readiness check response
type ReadyResponse struct {
	Ready bool `json:"ready"`
}

// TriggerBenchmarkRequest optionally overrides the benchmark target.
// The body is optional; an empty body runs against the configured
// default target.
type TriggerBenchmarkRequest struct {
	Host  string `json:"host,omitempty"`
	Port  int    `json:"port,omitempty" binding:"omitempty,min=1,max=65535"`
	Model string `json:"model,omitempty"`
}

// TriggerBenchmarkResponse is the immediate answer to a trigger.
type TriggerBenchmarkResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse reports whether a run is in progress and whether any
// results exist.
type StatusResponse struct {
	Running    bool      `json:"running"`
	HasResults bool      `json:"has_results"`
	Timestamp  time.Time `json:"timestamp"`
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	// Liveness only: deliberately independent of benchmark state.
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "benchmark-api",
		Timestamp: time.Now(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{Ready: true})
}

func (s *Server) handleTriggerBenchmark(c *gin.Context) {
	var req TriggerBenchmarkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     bindingErrorMessage(err),
				RequestID: c.GetString("request_id"),
			})
			return
		}
	}

	result := s.controller.Trigger(benchrun.TriggerConfig{
		Host:  req.Host,
		Port:  req.Port,
		Model: req.Model,
	})

	if !result.Accepted {
		c.JSON(http.StatusConflict, TriggerBenchmarkResponse{
			Status:    "already_running",
			Message:   "a benchmark run is already in progress",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusAccepted, TriggerBenchmarkResponse{
		Status:    "started",
		Message:   "benchmark started in background",
		RunID:     result.RunID,
		Timestamp: time.Now(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	status := s.controller.Status()
	c.JSON(http.StatusOK, StatusResponse{
		Running:    status.Running,
		HasResults: status.HasResults,
		Timestamp:  time.Now(),
	})
}

func (s *Server) handleResults(c *gin.Context) {
	report, err := s.controller.Results()
	if err != nil {
		if errors.Is(err, benchrun.ErrNoResults) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:     "no results available, trigger a benchmark first",
				Status:    "no_data",
				RequestID: c.GetString("request_id"),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     err.Error(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListReports(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "report history is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	reports, err := s.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "failed to list reports",
			RequestID: c.GetString("request_id"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

func (s *Server) handleGetReport(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "report history is not enabled"})
		return
	}

	report, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "failed to load report",
			RequestID: c.GetString("request_id"),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// bindingErrorMessage turns gin binding failures into readable messages.
func bindingErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		msgs := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			msgs = append(msgs, "invalid value for field "+strings.ToLower(fe.Field()))
		}
		return strings.Join(msgs, "; ")
	}
	return "invalid request body: " + err.Error()
}
