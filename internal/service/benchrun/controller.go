package benchrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inferbench/inferbench/internal/inference"
	"github.com/inferbench/inferbench/internal/logging"
	"github.com/inferbench/inferbench/internal/metrics"
	"github.com/inferbench/inferbench/pkg/models"
)

// ErrNoResults indicates no benchmark run has completed yet.
var ErrNoResults = errors.New("no benchmark results available")

// BenchmarkRunner is the runner surface the controller drives. It is an
// interface so tests can count invocations without real work.
type BenchmarkRunner interface {
	Run(ctx context.Context, target inference.Target) *models.Report
}

// ReportSink persists completed reports. Persistence is best-effort;
// the controller's in-memory copy stays authoritative.
type ReportSink interface {
	Save(ctx context.Context, report *models.Report) error
}

// TriggerConfig optionally overrides the default target for one run.
type TriggerConfig struct {
	Host  string
	Port  int
	Model string
}

// TriggerResult is the immediate answer to a trigger request.
type TriggerResult struct {
	Accepted bool
	RunID    string
}

// Status is a read-only snapshot of the controller state.
type Status struct {
	Running    bool
	HasResults bool
}

// Controller owns the process-wide run slot. It enforces at-most-one
// concurrent benchmark: while a run is in flight new triggers are
// rejected, never queued. All shared state lives behind its mutex.
type Controller struct {
	runner        BenchmarkRunner
	defaultTarget inference.Target
	sink          ReportSink
	exportPath    string
	logger        *slog.Logger

	mu      sync.Mutex
	running bool
	report  *models.Report

	// wg tracks the background run so tests and shutdown can wait for
	// the RUNNING to IDLE transition.
	wg sync.WaitGroup
}

// ControllerOption configures the controller.
type ControllerOption func(*Controller)

// WithReportSink sets a persistence sink for completed reports.
func WithReportSink(sink ReportSink) ControllerOption {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithExportPath enables a JSON file export of the latest report.
func WithExportPath(path string) ControllerOption {
	return func(c *Controller) {
		c.exportPath = path
	}
}

// WithControllerLogger sets a custom logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a run controller around the given runner and
// default target.
func NewController(runner BenchmarkRunner, defaultTarget inference.Target, opts ...ControllerOption) *Controller {
	c := &Controller{
		runner:        runner,
		defaultTarget: defaultTarget,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger attempts to start a benchmark run. If a run is already in
// progress it returns Accepted=false immediately, with no side effects.
// Otherwise it transitions to running, spawns the run in the
// background, and returns Accepted=true without blocking.
func (c *Controller) Trigger(cfg TriggerConfig) TriggerResult {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		metrics.RecordRunRejected()
		return TriggerResult{Accepted: false}
	}
	c.running = true
	c.mu.Unlock()

	runID := "run-" + uuid.New().String()[:8]
	target := c.resolveTarget(cfg)

	metrics.RecordRunStarted()
	c.logger.Info("benchmark run accepted",
		slog.String("run_id", runID),
		slog.String("target", target.BaseURL),
		slog.String("model", target.Model))

	c.wg.Add(1)
	go c.execute(runID, target)

	return TriggerResult{Accepted: true, RunID: runID}
}

// Status returns a lock-protected snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Running:    c.running,
		HasResults: c.report != nil,
	}
}

// Results returns the last stored report, or ErrNoResults if no run has
// ever completed. The returned report is a read-only snapshot; a run in
// progress builds a fresh report and swaps it in only at completion.
func (c *Controller) Results() (*models.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return nil, ErrNoResults
	}
	return c.report, nil
}

// Wait blocks until any in-flight run has completed. Used by graceful
// shutdown and tests.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// execute supervises one background run. Whatever happens - success,
// failure-shaped report, or panic - the controller stores a report and
// transitions back to idle; it must never remain stuck in running.
func (c *Controller) execute(runID string, target inference.Target) {
	defer c.wg.Done()

	ctx := logging.WithRunID(context.Background(), runID)
	start := time.Now()

	var report *models.Report
	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error(ctx, "benchmark runner panicked", "panic", fmt.Sprint(r))
				report = &models.Report{
					ID:        runID,
					Timestamp: time.Now(),
					Error:     fmt.Sprintf("internal error: %v", r),
				}
			}
		}()
		report = c.runner.Run(ctx, target)
	}()

	outcome := "ok"
	if report.Error != "" {
		outcome = "failed"
	}
	metrics.RecordRunCompleted(outcome, time.Since(start))
	if report.Error == "" {
		metrics.RecordLastRunThroughput(report.Summary.AvgTokensPerSecond)
	}

	c.persist(ctx, report)

	c.mu.Lock()
	c.report = report
	c.running = false
	c.mu.Unlock()

	logging.Info(ctx, "benchmark run finished",
		"outcome", outcome,
		"duration", time.Since(start).String(),
		"tests", len(report.Results),
		"successful", report.Summary.Successful)
}

// persist exports the report to disk and the sink. Both are
// best-effort: failures are logged and the in-memory report still
// becomes authoritative.
func (c *Controller) persist(ctx context.Context, report *models.Report) {
	if c.exportPath != "" {
		if err := exportJSON(c.exportPath, report); err != nil {
			logging.Warn(ctx, "failed to export report JSON",
				"path", c.exportPath, "error", err.Error())
		}
	}

	if c.sink != nil {
		saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := c.sink.Save(saveCtx, report); err != nil {
			logging.Warn(ctx, "failed to persist report", "error", err.Error())
		}
	}
}

func (c *Controller) resolveTarget(cfg TriggerConfig) inference.Target {
	target := c.defaultTarget
	if cfg.Host != "" || cfg.Port > 0 {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		if cfg.Port > 0 {
			target.BaseURL = fmt.Sprintf("http://%s:%d", host, cfg.Port)
		} else {
			target.BaseURL = "http://" + host
		}
	}
	if cfg.Model != "" {
		target.Model = cfg.Model
	}
	return target
}

func exportJSON(path string, report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
