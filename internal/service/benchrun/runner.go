package benchrun

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inferbench/inferbench/internal/inference"
	"github.com/inferbench/inferbench/internal/metrics"
	"github.com/inferbench/inferbench/internal/sampler"
	"github.com/inferbench/inferbench/pkg/models"
)

// InferenceClient is the slice of the inference client the runner needs.
type InferenceClient interface {
	Run(ctx context.Context, tc models.TestCase, target inference.Target) inference.Outcome
	Healthy(ctx context.Context, baseURL string) bool
}

// SystemInfoFunc reports host system information for the report header.
type SystemInfoFunc func(ctx context.Context) models.SystemInfo

// Runner executes a full benchmark pass: for each test case it starts a
// resource sampler, issues the blocking inference request, joins both,
// and derives per-test metrics. Test cases run strictly in declared
// order, one at a time; individual failures never abort the sequence.
type Runner struct {
	client   InferenceClient
	provider sampler.ProcessMetricsProvider
	interval time.Duration
	cases    []models.TestCase
	sysInfo  SystemInfoFunc
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithSampleInterval sets the resource sampling tick.
func WithSampleInterval(interval time.Duration) RunnerOption {
	return func(r *Runner) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithTestCases replaces the default suite.
func WithTestCases(cases []models.TestCase) RunnerOption {
	return func(r *Runner) {
		if len(cases) > 0 {
			r.cases = cases
		}
	}
}

// WithSystemInfo overrides host inspection (used by tests).
func WithSystemInfo(fn SystemInfoFunc) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.sysInfo = fn
		}
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a benchmark runner over the given inference client
// and process metrics provider.
func NewRunner(client InferenceClient, provider sampler.ProcessMetricsProvider, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:   client,
		provider: provider,
		interval: sampler.DefaultInterval,
		cases:    DefaultSuite(),
		sysInfo:  sampler.HostSystemInfo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the full suite against the target and assembles a
// report. It blocks the calling goroutine for the duration of the run;
// the controller invokes it from a supervised background goroutine.
func (r *Runner) Run(ctx context.Context, target inference.Target) *models.Report {
	report := &models.Report{
		ID:         "report-" + uuid.New().String()[:8],
		Timestamp:  time.Now(),
		SystemInfo: r.sysInfo(ctx),
	}

	if !r.client.Healthy(ctx, target.BaseURL) {
		r.logger.Error("target server failed health check",
			slog.String("base_url", target.BaseURL))
		report.Error = "target server is not responding: " + target.BaseURL
		report.Summary = models.Summarize(nil)
		return report
	}

	for _, tc := range r.cases {
		report.Results = append(report.Results, r.runCase(ctx, tc, target))
	}

	report.Summary = models.Summarize(report.Results)
	return report
}

// runCase executes one test case with concurrent sampling. The sampler
// ticks on its own goroutine while the inference call blocks here; it
// is stopped only after the call returns, sealing the sample set.
func (r *Runner) runCase(ctx context.Context, tc models.TestCase, target inference.Target) models.TestResult {
	r.logger.Info("running benchmark test",
		slog.String("test", tc.Name),
		slog.Int("max_tokens", tc.MaxTokens))

	smp := sampler.New(r.provider, r.interval, r.logger)
	smp.Start(ctx)

	outcome := r.client.Run(ctx, tc, target)

	samples := smp.Stop()

	if !outcome.Success {
		r.logger.Warn("benchmark test failed",
			slog.String("test", tc.Name),
			slog.String("error", outcome.Error))
		metrics.RecordTestFailure(tc.Name)
		return models.TestResult{
			TestName: tc.Name,
			Success:  false,
			Error:    outcome.Error,
		}
	}

	stats := samples.Stats()
	result := models.TestResult{
		TestName:                 tc.Name,
		Success:                  true,
		PromptTokens:             outcome.PromptTokens,
		CompletionTokens:         outcome.CompletionTokens,
		TokensPerSecond:          outcome.TokensPerSecond(),
		FirstTokenLatencySeconds: outcome.FirstTokenLatency.Seconds(),
		FirstTokenEstimated:      outcome.FirstTokenEstimated,
		TotalTimeSeconds:         outcome.TotalTime.Seconds(),
		AvgCPUPercent:            stats.AvgCPUPercent,
		PeakCPUPercent:           stats.PeakCPUPercent,
		AvgMemoryGB:              stats.AvgMemoryGB,
		PeakMemoryGB:             stats.PeakMemoryGB,
		AvgThreadCount:           stats.AvgThreadCount,
	}

	r.logger.Info("benchmark test completed",
		slog.String("test", tc.Name),
		slog.Float64("tokens_per_second", result.TokensPerSecond),
		slog.Float64("total_time_seconds", result.TotalTimeSeconds),
		slog.Float64("avg_cpu_percent", result.AvgCPUPercent),
		slog.Int("samples", samples.Len()))

	return result
}
