package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics for the API server
var (
	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path, and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts the total number of HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Benchmark run metrics
var (
	// RunsStarted counts accepted benchmark triggers
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "benchmark_runs_started_total",
			Help: "Total number of benchmark runs started",
		},
	)

	// RunsRejected counts triggers rejected because a run was in progress
	RunsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "benchmark_runs_rejected_total",
			Help: "Total number of benchmark triggers rejected while a run was in progress",
		},
	)

	// RunsCompleted counts finished runs by outcome
	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_runs_completed_total",
			Help: "Total number of benchmark runs completed by outcome (ok, failed)",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks full benchmark run durations
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchmark_run_duration_seconds",
			Help:    "Duration of full benchmark runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		},
	)

	// TestFailures counts failed test cases by name
	TestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_test_failures_total",
			Help: "Total number of failed benchmark test cases by test name",
		},
		[]string{"test"},
	)

	// LastRunTokensPerSecond reports the summary throughput of the most
	// recent completed run
	LastRunTokensPerSecond = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchmark_last_run_tokens_per_second",
			Help: "Average tokens per second across successful tests of the last completed run",
		},
	)

	// SamplerResolveFailures counts failed target process resolutions
	SamplerResolveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "benchmark_sampler_resolve_failures_total",
			Help: "Total number of sampling ticks that could not resolve the target process",
		},
	)
)

// Helper functions for common metric operations

// RecordHTTPRequest records the duration and increments the counter for an HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRunStarted increments the started-runs counter
func RecordRunStarted() {
	RunsStarted.Inc()
}

// RecordRunRejected increments the rejected-triggers counter
func RecordRunRejected() {
	RunsRejected.Inc()
}

// RecordRunCompleted records a finished run and its duration.
// outcome should be "ok" or "failed".
func RecordRunCompleted(outcome string, duration time.Duration) {
	RunsCompleted.WithLabelValues(outcome).Inc()
	RunDuration.Observe(duration.Seconds())
}

// RecordTestFailure increments the per-test failure counter
func RecordTestFailure(testName string) {
	TestFailures.WithLabelValues(testName).Inc()
}

// RecordLastRunThroughput updates the last-run throughput gauge
func RecordLastRunThroughput(tokensPerSecond float64) {
	LastRunTokensPerSecond.Set(tokensPerSecond)
}

// RecordSamplerResolveFailure increments the sampler resolution failure counter
func RecordSamplerResolveFailure() {
	SamplerResolveFailures.Inc()
}
