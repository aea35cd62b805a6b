// Package models defines the core data types for inference benchmarking:
// test cases, resource samples, per-test results, and full run reports.
package models

import (
	"time"
)

// TestCase describes a single benchmark scenario. Test cases are defined
// at startup and never mutated; the declared order is significant (the
// first case acts as a warmup).
type TestCase struct {
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`

	// Temperature used for the chat completion request. Zero means the
	// suite default (0.7) applies.
	Temperature float64 `json:"temperature,omitempty"`
}

// Sample is one resource-usage observation of the target process tree.
// CPU, memory, and thread counts are aggregated over the process and its
// direct children.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemoryBytes uint64    `json:"memory_bytes"`
	ThreadCount int       `json:"thread_count"`
}

// SampleSet is the ordered series of samples collected during a single
// test case's execution. It is created empty when the test starts and is
// read-only once the test's inference call returns.
type SampleSet struct {
	Samples []Sample `json:"samples"`
}

// ResourceStats are the aggregate statistics derived from a SampleSet.
type ResourceStats struct {
	AvgCPUPercent  float64 `json:"avg_cpu_percent"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	AvgMemoryGB    float64 `json:"avg_memory_gb"`
	PeakMemoryGB   float64 `json:"peak_memory_gb"`
	AvgThreadCount float64 `json:"avg_thread_count"`
}

const bytesPerGB = 1024 * 1024 * 1024

// Stats computes aggregate statistics over the set. An empty set yields
// all-zero stats; resource metrics are best-effort and a missing target
// process is reported as zero, not as an error.
func (s *SampleSet) Stats() ResourceStats {
	if len(s.Samples) == 0 {
		return ResourceStats{}
	}

	var stats ResourceStats
	var cpuSum, memSum, threadSum float64
	for _, sample := range s.Samples {
		cpuSum += sample.CPUPercent
		memSum += float64(sample.MemoryBytes)
		threadSum += float64(sample.ThreadCount)

		if sample.CPUPercent > stats.PeakCPUPercent {
			stats.PeakCPUPercent = sample.CPUPercent
		}
		if gb := float64(sample.MemoryBytes) / bytesPerGB; gb > stats.PeakMemoryGB {
			stats.PeakMemoryGB = gb
		}
	}

	n := float64(len(s.Samples))
	stats.AvgCPUPercent = cpuSum / n
	stats.AvgMemoryGB = memSum / n / bytesPerGB
	stats.AvgThreadCount = threadSum / n
	return stats
}

// Len returns the number of collected samples.
func (s *SampleSet) Len() int {
	return len(s.Samples)
}

// TestResult holds the outcome of one test case execution. It is derived
// from one SampleSet and one inference outcome and is immutable once
// computed. Failed tests have Success=false, Error populated, and all
// numeric fields zeroed.
type TestResult struct {
	TestName                 string  `json:"test_name"`
	Success                  bool    `json:"success"`
	Error                    string  `json:"error,omitempty"`
	PromptTokens             int     `json:"prompt_tokens"`
	CompletionTokens         int     `json:"completion_tokens"`
	TokensPerSecond          float64 `json:"tokens_per_second"`
	FirstTokenLatencySeconds float64 `json:"first_token_latency_seconds"`
	// FirstTokenEstimated is true when the request was not streamed and
	// first-token latency is approximated as the total request time.
	FirstTokenEstimated bool    `json:"first_token_estimated,omitempty"`
	TotalTimeSeconds    float64 `json:"total_time_seconds"`
	AvgCPUPercent       float64 `json:"avg_cpu_percent"`
	PeakCPUPercent      float64 `json:"peak_cpu_percent"`
	AvgMemoryGB         float64 `json:"avg_memory_gb"`
	PeakMemoryGB        float64 `json:"peak_memory_gb"`
	AvgThreadCount      float64 `json:"avg_thread_count"`
}
