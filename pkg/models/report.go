package models

import (
	"time"
)

// Utilization classification buckets for average CPU usage. These are
// for human interpretation only and drive no control decisions.
const (
	UtilizationGood     = "good"
	UtilizationModerate = "moderate"
	UtilizationLow      = "low"
)

// Classify buckets an average CPU percentage into a coarse utilization
// label: above 60% is "good", 30-60% inclusive is "moderate", below 30%
// is "low".
func Classify(avgCPUPercent float64) string {
	switch {
	case avgCPUPercent > 60:
		return UtilizationGood
	case avgCPUPercent >= 30:
		return UtilizationModerate
	default:
		return UtilizationLow
	}
}

// SystemInfo describes the host the benchmark ran on.
type SystemInfo struct {
	CPUCount      int     `json:"cpu_count"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
}

// SummaryStats aggregates across the successful results of one run.
// With zero successful results all fields are zero.
type SummaryStats struct {
	TotalTests         int     `json:"total_tests"`
	Successful         int     `json:"successful"`
	Failed             int     `json:"failed"`
	AvgTokensPerSecond float64 `json:"avg_tokens_per_second"`
	AvgCPUPercent      float64 `json:"avg_cpu_percent"`
	PeakMemoryGB       float64 `json:"peak_memory_gb"`
	Utilization        string  `json:"utilization,omitempty"`
}

// Report is the full output of one benchmark run. Once stored it is
// treated as a read-only snapshot; a new run builds a fresh report and
// swaps it in only at completion.
type Report struct {
	ID         string       `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	SystemInfo SystemInfo   `json:"system_info"`
	Results    []TestResult `json:"results"`
	Summary    SummaryStats `json:"summary"`
	// Error is set when the run itself failed before producing results
	// (for example an unreachable target server or a runner panic).
	Error string `json:"error,omitempty"`
}

// Summarize computes SummaryStats over the successful entries of
// results. Failed tests count toward the totals but contribute nothing
// to the averages.
func Summarize(results []TestResult) SummaryStats {
	summary := SummaryStats{TotalTests: len(results)}

	var tpsSum, cpuSum float64
	for _, r := range results {
		if !r.Success {
			summary.Failed++
			continue
		}
		summary.Successful++
		tpsSum += r.TokensPerSecond
		cpuSum += r.AvgCPUPercent
		if r.PeakMemoryGB > summary.PeakMemoryGB {
			summary.PeakMemoryGB = r.PeakMemoryGB
		}
	}

	if summary.Successful > 0 {
		n := float64(summary.Successful)
		summary.AvgTokensPerSecond = tpsSum / n
		summary.AvgCPUPercent = cpuSum / n
		summary.Utilization = Classify(summary.AvgCPUPercent)
	}
	return summary
}
