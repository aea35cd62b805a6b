package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		avgCPU   float64
		expected string
	}{
		{"well above threshold", 85.0, UtilizationGood},
		{"just above good threshold", 60.01, UtilizationGood},
		{"exactly sixty is moderate", 60.0, UtilizationModerate},
		{"mid range", 45.0, UtilizationModerate},
		{"exactly thirty is moderate", 30.0, UtilizationModerate},
		{"just below thirty", 29.99, UtilizationLow},
		{"idle", 0.0, UtilizationLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.avgCPU))
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalTests)
	assert.Equal(t, 0, summary.Successful)
	assert.Equal(t, 0, summary.Failed)
	assert.Zero(t, summary.AvgTokensPerSecond)
	assert.Empty(t, summary.Utilization)
}

func TestSummarizeExcludesFailures(t *testing.T) {
	results := []TestResult{
		{TestName: "a", Success: true, TokensPerSecond: 20, AvgCPUPercent: 50, PeakMemoryGB: 2.0},
		{TestName: "b", Success: false, Error: "timeout"},
		{TestName: "c", Success: true, TokensPerSecond: 40, AvgCPUPercent: 80, PeakMemoryGB: 3.0},
	}

	summary := Summarize(results)

	assert.Equal(t, 3, summary.TotalTests)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.InDelta(t, 30.0, summary.AvgTokensPerSecond, 0.001)
	assert.InDelta(t, 65.0, summary.AvgCPUPercent, 0.001)
	assert.InDelta(t, 3.0, summary.PeakMemoryGB, 0.001)
	assert.Equal(t, UtilizationGood, summary.Utilization)
}

func TestSummarizeAllFailed(t *testing.T) {
	results := []TestResult{
		{TestName: "a", Success: false, Error: "timeout"},
		{TestName: "b", Success: false, Error: "connection refused"},
	}

	summary := Summarize(results)

	assert.Equal(t, 2, summary.TotalTests)
	assert.Equal(t, 0, summary.Successful)
	assert.Equal(t, 2, summary.Failed)
	assert.Zero(t, summary.AvgTokensPerSecond)
	assert.Zero(t, summary.AvgCPUPercent)
	assert.Empty(t, summary.Utilization)
}
