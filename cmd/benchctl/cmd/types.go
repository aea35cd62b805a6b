package cmd

// Report mirrors the API's report payload for CLI display.
// Note: timestamps stay strings because the CLI receives JSON and
// prints them directly; the server serializes time.Time as RFC3339.
type Report struct {
	ID         string       `json:"id"`
	Timestamp  string       `json:"timestamp"`
	SystemInfo SystemInfo   `json:"system_info"`
	Results    []TestResult `json:"results"`
	Summary    SummaryStats `json:"summary"`
	Error      string       `json:"error,omitempty"`
}

type SystemInfo struct {
	CPUCount      int     `json:"cpu_count"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
}

type TestResult struct {
	TestName            string  `json:"test_name"`
	Success             bool    `json:"success"`
	Error               string  `json:"error,omitempty"`
	PromptTokens        int     `json:"prompt_tokens"`
	CompletionTokens    int     `json:"completion_tokens"`
	TokensPerSecond     float64 `json:"tokens_per_second"`
	FirstTokenLatency   float64 `json:"first_token_latency_seconds"`
	FirstTokenEstimated bool    `json:"first_token_estimated"`
	TotalTime           float64 `json:"total_time_seconds"`
	AvgCPUPercent       float64 `json:"avg_cpu_percent"`
	PeakCPUPercent      float64 `json:"peak_cpu_percent"`
	AvgMemoryGB         float64 `json:"avg_memory_gb"`
	PeakMemoryGB        float64 `json:"peak_memory_gb"`
	AvgThreadCount      float64 `json:"avg_thread_count"`
}

type SummaryStats struct {
	TotalTests         int     `json:"total_tests"`
	Successful         int     `json:"successful"`
	Failed             int     `json:"failed"`
	AvgTokensPerSecond float64 `json:"avg_tokens_per_second"`
	AvgCPUPercent      float64 `json:"avg_cpu_percent"`
	PeakMemoryGB       float64 `json:"peak_memory_gb"`
	Utilization        string  `json:"utilization"`
}
