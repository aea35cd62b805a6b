// Package inference provides a minimal client for OpenAI-compatible
// chat-completion endpoints, instrumented for benchmarking: it measures
// wall-clock time to first streamed token and to completion, and
// extracts token usage from the response.
package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/inferbench/inferbench/pkg/models"
)

// DefaultTimeout bounds a single completion request. Long generations
// are expected, so the default is generous.
const DefaultTimeout = 120 * time.Second

// DefaultTemperature is applied when a test case does not set one.
const DefaultTemperature = 0.7

// Target identifies the inference server under test.
type Target struct {
	BaseURL string
	Model   string
}

// Outcome is the result of a single completion request. All failures
// are represented in the value; Run never panics or returns an error.
type Outcome struct {
	Success          bool
	Error            string
	PromptTokens     int
	CompletionTokens int
	// FirstTokenLatency is measured from request send to the first
	// non-empty content chunk. For non-streamed requests it equals
	// TotalTime and FirstTokenEstimated is set.
	FirstTokenLatency   time.Duration
	FirstTokenEstimated bool
	TotalTime           time.Duration
}

// TokensPerSecond derives completion throughput, guarding against
// divide-by-zero for instant or empty generations.
func (o Outcome) TokensPerSecond() float64 {
	secs := o.TotalTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(o.CompletionTokens) / secs
}

// Client issues benchmark requests against an inference server.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	streaming  bool
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithStreaming toggles streamed completions. When disabled,
// first-token latency degrades to the total request time.
func WithStreaming(streaming bool) Option {
	return func(c *Client) {
		c.streaming = streaming
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a benchmark inference client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:   DefaultTimeout,
		streaming: true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// The http.Client timeout stays unset; each request carries its own
	// context deadline so timeouts are distinguishable from transport
	// failures.
	c.httpClient = &http.Client{}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage usage `json:"usage"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

// Run executes one chat-completion request for the test case and
// measures it. The returned outcome is failure-shaped on timeout,
// transport error, or a non-200 response.
func (c *Client) Run(ctx context.Context, tc models.TestCase, target Target) Outcome {
	temperature := tc.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	body, err := json.Marshal(chatRequest{
		Model:       target.Model,
		Messages:    []chatMessage{{Role: "user", Content: tc.Prompt}},
		Temperature: temperature,
		MaxTokens:   tc.MaxTokens,
		Stream:      c.streaming,
	})
	if err != nil {
		return Outcome{Error: err.Error()}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		target.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Outcome{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.streaming {
		req.Header.Set("Accept", "text/event-stream")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failedOutcome(err, time.Since(start))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Outcome{
			Error:     fmt.Sprintf("server returned %s: %s", resp.Status, strings.TrimSpace(string(raw))),
			TotalTime: time.Since(start),
		}
	}

	if c.streaming {
		return c.consumeStream(resp.Body, start)
	}
	return c.consumeResponse(resp.Body, start)
}

// consumeResponse handles a non-streamed completion. First-token
// latency is approximated as the full request time.
func (c *Client) consumeResponse(body io.Reader, start time.Time) Outcome {
	raw, err := io.ReadAll(body)
	if err != nil {
		return failedOutcome(err, time.Since(start))
	}
	total := time.Since(start)

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Outcome{Error: "malformed response: " + err.Error(), TotalTime: total}
	}
	if len(parsed.Choices) == 0 {
		return Outcome{Error: "response contained no choices", TotalTime: total}
	}

	return Outcome{
		Success:             true,
		PromptTokens:        parsed.Usage.PromptTokens,
		CompletionTokens:    parsed.Usage.CompletionTokens,
		FirstTokenLatency:   total,
		FirstTokenEstimated: true,
		TotalTime:           total,
	}
}

// consumeStream reads SSE chunks, recording the time of the first
// non-empty content delta. Token usage is taken from the final
// usage-bearing chunk; servers that omit it fall back to the delta
// count as a completion-token estimate.
func (c *Client) consumeStream(body io.Reader, start time.Time) Outcome {
	var (
		firstToken time.Duration
		gotFirst   bool
		deltaCount int
		finalUsage *usage
	)

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return failedOutcome(err, time.Since(start))
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping malformed stream chunk", slog.String("error", err.Error()))
			continue
		}
		if chunk.Usage != nil {
			finalUsage = chunk.Usage
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			deltaCount++
			if !gotFirst {
				firstToken = time.Since(start)
				gotFirst = true
			}
		}
	}
	total := time.Since(start)

	out := Outcome{
		Success:           true,
		FirstTokenLatency: firstToken,
		TotalTime:         total,
	}
	if !gotFirst {
		out.FirstTokenLatency = total
		out.FirstTokenEstimated = true
	}
	if finalUsage != nil {
		out.PromptTokens = finalUsage.PromptTokens
		out.CompletionTokens = finalUsage.CompletionTokens
	} else {
		out.CompletionTokens = deltaCount
	}
	return out
}

// Healthy probes the target's /health endpoint.
func (c *Client) Healthy(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// failedOutcome normalizes transport errors, mapping timeouts to the
// well-known "timeout" error string.
func failedOutcome(err error, elapsed time.Duration) Outcome {
	out := Outcome{TotalTime: elapsed}
	if isTimeout(err) {
		out.Error = "timeout"
	} else {
		out.Error = err.Error()
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
