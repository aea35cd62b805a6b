package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	runHost  string
	runPort  int
	runModel string
	runWait  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger a benchmark run",
	Long: `Trigger a benchmark run against the configured target server.

Only one run can be in progress at a time; a second trigger while a run
is active is rejected.

Examples:
  benchctl run                         # Run against the default target
  benchctl run --port 8081             # Override the target port
  benchctl run --wait                  # Block until the run finishes`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runHost, "host", "", "Target server host override")
	runCmd.Flags().IntVar(&runPort, "port", 0, "Target server port override")
	runCmd.Flags().StringVar(&runModel, "model", "", "Model name override")
	runCmd.Flags().BoolVarP(&runWait, "wait", "w", false, "Wait for the run to complete and print the report")
}

func runRun(cmd *cobra.Command, args []string) error {
	payload := map[string]any{}
	if runHost != "" {
		payload["host"] = runHost
	}
	if runPort > 0 {
		payload["port"] = runPort
	}
	if runModel != "" {
		payload["model"] = runModel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := http.Post(serverURL+"/benchmark", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
	case http.StatusConflict:
		return fmt.Errorf("a benchmark run is already in progress")
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(respBody))
	}

	var trigger struct {
		Status string `json:"status"`
		RunID  string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&trigger); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Benchmark started (run_id: %s)\n", trigger.RunID)

	if !runWait {
		fmt.Println("Use 'benchctl status' to check progress and 'benchctl results' for the report.")
		return nil
	}

	if err := waitForCompletion(); err != nil {
		return err
	}
	return fetchAndPrintResults()
}

// waitForCompletion polls /status until the run finishes.
func waitForCompletion() error {
	fmt.Println("Waiting for benchmark to complete...")
	for {
		time.Sleep(2 * time.Second)

		resp, err := http.Get(serverURL + "/status")
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}

		var status struct {
			Running bool `json:"running"`
		}
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to parse status: %w", err)
		}

		if !status.Running {
			return nil
		}
	}
}
