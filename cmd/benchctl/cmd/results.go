package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the latest benchmark report",
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	return fetchAndPrintResults()
}

func fetchAndPrintResults() error {
	resp, err := http.Get(serverURL + "/results")
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no results available, trigger a benchmark first")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(body))
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	printReport(&report)
	return nil
}

func printReport(report *Report) {
	fmt.Printf("Report %s (%s)\n", report.ID, report.Timestamp)
	fmt.Printf("System: %d CPUs, %.1f GB memory\n\n", report.SystemInfo.CPUCount, report.SystemInfo.TotalMemoryGB)

	if report.Error != "" {
		fmt.Printf("Run failed: %s\n", report.Error)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEST\tSTATUS\tTOKENS/S\tFIRST TOKEN\tTOTAL\tAVG CPU\tPEAK MEM")
	fmt.Fprintln(w, "----\t------\t--------\t-----------\t-----\t-------\t--------")

	for _, r := range report.Results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		firstToken := fmt.Sprintf("%.2fs", r.FirstTokenLatency)
		if r.FirstTokenEstimated {
			firstToken += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%.1fs\t%.1f%%\t%.2fGB\n",
			r.TestName,
			status,
			r.TokensPerSecond,
			firstToken,
			r.TotalTime,
			r.AvgCPUPercent,
			r.PeakMemoryGB,
		)
	}
	w.Flush()

	s := report.Summary
	fmt.Printf("\nSummary: %d/%d passed, avg %.1f tokens/s, avg CPU %.1f%%, peak memory %.2f GB (%s utilization)\n",
		s.Successful, s.TotalTests, s.AvgTokensPerSecond, s.AvgCPUPercent, s.PeakMemoryGB, s.Utilization)
}
