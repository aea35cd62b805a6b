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

var reportsLimit int

var reportsCmd = &cobra.Command{
	Use:   "reports [id]",
	Short: "Browse persisted report history",
	Long: `List persisted benchmark reports, or show a single report by ID.

Examples:
  benchctl reports                  # List recent reports
  benchctl reports report-a1b2c3d4  # Show one report in full`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 20, "Maximum number of reports to list")
}

func runReports(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return showReport(args[0])
	}
	return listReports()
}

func showReport(id string) error {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/reports/%s", serverURL, id))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("report %s not found", id)
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

func listReports() error {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/reports?limit=%d", serverURL, reportsLimit))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(body))
	}

	var result struct {
		Reports []Report `json:"reports"`
		Count   int      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if len(result.Reports) == 0 {
		fmt.Println("No reports stored yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tPASSED\tAVG TOKENS/S\tAVG CPU\tUTILIZATION")
	fmt.Fprintln(w, "--\t---------\t------\t------------\t-------\t-----------")

	for _, r := range result.Reports {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%.1f\t%.1f%%\t%s\n",
			r.ID,
			r.Timestamp,
			r.Summary.Successful,
			r.Summary.TotalTests,
			r.Summary.AvgTokensPerSecond,
			r.Summary.AvgCPUPercent,
			r.Summary.Utilization,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d reports\n", result.Count)
	return nil
}
