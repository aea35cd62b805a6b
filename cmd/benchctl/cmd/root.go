package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "benchctl",
	Short: "benchctl - control the inference benchmark service",
	Long: `benchctl drives the benchmark API server that exercises a local
inference server with an escalating workload suite.

This CLI tool allows you to:
- Trigger a benchmark run against the configured target
- Check whether a run is in progress
- Fetch the latest report
- Browse persisted report history`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getEnvOrDefault("BENCHD_URL", "http://localhost:8082"), "Benchmark API server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
