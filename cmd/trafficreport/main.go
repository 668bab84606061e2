// Command trafficreport aggregates traffic sensor day files into datasets and
// renders them as PDF or Excel reports, either on demand from the command line
// or behind an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trafficreport",
		Short: "Traffic sensor analytics and report generation",
		Long: `trafficreport loads daily traffic sensor CSV files, aggregates a selected
range of days into one dataset and renders downloadable reports.

Configuration comes from environment variables (DATA_DIR, DATA_BASE_URL,
SPEED_LIMIT_KMH, CHART_BASE_URL, KAFKA_ENABLED, ...).

Examples:
  trafficreport serve
  trafficreport aggregate --range weekly
  trafficreport report --date 2017-10-30 --format xlsx --out reports/
  trafficreport validate`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		aggregateCmd(),
		reportCmd(),
		catalogCmd(),
		validateCmd(),
	)
	return root
}
