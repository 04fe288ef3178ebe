// Command hedge runs the Survival Score system: the read-only REST API,
// the batch scorer, the alert evaluator, and the cron dispatcher that ties
// them together on spec.md's daily/hourly/5-minute cadences.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hedge",
	Short: "Survival Score scoring system",
	Long: `hedge scores public companies on their resilience to currency
devaluation and systemic economic stress, ranks them, evaluates portfolio
exposure, and serves the results over a read-only REST API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/hedge.yaml", "path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
