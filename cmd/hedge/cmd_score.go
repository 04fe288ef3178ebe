package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	progress "github.com/broseidonlordofthebrocean/hedge/internal/log"
)

var scoreDryRun bool

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the batch scorer once, for today",
	Long: `score runs the Batch Scorer (internal/batch) a single time against
today's date, scoring every active company's latest fundamentals and
printing a summary of the run.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreDryRun, "dry-run", false, "accepted but has no effect: every run persists survival_scores")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreDryRun {
		fmt.Println("--dry-run is not yet wired into the Batch Scorer; every run persists its results")
	}

	application, err := buildApp()
	if err != nil {
		return err
	}

	ctx := context.Background()
	runDate := time.Now().Truncate(24 * time.Hour)

	// Company count isn't known until the run starts, so this is a bare
	// spinner (total=0) rather than a percentage bar — the same
	// indicator backs hedge's other long-running CLI operations.
	indicator := progress.NewProgressIndicator("scoring", 0, progress.ProgressConfig{ShowSpinner: true})
	run, err := application.scorer.Run(ctx, runDate)
	if err != nil {
		indicator.Fail(err.Error())
		return fmt.Errorf("scoring run failed: %w", err)
	}
	indicator.FinishWithMessage(fmt.Sprintf("run %s: %d scored, %d failed", run.ID, run.CompaniesScored, run.CompaniesFailed))
	return nil
}
