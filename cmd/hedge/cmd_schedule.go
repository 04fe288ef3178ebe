package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the cron dispatcher in the foreground, without the HTTP API",
	Long: `schedule runs the Batch Scorer, Alert Evaluator, macro refresh, and
market-data refresh jobs on their configured cron cadences, with no HTTP
server — useful for a worker deployment separate from the API process.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}

	sched, err := application.buildScheduler()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Info().Str("signal", s.String()).Msg("shutting down scheduler")
		cancel()
	}()

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
