package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	apihttp "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

// splitAddr parses a "host:port" address (as config.ServerConfig.Addr
// stores it) into the Host/Port pair apihttp.ServerConfig expects.
func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "0.0.0.0", 8080
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8080
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the cron scheduler together",
	Long: `serve starts the read-only REST API (internal/interfaces/http) and
the cron dispatcher (internal/scheduler) in the same process, the normal
mode of operation for a deployed instance.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}

	sched, err := application.buildScheduler()
	if err != nil {
		return err
	}

	host, port := splitAddr(application.cfg.Server.Addr)
	server, err := apihttp.NewServer(
		apihttp.ServerConfig{
			Host:         host,
			Port:         port,
			ReadTimeout:  application.cfg.Server.ReadTimeout,
			WriteTimeout: application.cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		application.cfg.Auth,
		application.repos,
		application.aggregator,
		application.vendorMgr,
		application.dbManager.Health(),
		application.alertHub,
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("component failed, shutting down")
	}

	cancel()
	return server.Shutdown(context.Background())
}
