package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/salesetl/internal/pipeline"
	"github.com/JonMunkholm/salesetl/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the pipeline on a schedule",
	Long: `serve exposes POST /api/runs to trigger a run, GET endpoints for the latest
result, views, report and snapshot, and runs the pipeline every
SCHEDULE_INTERVAL when that is set.`,
	Args: cobra.NoArgs,
	RunE: serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	runner := pipeline.NewRunner(a.pipeline)
	server := web.NewServer(runner, a.cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if a.cfg.Server.ScheduleInterval > 0 {
		go runner.StartScheduler(jobCtx, a.cfg.Server.ScheduleInterval)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if runner.Busy() {
			slog.Info("waiting for pipeline run to complete")
			if err := runner.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("pipeline run did not complete in time", "error", err)
			} else {
				slog.Info("pipeline run completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(a.cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
