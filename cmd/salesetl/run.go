package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

// runOnce is also the root command's default action.
func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("outputs written",
		"run_id", res.RunID,
		"snapshot", res.SnapshotPath,
		"report", res.ReportPath,
		"pages", res.Pages,
	)
	return nil
}
