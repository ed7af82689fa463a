package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartScheduler runs the pipeline immediately and then every interval until
// ctx is cancelled. A tick that finds a run already active is skipped. Run
// failures are logged and do not stop the scheduler.
func (r *Runner) StartScheduler(ctx context.Context, interval time.Duration) {
	slog.Info("pipeline scheduler started", "interval", interval.String())

	r.scheduledRun(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pipeline scheduler stopped")
			return
		case <-ticker.C:
			r.scheduledRun(ctx)
		}
	}
}

func (r *Runner) scheduledRun(ctx context.Context) {
	res, err := r.Run(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		slog.Warn("scheduled run skipped, another run is active")
	case err != nil:
		slog.Error("scheduled run failed", "error", err)
	default:
		slog.Debug("scheduled run finished", "run_id", res.RunID)
	}
}
