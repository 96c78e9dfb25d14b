// Package schedule runs the monitoring pipeline on a fixed interval.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Runner invokes a job immediately and then on every interval tick
// until the context is canceled. Overlapping executions are prevented
// by running the job synchronously on the tick goroutine.
type Runner struct {
	logger   *slog.Logger
	interval time.Duration
}

// NewRunner creates an interval runner. Intervals below one minute are
// raised to one minute.
func NewRunner(interval time.Duration, logger *slog.Logger) *Runner {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Runner{interval: interval, logger: logger}
}

// Run blocks until the context is canceled. Job errors are logged and
// the schedule continues.
func (r *Runner) Run(ctx context.Context, job func(context.Context) error) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("scheduler started", "interval", r.interval)

	if err := job(ctx); err != nil {
		r.logger.Error("scheduled job failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := job(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error("scheduled job failed", "error", err)
			}
		}
	}
}
