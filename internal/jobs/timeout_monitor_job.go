package jobs

import (
	"context"
	"log/slog"

	"freightdispatch/internal/core/application/usecases/commands"
)

const DefaultTimeoutMonitorSchedule = "@every 60s"

type TimeoutScanner interface {
	Handle(ctx context.Context) (commands.ScanTimeoutsResult, error)
}

// TimeoutMonitorJob sends due reminders and closes expired attempts of
// every chain in progress.
type TimeoutMonitorJob struct {
	*cronJob
	handler TimeoutScanner
	logger  *slog.Logger
}

func NewTimeoutMonitorJob(handler TimeoutScanner, schedule string, logger *slog.Logger) *TimeoutMonitorJob {
	if schedule == "" {
		schedule = DefaultTimeoutMonitorSchedule
	}
	j := &TimeoutMonitorJob{
		handler: handler,
		logger:  logger.With("component", "timeout_monitor_job"),
	}
	j.cronJob = newCronJob("timeout monitor", schedule, j.RunOnce, j.logger)
	return j
}

func (j *TimeoutMonitorJob) RunOnce(ctx context.Context) {
	result, err := j.handler.Handle(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "timeout scan failed", "error", err)
		return
	}
	if result.Reminders+result.Timeouts+result.Failed == 0 {
		return
	}

	level := slog.LevelInfo
	if result.Failed > 0 {
		level = slog.LevelWarn
	}
	j.logger.Log(ctx, level, "timeout scan finished",
		"scanned", result.Scanned,
		"reminders", result.Reminders,
		"timeouts", result.Timeouts,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
}
