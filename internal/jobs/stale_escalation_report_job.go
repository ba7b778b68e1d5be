package jobs

import (
	"context"
	"log/slog"

	"freightdispatch/internal/core/application/usecases/commands"
)

// The job ticks hourly; the handler itself decides whether a day has passed
// since its last run.
const DefaultStaleReportSchedule = "@hourly"

type StaleEscalationReporter interface {
	Handle(ctx context.Context) (commands.ReportStaleEscalationsResult, error)
}

type StaleEscalationReportJob struct {
	*cronJob
	handler StaleEscalationReporter
	logger  *slog.Logger
}

func NewStaleEscalationReportJob(handler StaleEscalationReporter, schedule string, logger *slog.Logger) *StaleEscalationReportJob {
	if schedule == "" {
		schedule = DefaultStaleReportSchedule
	}
	j := &StaleEscalationReportJob{
		handler: handler,
		logger:  logger.With("component", "stale_escalation_report_job"),
	}
	j.cronJob = newCronJob("stale escalation report", schedule, j.RunOnce, j.logger)
	return j
}

func (j *StaleEscalationReportJob) RunOnce(ctx context.Context) {
	result, err := j.handler.Handle(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "stale escalation report failed", "error", err)
		return
	}
	if result.Ran {
		j.logger.InfoContext(ctx, "stale escalation report finished", "stale", result.Stale)
	}
}
