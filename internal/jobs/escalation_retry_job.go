package jobs

import (
	"context"
	"log/slog"

	"freightdispatch/internal/core/application/usecases/commands"
)

const DefaultEscalationRetrySchedule = "@every 1m"

type EscalationRedeliverer interface {
	Handle(ctx context.Context) (commands.RetryEscalationDeliveriesResult, error)
}

// EscalationRetryJob resubmits escalations whose delivery to the matching
// service failed once their backoff has elapsed.
type EscalationRetryJob struct {
	*cronJob
	handler EscalationRedeliverer
	logger  *slog.Logger
}

func NewEscalationRetryJob(handler EscalationRedeliverer, schedule string, logger *slog.Logger) *EscalationRetryJob {
	if schedule == "" {
		schedule = DefaultEscalationRetrySchedule
	}
	j := &EscalationRetryJob{
		handler: handler,
		logger:  logger.With("component", "escalation_retry_job"),
	}
	j.cronJob = newCronJob("escalation retry", schedule, j.RunOnce, j.logger)
	return j
}

func (j *EscalationRetryJob) RunOnce(ctx context.Context) {
	result, err := j.handler.Handle(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "escalation retry failed", "error", err)
		return
	}
	if result.Due == 0 {
		return
	}
	j.logger.InfoContext(ctx, "escalation retry finished",
		"due", result.Due, "delivered", result.Delivered, "failed", result.Failed)
}
