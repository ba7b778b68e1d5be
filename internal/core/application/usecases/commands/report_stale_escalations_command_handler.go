package commands

import (
	"context"
	"log/slog"
	"time"

	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

const (
	StaleEscalationReportJob = "stale-escalation-report"

	DefaultStaleThreshold = 4 * time.Hour
	DefaultReportPeriod   = 24 * time.Hour
)

type ReportStaleEscalationsResult struct {
	// Ran is false when the report already ran within the period.
	Ran   bool
	Stale int
}

// ReportStaleEscalationsCommandHandler lists escalations that have been
// open longer than the threshold. It does its work at most once per period
// across restarts and instances; the job run record is read and written in
// the same transaction.
type ReportStaleEscalationsCommandHandler struct {
	uowFactory ReportUoWFactory
	clock      clock.Clock
	metrics    ports.DispatchMetrics
	threshold  time.Duration
	period     time.Duration
	logger     *slog.Logger
}

func NewReportStaleEscalationsCommandHandler(
	uowFactory ReportUoWFactory,
	clk clock.Clock,
	metrics ports.DispatchMetrics,
	threshold time.Duration,
	period time.Duration,
	logger *slog.Logger,
) ReportStaleEscalationsCommandHandler {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	if period <= 0 {
		period = DefaultReportPeriod
	}
	return ReportStaleEscalationsCommandHandler{
		uowFactory: uowFactory,
		clock:      clk,
		metrics:    metrics,
		threshold:  threshold,
		period:     period,
		logger:     logger.With("component", "stale-escalation-report"),
	}
}

func (h ReportStaleEscalationsCommandHandler) Handle(ctx context.Context) (ReportStaleEscalationsResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ReportStaleEscalationsResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock.Now()
	runs := uow.JobRunRepository()

	last, ok, err := runs.LastRun(ctx, StaleEscalationReportJob)
	if err != nil {
		return ReportStaleEscalationsResult{}, err
	}
	if ok && now.Sub(last) < h.period {
		return ReportStaleEscalationsResult{}, nil
	}

	stale, err := uow.ChainRepository().ListEscalatedBefore(ctx, now.Add(-h.threshold))
	if err != nil {
		return ReportStaleEscalationsResult{}, err
	}

	for _, c := range stale {
		e := c.Escalation()
		h.logger.WarnContext(ctx, "escalation is stale",
			"chain_id", c.ID().String(),
			"order_id", c.OrderID().String(),
			"order_reference", c.OrderReference(),
			"escalation_status", e.Status().String(),
			"reason", e.Reason(),
			"open_for", now.Sub(e.CreatedAt()).Round(time.Minute).String(),
			"delivery_attempts", e.DeliveryAttempts(),
		)
	}

	if err := runs.MarkRun(ctx, StaleEscalationReportJob, now); err != nil {
		return ReportStaleEscalationsResult{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return ReportStaleEscalationsResult{}, err
	}

	h.metrics.StaleEscalations(len(stale))
	h.logger.InfoContext(ctx, "stale escalation report finished", "stale", len(stale), "threshold", h.threshold.String())

	return ReportStaleEscalationsResult{Ran: true, Stale: len(stale)}, nil
}
