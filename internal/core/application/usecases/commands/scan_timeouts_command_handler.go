package commands

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"

	"golang.org/x/sync/errgroup"
)

const DefaultScanWorkers = 8

type ScanTimeoutsResult struct {
	Scanned   int
	Reminders int
	Timeouts  int
	// Skipped counts chains another writer moved between read and write.
	Skipped int
	Failed  int
}

// ScanTimeoutsCommandHandler is one pass of the timeout monitor: every chain
// in progress is read, and the timeout or reminder it is due for is applied
// through the regular command handlers. A chain due for both only times out.
type ScanTimeoutsCommandHandler struct {
	uowFactory ChainUoWFactory
	timeouts   TimeoutAttemptCommandHandler
	reminders  SendReminderCommandHandler
	clock      clock.Clock
	metrics    ports.DispatchMetrics
	workers    int
	logger     *slog.Logger
}

func NewScanTimeoutsCommandHandler(
	uowFactory ChainUoWFactory,
	timeouts TimeoutAttemptCommandHandler,
	reminders SendReminderCommandHandler,
	clk clock.Clock,
	metrics ports.DispatchMetrics,
	workers int,
	logger *slog.Logger,
) ScanTimeoutsCommandHandler {
	if workers <= 0 {
		workers = DefaultScanWorkers
	}
	return ScanTimeoutsCommandHandler{
		uowFactory: uowFactory,
		timeouts:   timeouts,
		reminders:  reminders,
		clock:      clk,
		metrics:    metrics,
		workers:    workers,
		logger:     logger.With("component", "timeout-monitor"),
	}
}

func (h ScanTimeoutsCommandHandler) Handle(ctx context.Context) (ScanTimeoutsResult, error) {
	started := h.clock.Now()

	ids, err := h.uowFactory.Create().ChainRepository().ListInProgressIDs(ctx)
	if err != nil {
		return ScanTimeoutsResult{}, err
	}

	var (
		reminders, timeouts, skipped, failed atomic.Int64
		g                                    errgroup.Group
	)
	g.SetLimit(h.workers)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			switch outcome, err := h.check(ctx, id); {
			case err == nil:
				switch outcome {
				case scanReminder:
					reminders.Add(1)
				case scanTimeout:
					timeouts.Add(1)
				}
			case errors.Is(err, chain.ErrInvalidTransition):
				skipped.Add(1)
				h.logger.DebugContext(ctx, "chain moved during scan", "chain_id", id.String(), "error", err)
			default:
				failed.Add(1)
				h.logger.ErrorContext(ctx, "failed to process chain", "chain_id", id.String(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := ScanTimeoutsResult{
		Scanned:   len(ids),
		Reminders: int(reminders.Load()),
		Timeouts:  int(timeouts.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	h.metrics.MonitorScan(h.clock.Now().Sub(started), result.Scanned)

	return result, ctx.Err()
}

type scanOutcome int

const (
	scanNothing scanOutcome = iota
	scanReminder
	scanTimeout
)

func (h ScanTimeoutsCommandHandler) check(ctx context.Context, id kernel.UUID) (scanOutcome, error) {
	c, err := h.uowFactory.Create().ChainRepository().Get(ctx, id)
	if err != nil {
		return scanNothing, err
	}

	now := h.clock.Now()
	if idx, due := c.TimeoutDue(now); due {
		cmd, err := NewAttemptCommand(id, idx)
		if err != nil {
			return scanNothing, err
		}
		if _, err := h.timeouts.Handle(ctx, cmd); err != nil {
			return scanNothing, err
		}
		return scanTimeout, nil
	}
	if idx, due := c.ReminderDue(now); due {
		cmd, err := NewAttemptCommand(id, idx)
		if err != nil {
			return scanNothing, err
		}
		if err := h.reminders.Handle(ctx, cmd); err != nil {
			return scanNothing, err
		}
		return scanReminder, nil
	}
	return scanNothing, nil
}
