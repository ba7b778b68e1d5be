package commands

import (
	"context"
	"log/slog"
	"sync/atomic"

	"freightdispatch/internal/pkg/clock"

	"golang.org/x/sync/errgroup"
)

const DefaultRetryBatch = 50

type RetryEscalationDeliveriesResult struct {
	Due       int
	Delivered int
	Failed    int
}

// RetryEscalationDeliveriesCommandHandler re-submits every escalation the
// matching service has not accepted yet and whose backoff has elapsed.
type RetryEscalationDeliveriesCommandHandler struct {
	uowFactory ChainUoWFactory
	submitter  EscalationSubmitter
	clock      clock.Clock
	batch      int
	workers    int
	logger     *slog.Logger
}

func NewRetryEscalationDeliveriesCommandHandler(
	uowFactory ChainUoWFactory,
	submitter EscalationSubmitter,
	clk clock.Clock,
	batch int,
	logger *slog.Logger,
) RetryEscalationDeliveriesCommandHandler {
	if batch <= 0 {
		batch = DefaultRetryBatch
	}
	return RetryEscalationDeliveriesCommandHandler{
		uowFactory: uowFactory,
		submitter:  submitter,
		clock:      clk,
		batch:      batch,
		workers:    4,
		logger:     logger.With("component", "escalation-retry"),
	}
}

func (h RetryEscalationDeliveriesCommandHandler) Handle(ctx context.Context) (RetryEscalationDeliveriesResult, error) {
	ids, err := h.uowFactory.Create().ChainRepository().ListEscalationDeliveriesDue(ctx, h.clock.Now(), h.batch)
	if err != nil {
		return RetryEscalationDeliveriesResult{}, err
	}

	var (
		delivered, failed atomic.Int64
		g                 errgroup.Group
	)
	g.SetLimit(h.workers)

	for _, id := range ids {
		g.Go(func() error {
			cmd, err := NewSubmitEscalationCommand(id)
			if err != nil {
				failed.Add(1)
				return nil
			}
			res, err := h.submitter.Handle(ctx, cmd)
			switch {
			case err != nil:
				failed.Add(1)
				h.logger.ErrorContext(ctx, "escalation redelivery aborted", "chain_id", id.String(), "error", err)
			case res.Delivered:
				delivered.Add(1)
			case !res.Skipped:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return RetryEscalationDeliveriesResult{
		Due:       len(ids),
		Delivered: int(delivered.Load()),
		Failed:    int(failed.Load()),
	}, nil
}
