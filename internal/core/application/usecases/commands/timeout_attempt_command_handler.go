package commands

import (
	"context"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// TimeoutAttemptCommandHandler closes an offer whose deadline has passed and
// moves the chain on. It fails with chain.ErrDeadlineNotReached before the
// deadline and with chain.ErrAttemptNotActive when the carrier answered in
// the meantime.
type TimeoutAttemptCommandHandler struct {
	mutator    chainMutator
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewTimeoutAttemptCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) TimeoutAttemptCommandHandler {
	return TimeoutAttemptCommandHandler{
		mutator:    newChainMutator(uowFactory, locker, clk),
		dispatcher: dispatcher,
		logger:     logger.With("component", "attempt-timeout"),
	}
}

func (h TimeoutAttemptCommandHandler) Handle(ctx context.Context, command AttemptCommand) (DispatchProgress, error) {
	if err := command.Validate(); err != nil {
		return DispatchProgress{}, err
	}

	c, events, err := h.mutator.mutate(ctx, command.ChainID(), func(c *chain.Chain, now time.Time) error {
		return c.Timeout(command.AttemptIndex(), now)
	})
	if err != nil {
		return DispatchProgress{}, err
	}
	h.dispatcher.Dispatch(ctx, events)

	h.logger.InfoContext(ctx, "offer timed out",
		"chain_id", c.ID().String(), "attempt", command.AttemptIndex(), "status", c.Status().String())
	return progressOf(c), nil
}
