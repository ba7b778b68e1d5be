package commands

import (
	"context"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// CancelChainCommandHandler stops a chain for good. An escalation already
// accepted by the matching service is withdrawn there after commit.
type CancelChainCommandHandler struct {
	mutator    chainMutator
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewCancelChainCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) CancelChainCommandHandler {
	return CancelChainCommandHandler{
		mutator:    newChainMutator(uowFactory, locker, clk),
		dispatcher: dispatcher,
		logger:     logger.With("component", "chain-cancel"),
	}
}

func (h CancelChainCommandHandler) Handle(ctx context.Context, command CancelChainCommand) (DispatchProgress, error) {
	if err := command.Validate(); err != nil {
		return DispatchProgress{}, err
	}

	c, events, err := h.mutator.mutate(ctx, command.ChainID(), func(c *chain.Chain, now time.Time) error {
		return c.Cancel(command.Reason(), now)
	})
	if err != nil {
		return DispatchProgress{}, err
	}
	h.dispatcher.Dispatch(ctx, events)

	h.logger.InfoContext(ctx, "chain cancelled", "chain_id", c.ID().String(), "reason", command.Reason())
	return progressOf(c), nil
}
