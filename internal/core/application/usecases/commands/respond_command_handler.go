package commands

import (
	"context"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// RespondCommandHandler applies a carrier's acceptance or refusal. A refusal
// moves the offer to the next candidate, or escalates the chain when none is
// left; the returned progress reports which.
type RespondCommandHandler struct {
	mutator    chainMutator
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewRespondCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) RespondCommandHandler {
	return RespondCommandHandler{
		mutator:    newChainMutator(uowFactory, locker, clk),
		dispatcher: dispatcher,
		logger:     logger.With("component", "carrier-response"),
	}
}

func (h RespondCommandHandler) Handle(ctx context.Context, command RespondCommand) (DispatchProgress, error) {
	if err := command.Validate(); err != nil {
		return DispatchProgress{}, err
	}

	c, events, err := h.mutator.mutate(ctx, command.ChainID(), func(c *chain.Chain, now time.Time) error {
		if command.Accepted() {
			return c.Accept(command.CarrierID(), command.ProposedPrice(), now)
		}
		return c.Refuse(command.CarrierID(), command.Reason(), now)
	})
	if err != nil {
		return DispatchProgress{}, err
	}
	h.dispatcher.Dispatch(ctx, events)

	progress := progressOf(c)
	if command.Accepted() {
		progress.CarrierID = c.AssignedCarrierID()
	}
	h.logger.InfoContext(ctx, "carrier responded",
		"chain_id", c.ID().String(),
		"carrier_id", command.CarrierID(),
		"accepted", command.Accepted(),
		"status", c.Status().String(),
	)
	return progress, nil
}
