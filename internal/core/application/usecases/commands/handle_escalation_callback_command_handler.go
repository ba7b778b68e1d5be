package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

type EscalationCallbackResult struct {
	ChainID kernel.UUID
	// Applied is false for repeated or late callbacks, which are ignored.
	Applied bool
	Status  chain.Status
}

// HandleEscalationCallbackCommandHandler resolves the escalation of the
// order's latest chain. Callbacks for orders without a chain fail with
// errs.ErrObjectNotFound; callbacks for an escalation that is no longer
// active are acknowledged without effect.
type HandleEscalationCallbackCommandHandler struct {
	uowFactory ChainUoWFactory
	mutator    chainMutator
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewHandleEscalationCallbackCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) HandleEscalationCallbackCommandHandler {
	return HandleEscalationCallbackCommandHandler{
		uowFactory: uowFactory,
		mutator:    newChainMutator(uowFactory, locker, clk),
		dispatcher: dispatcher,
		logger:     logger.With("component", "escalation-callback"),
	}
}

func (h HandleEscalationCallbackCommandHandler) Handle(
	ctx context.Context,
	command EscalationCallbackCommand,
) (EscalationCallbackResult, error) {
	if err := command.Validate(); err != nil {
		return EscalationCallbackResult{}, err
	}

	latest, err := h.uowFactory.Create().ChainRepository().GetLatestByOrderID(ctx, command.OrderID())
	if err != nil {
		return EscalationCallbackResult{}, err
	}

	c, events, err := h.mutator.mutate(ctx, latest.ID(), func(c *chain.Chain, now time.Time) error {
		return c.ResolveEscalation(command.ExternalRequestID(), command.Matched(), command.CarrierID(), command.Reason(), now)
	})
	if errors.Is(err, chain.ErrInvalidTransition) {
		status := latest.Status()
		if c != nil {
			status = c.Status()
		}
		h.logger.InfoContext(ctx, "escalation callback ignored",
			"chain_id", latest.ID().String(),
			"external_request_id", command.ExternalRequestID(),
			"reason", err.Error(),
		)
		return EscalationCallbackResult{ChainID: latest.ID(), Applied: false, Status: status}, nil
	}
	if err != nil {
		return EscalationCallbackResult{}, err
	}
	h.dispatcher.Dispatch(ctx, events)

	h.logger.InfoContext(ctx, "escalation resolved",
		"chain_id", c.ID().String(),
		"external_request_id", command.ExternalRequestID(),
		"matched", command.Matched(),
		"carrier_id", command.CarrierID(),
	)
	return EscalationCallbackResult{ChainID: c.ID(), Applied: true, Status: c.Status()}, nil
}
