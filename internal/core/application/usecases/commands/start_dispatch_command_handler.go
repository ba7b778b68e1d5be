package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// DispatchProgress describes where a chain stands after a command moved it.
type DispatchProgress struct {
	Status         chain.Status
	CurrentAttempt *int
	CarrierID      string
	Escalated      bool
}

func progressOf(c *chain.Chain) DispatchProgress {
	p := DispatchProgress{Status: c.Status(), Escalated: c.Status() == chain.Escalated}
	if a, ok := c.CurrentAttempt(); ok && a.Status() == chain.AttemptSent && !c.Status().IsFinal() {
		idx := a.Index()
		p.CurrentAttempt = &idx
		p.CarrierID = a.CarrierID()
	}
	return p
}

// StartDispatchCommandHandler sends the first offer of a pending chain. When
// no attempt can be offered the chain escalates; the escalation is committed
// and ErrNoCarrierAvailable is returned together with the progress.
type StartDispatchCommandHandler struct {
	mutator    chainMutator
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewStartDispatchCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) StartDispatchCommandHandler {
	return StartDispatchCommandHandler{
		mutator:    newChainMutator(uowFactory, locker, clk),
		dispatcher: dispatcher,
		logger:     logger.With("component", "start-dispatch"),
	}
}

func (h StartDispatchCommandHandler) Handle(ctx context.Context, command StartDispatchCommand) (DispatchProgress, error) {
	if err := command.Validate(); err != nil {
		return DispatchProgress{}, err
	}

	c, events, err := h.mutator.mutate(ctx, command.ChainID(), func(c *chain.Chain, now time.Time) error {
		return c.Start(now)
	})
	if err != nil {
		return DispatchProgress{}, err
	}
	h.dispatcher.Dispatch(ctx, events)

	progress := progressOf(c)
	h.logger.InfoContext(ctx, "dispatch started",
		"chain_id", c.ID().String(), "status", c.Status().String(), "carrier_id", progress.CarrierID)

	if progress.Escalated {
		return progress, fmt.Errorf("%w: chain %s escalated: %s", ErrNoCarrierAvailable, c.ID(), c.Escalation().Reason())
	}
	return progress, nil
}
