package commands

import (
	"context"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// SendReminderCommandHandler reminds the carrier holding an offer once it is
// halfway to its deadline. A second reminder for the same attempt fails with
// chain.ErrReminderNotDue.
type SendReminderCommandHandler struct {
	mutator    chainMutator
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewSendReminderCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) SendReminderCommandHandler {
	return SendReminderCommandHandler{
		mutator:    newChainMutator(uowFactory, locker, clk),
		dispatcher: dispatcher,
		logger:     logger.With("component", "attempt-reminder"),
	}
}

func (h SendReminderCommandHandler) Handle(ctx context.Context, command AttemptCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	c, events, err := h.mutator.mutate(ctx, command.ChainID(), func(c *chain.Chain, now time.Time) error {
		return c.SendReminder(command.AttemptIndex(), now)
	})
	if err != nil {
		return err
	}
	h.dispatcher.Dispatch(ctx, events)

	h.logger.DebugContext(ctx, "reminder recorded", "chain_id", c.ID().String(), "attempt", command.AttemptIndex())
	return nil
}
