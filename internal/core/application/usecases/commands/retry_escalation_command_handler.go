package commands

import (
	"context"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// RetryEscalationCommandHandler lets an operator push an escalation that
// is still waiting for delivery to the matching service right away instead
// of at its next scheduled retry.
type RetryEscalationCommandHandler struct {
	mutator   chainMutator
	submitter EscalationSubmitter
	logger    *slog.Logger
}

func NewRetryEscalationCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	submitter EscalationSubmitter,
	logger *slog.Logger,
) RetryEscalationCommandHandler {
	return RetryEscalationCommandHandler{
		mutator:   newChainMutator(uowFactory, locker, clk),
		submitter: submitter,
		logger:    logger.With("component", "escalation-retry"),
	}
}

func (h RetryEscalationCommandHandler) Handle(ctx context.Context, command SubmitEscalationCommand) (SubmitEscalationResult, error) {
	if err := command.Validate(); err != nil {
		return SubmitEscalationResult{}, err
	}

	if _, _, err := h.mutator.mutate(ctx, command.ChainID(), func(c *chain.Chain, now time.Time) error {
		return c.RequestEscalationRedelivery(now)
	}); err != nil {
		return SubmitEscalationResult{}, err
	}

	h.logger.InfoContext(ctx, "escalation redelivery requested", "chain_id", command.ChainID().String())
	return h.submitter.Handle(ctx, command)
}
