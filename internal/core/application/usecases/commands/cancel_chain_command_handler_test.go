package commands_test

import (
	"testing"

	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelChainCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()

	t.Run("should require a reason", func(t *testing.T) {
		_, err := commands.NewCancelChainCommand(kernel.NewUUID(), " ")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("cancels a running chain once", func(t *testing.T) {
		f := newChainFixture()
		c := newStartedChain(t, f.store, "c1")
		handler := commands.NewCancelChainCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, f.dispatcher, f.logger)

		cmd, _ := commands.NewCancelChainCommand(c.ID(), "order withdrawn")
		progress, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, chain.Cancelled, progress.Status)
		stored := f.store.chain(t, c.ID())
		assert.Equal(t, "order withdrawn", stored.CancelReason())
		offer, _ := stored.Attempt(0)
		assert.Equal(t, chain.AttemptWithdrawn, offer.Status())
		assert.Equal(t, []string{chain.EventChainCancelled}, f.dispatcher.types())

		_, err = handler.Handle(ctx, cmd)
		require.ErrorIs(t, err, chain.ErrInvalidTransition)
	})

	t.Run("active escalation is withdrawn with the chain", func(t *testing.T) {
		f := newChainFixture()
		c := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)
		require.NoError(t, c.MarkEscalationSubmitted("ext-4", chain.UrgencyStandard, epoch))
		f.store.put(t, c)
		handler := commands.NewCancelChainCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, f.dispatcher, f.logger)

		cmd, _ := commands.NewCancelChainCommand(c.ID(), "duplicate order")
		_, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		require.Len(t, f.dispatcher.events, 1)
		cancelled, ok := f.dispatcher.events[0].(chain.ChainCancelled)
		require.True(t, ok)
		assert.Equal(t, "ext-4", cancelled.CancelExternalRequestID)
		assert.Equal(t, chain.EscalationCancelled, f.store.chain(t, c.ID()).Escalation().Status())
	})
}
