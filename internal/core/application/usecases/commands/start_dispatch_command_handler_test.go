package commands_test

import (
	"testing"
	"time"

	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDispatchCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()

	t.Run("offers the best ranked carrier", func(t *testing.T) {
		f := newChainFixture()
		c, err := chain.NewChain(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "PO-1", nil,
			[]chain.Candidate{
				{CarrierID: "c2", Rank: 2, ResponseDeadline: time.Hour},
				{CarrierID: "c1", Rank: 1, ResponseDeadline: time.Hour},
			}, nil, epoch)
		require.NoError(t, err)
		f.store.put(t, c)

		handler := commands.NewStartDispatchCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, f.dispatcher, f.logger)
		cmd, _ := commands.NewStartDispatchCommand(c.ID())
		progress, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, chain.InProgress, progress.Status)
		assert.Equal(t, "c1", progress.CarrierID)
		assert.Equal(t, []string{chain.EventOfferSent}, f.dispatcher.types())

		_, err = handler.Handle(ctx, cmd)
		require.ErrorIs(t, err, chain.ErrInvalidTransition)
	})

	t.Run("chain with only skipped carriers escalates", func(t *testing.T) {
		f := newChainFixture()
		c, err := chain.NewChain(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "PO-2", nil, nil,
			[]chain.Candidate{{CarrierID: "c1", Rank: 1, ResponseDeadline: time.Hour, SkipReason: "reputation 40.0 below minimum 50.0"}},
			epoch)
		require.NoError(t, err)
		f.store.put(t, c)

		handler := commands.NewStartDispatchCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, f.dispatcher, f.logger)
		cmd, _ := commands.NewStartDispatchCommand(c.ID())
		progress, err := handler.Handle(ctx, cmd)

		require.ErrorIs(t, err, commands.ErrNoCarrierAvailable)
		assert.True(t, progress.Escalated)

		stored := f.store.chain(t, c.ID())
		assert.Equal(t, chain.Escalated, stored.Status())
		assert.Equal(t, chain.ReasonNoEligibleCarrier, stored.Escalation().Reason())
		assert.Contains(t, f.dispatcher.types(), chain.EventChainEscalated)
	})
}
