package commands_test

import (
	"testing"
	"time"

	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRetryEscalationDeliveriesCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	f := newChainFixture()

	due := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)

	later := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)
	require.NoError(t, later.MarkEscalationDeliveryFailed("timeout", chain.UrgencyStandard, epoch.Add(time.Hour)))
	f.store.put(t, later)

	delivered := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)
	require.NoError(t, delivered.MarkEscalationSubmitted("ext-2", chain.UrgencyStandard, epoch))
	f.store.put(t, delivered)

	submitter := new(MockEscalationSubmitter)
	submitter.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.SubmitEscalationCommand) bool {
		return cmd.ChainID().IsEqual(due.ID())
	})).Return(commands.SubmitEscalationResult{Delivered: true}, nil).Once()

	handler := commands.NewRetryEscalationDeliveriesCommandHandler(chainUoWFactory{f.store}, submitter, f.clock, 10, f.logger)
	result, err := handler.Handle(ctx)

	require.NoError(t, err)
	assert.Equal(t, commands.RetryEscalationDeliveriesResult{Due: 1, Delivered: 1}, result)
	submitter.AssertExpectations(t)
}

func TestRetryEscalationCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()

	t.Run("makes a scheduled delivery due now and submits", func(t *testing.T) {
		f := newChainFixture()
		c := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)
		require.NoError(t, c.MarkEscalationDeliveryFailed("timeout", chain.UrgencyStandard, epoch.Add(30*time.Minute)))
		f.store.put(t, c)
		f.clock.Advance(time.Minute)

		submitter := new(MockEscalationSubmitter)
		submitter.On("Handle", mock.Anything, mock.Anything).
			Return(commands.SubmitEscalationResult{Delivered: true, ExternalRequestID: "ext-3"}, nil).Once()

		handler := commands.NewRetryEscalationCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, submitter, f.logger)
		cmd, _ := commands.NewSubmitEscalationCommand(c.ID())
		result, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, "ext-3", result.ExternalRequestID)
		next := f.store.chain(t, c.ID()).Escalation().NextDeliveryAt()
		require.NotNil(t, next)
		assert.Equal(t, epoch.Add(time.Minute), *next)
	})

	t.Run("delivered escalation cannot be retried", func(t *testing.T) {
		f := newChainFixture()
		c := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)
		require.NoError(t, c.MarkEscalationSubmitted("ext-1", chain.UrgencyStandard, epoch))
		f.store.put(t, c)

		submitter := new(MockEscalationSubmitter)
		handler := commands.NewRetryEscalationCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, submitter, f.logger)
		cmd, _ := commands.NewSubmitEscalationCommand(c.ID())
		_, err := handler.Handle(ctx, cmd)

		require.ErrorIs(t, err, chain.ErrEscalationNotActive)
		submitter.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}
