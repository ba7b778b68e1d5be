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

func TestNewEscalationCallbackCommand(t *testing.T) {
	orderID := kernel.NewUUID()

	tests := []struct {
		name      string
		requestID string
		outcome   string
		carrierID string
		wantErr   error
	}{
		{"matched with carrier", "ext-1", "matched", "c9", nil},
		{"outcome is case insensitive", "ext-1", "FAILED", "", nil},
		{"matched without carrier", "ext-1", "matched", " ", errs.ErrValueIsRequired},
		{"unknown outcome", "ext-1", "lost", "", errs.ErrValueIsInvalid},
		{"missing request id", "", "failed", "", errs.ErrValueIsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := commands.NewEscalationCallbackCommand(tt.requestID, orderID, tt.outcome, tt.carrierID, "")
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandleEscalationCallbackCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()

	submitted := func(t *testing.T, f chainFixture) *chain.Chain {
		t.Helper()
		c := newEscalatedChain(t, f.store, kernel.NewUUID(), epoch)
		require.NoError(t, c.MarkEscalationSubmitted("ext-1", chain.UrgencyExpress, epoch))
		f.store.put(t, c)
		return c
	}
	handler := func(f chainFixture) commands.HandleEscalationCallbackCommandHandler {
		return commands.NewHandleEscalationCallbackCommandHandler(chainUoWFactory{f.store}, f.locker, f.clock, f.dispatcher, f.logger)
	}

	t.Run("match completes the chain", func(t *testing.T) {
		f := newChainFixture()
		c := submitted(t, f)

		cmd, _ := commands.NewEscalationCallbackCommand("ext-1", c.OrderID(), "matched", "c9", "")
		result, err := handler(f).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Equal(t, chain.Completed, result.Status)

		stored := f.store.chain(t, c.ID())
		assert.Equal(t, "c9", stored.AssignedCarrierID())
		assert.Equal(t, chain.EscalationAssigned, stored.Escalation().Status())
		assert.Equal(t, []string{chain.EventEscalationResolved, chain.EventChainCompleted}, f.dispatcher.types())
	})

	t.Run("failure leaves the chain escalated and releases the order", func(t *testing.T) {
		f := newChainFixture()
		c := submitted(t, f)

		cmd, _ := commands.NewEscalationCallbackCommand("ext-1", c.OrderID(), "failed", "", "no capacity")
		result, err := handler(f).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.True(t, result.Applied)
		stored := f.store.chain(t, c.ID())
		assert.Equal(t, chain.Escalated, stored.Status())
		assert.Equal(t, "no capacity", stored.Escalation().FailureReason())
		assert.False(t, stored.BlocksNewChain())
	})

	t.Run("repeated callback is acknowledged without effect", func(t *testing.T) {
		f := newChainFixture()
		c := submitted(t, f)
		cmd, _ := commands.NewEscalationCallbackCommand("ext-1", c.OrderID(), "matched", "c9", "")
		_, err := handler(f).Handle(ctx, cmd)
		require.NoError(t, err)

		again, _ := commands.NewEscalationCallbackCommand("ext-1", c.OrderID(), "failed", "", "late")
		result, err := handler(f).Handle(ctx, again)

		require.NoError(t, err)
		assert.False(t, result.Applied)
		assert.Equal(t, chain.Completed, f.store.chain(t, c.ID()).Status())
	})

	t.Run("foreign request id is ignored", func(t *testing.T) {
		f := newChainFixture()
		c := submitted(t, f)

		cmd, _ := commands.NewEscalationCallbackCommand("ext-other", c.OrderID(), "matched", "c9", "")
		result, err := handler(f).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.False(t, result.Applied)
		assert.Equal(t, chain.Escalated, f.store.chain(t, c.ID()).Status())
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newChainFixture()
		cmd, _ := commands.NewEscalationCallbackCommand("ext-1", kernel.NewUUID(), "failed", "", "")
		_, err := handler(f).Handle(ctx, cmd)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
