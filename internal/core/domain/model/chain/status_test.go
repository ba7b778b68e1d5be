package chain_test

import (
	"fmt"
	"testing"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_ParseRoundTrip(t *testing.T) {
	for _, s := range []chain.Status{chain.Pending, chain.InProgress, chain.Completed, chain.Escalated, chain.Cancelled} {
		t.Run(s.String(), func(t *testing.T) {
			parsed, err := chain.ParseStatus(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
			require.NoError(t, s.Validate())
		})
	}

	_, err := chain.ParseStatus("unknown")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	require.Error(t, chain.Status(42).Validate())
	assert.Equal(t, "unknown", chain.Status(42).String())
}

func TestStatus_Transitions(t *testing.T) {
	type transition func(chain.Status) (chain.Status, error)

	testCases := []struct {
		name  string
		apply transition
		from  chain.Status
		want  chain.Status
		ok    bool
	}{
		{"start pending", chain.Status.Start, chain.Pending, chain.InProgress, true},
		{"start in progress", chain.Status.Start, chain.InProgress, 0, false},
		{"complete in progress", chain.Status.Complete, chain.InProgress, chain.Completed, true},
		{"complete escalated", chain.Status.Complete, chain.Escalated, chain.Completed, true},
		{"complete pending", chain.Status.Complete, chain.Pending, 0, false},
		{"escalate pending", chain.Status.Escalate, chain.Pending, chain.Escalated, true},
		{"escalate in progress", chain.Status.Escalate, chain.InProgress, chain.Escalated, true},
		{"escalate twice", chain.Status.Escalate, chain.Escalated, 0, false},
		{"cancel escalated", chain.Status.Cancel, chain.Escalated, chain.Cancelled, true},
		{"cancel completed", chain.Status.Cancel, chain.Completed, 0, false},
		{"cancel unknown", chain.Status.Cancel, chain.Unknown, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.apply(tc.from)
			if !tc.ok {
				require.ErrorIs(t, err, chain.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAttemptStatus_Transitions(t *testing.T) {
	t.Run("only pending attempts can be sent or skipped", func(t *testing.T) {
		for _, s := range []chain.AttemptStatus{chain.AttemptSent, chain.AttemptAccepted, chain.AttemptSkipped} {
			_, err := s.Send()
			require.ErrorIs(t, err, chain.ErrInvalidTransition, fmt.Sprintf("send from %s", s))
			_, err = s.Skip()
			require.ErrorIs(t, err, chain.ErrInvalidTransition, fmt.Sprintf("skip from %s", s))
		}
	})

	t.Run("only sent attempts close", func(t *testing.T) {
		got, err := chain.AttemptSent.Close(chain.AttemptRefused)
		require.NoError(t, err)
		assert.Equal(t, chain.AttemptRefused, got)
		assert.True(t, got.IsFinal())

		_, err = chain.AttemptAccepted.Close(chain.AttemptRefused)
		require.ErrorIs(t, err, chain.ErrAttemptNotActive)

		_, err = chain.AttemptSent.Close(chain.AttemptSkipped)
		require.ErrorIs(t, err, chain.ErrInvalidTransition)
	})

	t.Run("only sent attempts are withdrawn", func(t *testing.T) {
		got, err := chain.AttemptSent.Withdraw()
		require.NoError(t, err)
		assert.Equal(t, chain.AttemptWithdrawn, got)
		assert.True(t, got.IsFinal())

		_, err = chain.AttemptPending.Withdraw()
		require.ErrorIs(t, err, chain.ErrAttemptNotActive)
	})

	t.Run("parse round trip", func(t *testing.T) {
		for _, s := range []chain.AttemptStatus{chain.AttemptPending, chain.AttemptSent, chain.AttemptAccepted,
			chain.AttemptRefused, chain.AttemptTimeout, chain.AttemptSkipped, chain.AttemptWithdrawn} {
			parsed, err := chain.ParseAttemptStatus(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})
}

func TestEscalationStatus(t *testing.T) {
	assert.True(t, chain.EscalationPending.IsActive())
	assert.True(t, chain.EscalationInProgress.IsActive())
	assert.False(t, chain.EscalationFailed.IsActive())
	assert.False(t, chain.EscalationCancelled.IsActive())

	parsed, err := chain.ParseEscalationStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, chain.EscalationInProgress, parsed)
}
