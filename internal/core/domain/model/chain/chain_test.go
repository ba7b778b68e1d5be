package chain_test

import (
	"testing"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func candidates(ids ...string) []chain.Candidate {
	out := make([]chain.Candidate, 0, len(ids))
	for i, id := range ids {
		out = append(out, chain.Candidate{
			CarrierID:        id,
			Rank:             i + 1,
			DeclaredPosition: i + 1,
			ResponseDeadline: 30 * time.Minute,
		})
	}
	return out
}

func newChain(t *testing.T, eligible []chain.Candidate, skipped []chain.Candidate) *chain.Chain {
	t.Helper()
	laneID := kernel.NewUUID()
	c, err := chain.NewChain(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "PO-1", &laneID, eligible, skipped, t0)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	return c
}

func startedChain(t *testing.T, ids ...string) *chain.Chain {
	t.Helper()
	c := newChain(t, candidates(ids...), nil)
	require.NoError(t, c.Start(t0))
	return c
}

func countSent(c *chain.Chain) int {
	n := 0
	for _, a := range c.Attempts() {
		if a.Status() == chain.AttemptSent {
			n++
		}
	}
	return n
}

func eventTypes(events []chain.DomainEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType())
	}
	return out
}

func TestNewChain(t *testing.T) {
	t.Run("should order attempts by rank and put skipped ones last", func(t *testing.T) {
		eligible := []chain.Candidate{
			{CarrierID: "b", Rank: 2, ResponseDeadline: time.Minute},
			{CarrierID: "a", Rank: 1, ResponseDeadline: time.Minute},
		}
		skipped := []chain.Candidate{{CarrierID: "z", SkipReason: "reputation 40 below minimum 50"}}

		c := newChain(t, eligible, skipped)

		attempts := c.Attempts()
		require.Len(t, attempts, 3)
		assert.Equal(t, "a", attempts[0].CarrierID())
		assert.Equal(t, "b", attempts[1].CarrierID())
		assert.Equal(t, "z", attempts[2].CarrierID())
		assert.Equal(t, chain.AttemptSkipped, attempts[2].Status())
		assert.Equal(t, "reputation 40 below minimum 50", attempts[2].SkipReason())
		assert.Equal(t, chain.Pending, c.Status())
		assert.Equal(t, 0, c.CurrentIndex())
		assert.Nil(t, c.Escalation())
		assert.Empty(t, c.PullEvents())
	})

	t.Run("should reject duplicate carriers", func(t *testing.T) {
		_, err := chain.NewChain(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "", nil,
			candidates("a", "a"), nil, t0)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should require identities", func(t *testing.T) {
		_, err := chain.NewChain(kernel.UUID{}, kernel.NewUUID(), kernel.UUID{}, "", nil, nil, nil, t0)

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestChain_Start(t *testing.T) {
	t.Run("should send the first attempt", func(t *testing.T) {
		c := newChain(t, candidates("a", "b"), nil)

		require.NoError(t, c.Start(t0))

		assert.Equal(t, chain.InProgress, c.Status())
		require.NotNil(t, c.StartedAt())
		a, ok := c.CurrentAttempt()
		require.True(t, ok)
		assert.Equal(t, chain.AttemptSent, a.Status())
		assert.Equal(t, t0, *a.SentAt())
		assert.Equal(t, t0.Add(30*time.Minute), *a.ExpiresAt())

		events := c.PullEvents()
		require.Len(t, events, 1)
		offer, ok := events[0].(chain.OfferSent)
		require.True(t, ok)
		assert.Equal(t, "a", offer.CarrierID)
		assert.Equal(t, c.ID(), offer.Meta().ChainID)
		assert.Empty(t, c.PullEvents())
	})

	t.Run("should not start twice", func(t *testing.T) {
		c := startedChain(t, "a")

		err := c.Start(t0)

		require.ErrorIs(t, err, chain.ErrChainNotPending)
		require.ErrorIs(t, err, chain.ErrInvalidTransition)
	})

	t.Run("should escalate when every candidate was filtered", func(t *testing.T) {
		c := newChain(t, nil, []chain.Candidate{{CarrierID: "z", SkipReason: "below minimum"}})

		require.NoError(t, c.Start(t0))

		assert.Equal(t, chain.Escalated, c.Status())
		assert.Equal(t, 1, c.CurrentIndex())
		require.NotNil(t, c.Escalation())
		assert.Equal(t, chain.ReasonNoEligibleCarrier, c.Escalation().Reason())
		assert.Equal(t, []string{chain.EventChainEscalated}, eventTypes(c.PullEvents()))
	})
}

func TestChain_Accept(t *testing.T) {
	t.Run("should complete the chain", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		c.PullEvents()
		price := decimal.RequireFromString("1250.50")

		require.NoError(t, c.Accept("a", &price, t0.Add(time.Minute)))

		assert.Equal(t, chain.Completed, c.Status())
		assert.Equal(t, "a", c.AssignedCarrierID())
		a, _ := c.Attempt(0)
		assert.Equal(t, chain.AttemptAccepted, a.Status())
		require.NotNil(t, a.ProposedPrice())
		assert.True(t, price.Equal(*a.ProposedPrice()))
		assert.Equal(t, []string{chain.EventAttemptClosed, chain.EventChainCompleted}, eventTypes(c.PullEvents()))
	})

	t.Run("double accept fails without side effects", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		require.NoError(t, c.Accept("a", nil, t0.Add(time.Minute)))
		c.PullEvents()

		err := c.Accept("a", nil, t0.Add(2*time.Minute))

		require.ErrorIs(t, err, chain.ErrAttemptNotActive)
		assert.Empty(t, c.PullEvents())
		assert.Equal(t, chain.Completed, c.Status())
	})

	t.Run("should reject a carrier that does not hold the offer", func(t *testing.T) {
		c := startedChain(t, "a", "b")

		err := c.Accept("b", nil, t0)

		require.ErrorIs(t, err, chain.ErrAttemptNotActive)
		assert.Equal(t, chain.InProgress, c.Status())
	})

	t.Run("should reject a negative price", func(t *testing.T) {
		c := startedChain(t, "a")
		price := decimal.NewFromInt(-1)

		err := c.Accept("a", &price, t0)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("accept, refuse and timeout are mutually exclusive", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		require.NoError(t, c.Accept("a", nil, t0.Add(time.Minute)))

		require.ErrorIs(t, c.Refuse("a", "", t0.Add(time.Minute)), chain.ErrInvalidTransition)
		require.ErrorIs(t, c.Timeout(0, t0.Add(time.Hour)), chain.ErrInvalidTransition)
	})
}

func TestChain_Refuse(t *testing.T) {
	t.Run("should advance to the next candidate", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		c.PullEvents()

		require.NoError(t, c.Refuse("a", " no truck ", t0.Add(time.Minute)))

		assert.Equal(t, 1, c.CurrentIndex())
		first, _ := c.Attempt(0)
		assert.Equal(t, chain.AttemptRefused, first.Status())
		assert.Equal(t, "no truck", first.RefusalReason())
		second, _ := c.CurrentAttempt()
		assert.Equal(t, chain.AttemptSent, second.Status())
		assert.Equal(t, 1, countSent(c))
		assert.Equal(t, []string{chain.EventAttemptClosed, chain.EventOfferSent}, eventTypes(c.PullEvents()))
	})

	t.Run("should step over skipped attempts and escalate", func(t *testing.T) {
		c := newChain(t, candidates("a"), []chain.Candidate{{CarrierID: "z"}})
		require.NoError(t, c.Start(t0))

		require.NoError(t, c.Refuse("a", "", t0.Add(time.Minute)))

		assert.Equal(t, chain.Escalated, c.Status())
		assert.Equal(t, 2, c.CurrentIndex())
		assert.Equal(t, chain.ReasonCandidatesExhausted, c.Escalation().Reason())
	})
}

func TestChain_Timeout(t *testing.T) {
	// Sent at t0 with a 30 minute deadline.
	t.Run("early timeout fails and leaves state unchanged", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		before := c.State()

		err := c.Timeout(0, t0.Add(29*time.Minute))

		require.ErrorIs(t, err, chain.ErrDeadlineNotReached)
		assert.Equal(t, before, c.State())
	})

	t.Run("timeout exactly at the deadline is still early", func(t *testing.T) {
		c := startedChain(t, "a", "b")

		require.ErrorIs(t, c.Timeout(0, t0.Add(30*time.Minute)), chain.ErrDeadlineNotReached)
	})

	t.Run("timeout after the deadline sends the next attempt", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		now := t0.Add(31 * time.Minute)

		require.NoError(t, c.Timeout(0, now))

		first, _ := c.Attempt(0)
		assert.Equal(t, chain.AttemptTimeout, first.Status())
		assert.Equal(t, 1, c.CurrentIndex())
		second, _ := c.CurrentAttempt()
		assert.Equal(t, chain.AttemptSent, second.Status())
		assert.Equal(t, now.Add(30*time.Minute), *second.ExpiresAt())
		assert.Equal(t, 1, countSent(c))
	})

	t.Run("timeout for a stale index fails", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		require.NoError(t, c.Timeout(0, t0.Add(31*time.Minute)))

		err := c.Timeout(0, t0.Add(32*time.Minute))

		require.ErrorIs(t, err, chain.ErrAttemptNotActive)
	})
}

func TestChain_SendReminder(t *testing.T) {
	c := startedChain(t, "a")

	_, due := c.ReminderDue(t0.Add(14 * time.Minute))
	assert.False(t, due)
	require.ErrorIs(t, c.SendReminder(0, t0.Add(14*time.Minute)), chain.ErrReminderNotDue)

	index, due := c.ReminderDue(t0.Add(15 * time.Minute))
	require.True(t, due)
	require.NoError(t, c.SendReminder(index, t0.Add(15*time.Minute)))

	events := c.PullEvents()
	reminder, ok := events[len(events)-1].(chain.ReminderSent)
	require.True(t, ok)
	assert.Equal(t, 15, reminder.MinutesRemaining)

	_, due = c.ReminderDue(t0.Add(20 * time.Minute))
	assert.False(t, due, "reminder fires at most once per attempt")
	require.ErrorIs(t, c.SendReminder(0, t0.Add(20*time.Minute)), chain.ErrReminderNotDue)

	a, _ := c.CurrentAttempt()
	assert.Equal(t, t0.Add(15*time.Minute), *a.ReminderSentAt())
}

func TestChain_ReminderNotDueAfterDeadline(t *testing.T) {
	c := startedChain(t, "a")

	_, reminderDue := c.ReminderDue(t0.Add(40 * time.Minute))
	index, timeoutDue := c.TimeoutDue(t0.Add(40 * time.Minute))

	assert.False(t, reminderDue)
	assert.True(t, timeoutDue)
	assert.Equal(t, 0, index)
}

func TestChain_AllRefuseEscalates(t *testing.T) {
	c := startedChain(t, "a", "b", "c")

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Refuse(id, "busy", t0.Add(time.Duration(i+1)*time.Minute)))
	}

	assert.Equal(t, chain.Escalated, c.Status())
	assert.Equal(t, 3, c.CurrentIndex())
	assert.Zero(t, countSent(c))
	esc := c.Escalation()
	require.NotNil(t, esc)
	assert.Equal(t, chain.EscalationPending, esc.Status())
	assert.True(t, esc.AwaitingDelivery())
	assert.True(t, esc.DeliveryDue(t0.Add(3*time.Minute)))

	events := c.PullEvents()
	assert.Equal(t, chain.EventChainEscalated, events[len(events)-1].EventType())
}

func TestChain_IndexNeverDecreasesAndAtMostOneSent(t *testing.T) {
	c := startedChain(t, "a", "b", "c", "d")
	last := c.CurrentIndex()
	now := t0

	steps := []func() error{
		func() error { return c.Accept("b", nil, now) },
		func() error { return c.Refuse("a", "", now) },
		func() error { return c.Timeout(1, now.Add(time.Minute)) },
		func() error { return c.Timeout(1, now.Add(31*time.Minute)) },
		func() error { return c.Refuse("b", "", now) },
		func() error { return c.Refuse("c", "", now) },
		func() error { return c.Accept("d", nil, now) },
		func() error { return c.Refuse("d", "", now) },
	}

	for _, step := range steps {
		_ = step()
		assert.GreaterOrEqual(t, c.CurrentIndex(), last)
		assert.LessOrEqual(t, countSent(c), 1)
		if a, ok := c.CurrentAttempt(); ok && countSent(c) == 1 {
			assert.Equal(t, chain.AttemptSent, a.Status())
		}
		last = c.CurrentIndex()
		now = now.Add(time.Minute)
	}
	assert.Equal(t, chain.Completed, c.Status())
	assert.Equal(t, "d", c.AssignedCarrierID())
}

func TestChain_Escalate(t *testing.T) {
	t.Run("no route escalates a chain without attempts", func(t *testing.T) {
		c, err := chain.NewChain(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "PO-9", nil, nil, nil, t0)
		require.NoError(t, err)

		require.NoError(t, c.Escalate(chain.ReasonNoRouteProfile, t0))

		assert.Equal(t, chain.Escalated, c.Status())
		assert.Nil(t, c.RouteProfileID())
		assert.Equal(t, chain.ReasonNoRouteProfile, c.Escalation().Reason())
		assert.Equal(t, chain.EscalationPending, c.Escalation().Status())
	})

	t.Run("running chains do not escalate on request", func(t *testing.T) {
		c := startedChain(t, "a")

		require.ErrorIs(t, c.Escalate("manual", t0), chain.ErrChainNotPending)
	})

	t.Run("reason is required", func(t *testing.T) {
		c := newChain(t, nil, nil)

		require.ErrorIs(t, c.Escalate("  ", t0), errs.ErrValueIsRequired)
		assert.Equal(t, chain.Pending, c.Status())
	})
}

func escalatedChain(t *testing.T) *chain.Chain {
	t.Helper()
	c := startedChain(t, "a")
	require.NoError(t, c.Refuse("a", "", t0.Add(time.Minute)))
	require.Equal(t, chain.Escalated, c.Status())
	c.PullEvents()
	return c
}

func TestChain_EscalationDelivery(t *testing.T) {
	t.Run("failed delivery stays pending and schedules a retry", func(t *testing.T) {
		c := escalatedChain(t)
		next := t0.Add(2 * time.Minute)

		require.NoError(t, c.MarkEscalationDeliveryFailed("connection refused", chain.UrgencyExpress, next))

		esc := c.Escalation()
		assert.Equal(t, chain.EscalationPending, esc.Status())
		assert.Equal(t, 1, esc.DeliveryAttempts())
		assert.Equal(t, "connection refused", esc.LastDeliveryError())
		assert.False(t, esc.DeliveryDue(next.Add(-time.Second)))
		assert.True(t, esc.DeliveryDue(next))

		require.NoError(t, c.RequestEscalationRedelivery(t0.Add(time.Minute)))
		assert.True(t, c.Escalation().DeliveryDue(t0.Add(time.Minute)))
	})

	t.Run("submission records the external request", func(t *testing.T) {
		c := escalatedChain(t)

		require.NoError(t, c.MarkEscalationSubmitted("ext-42", chain.UrgencyUrgent, t0.Add(2*time.Minute)))

		esc := c.Escalation()
		assert.Equal(t, chain.EscalationInProgress, esc.Status())
		assert.Equal(t, "ext-42", esc.ExternalRequestID())
		assert.Equal(t, chain.UrgencyUrgent, esc.Urgency())
		assert.False(t, esc.AwaitingDelivery())
		require.ErrorIs(t, c.MarkEscalationSubmitted("ext-43", chain.UrgencyUrgent, t0), chain.ErrEscalationNotActive)
		require.ErrorIs(t, c.RequestEscalationRedelivery(t0), chain.ErrEscalationNotActive)
	})
}

func TestChain_ResolveEscalation(t *testing.T) {
	t.Run("match completes the chain and a second callback is rejected", func(t *testing.T) {
		c := escalatedChain(t)
		require.NoError(t, c.MarkEscalationSubmitted("ext-1", chain.UrgencyStandard, t0))

		require.NoError(t, c.ResolveEscalation("ext-1", true, "ext-carrier", "", t0.Add(time.Hour)))

		assert.Equal(t, chain.Completed, c.Status())
		assert.Equal(t, "ext-carrier", c.AssignedCarrierID())
		assert.Equal(t, chain.EscalationAssigned, c.Escalation().Status())
		assert.Equal(t, []string{chain.EventEscalationResolved, chain.EventChainCompleted}, eventTypes(c.PullEvents()))

		err := c.ResolveEscalation("ext-1", true, "other", "", t0.Add(2*time.Hour))
		require.ErrorIs(t, err, chain.ErrEscalationNotActive)
		assert.Equal(t, "ext-carrier", c.AssignedCarrierID())
		assert.Empty(t, c.PullEvents())
	})

	t.Run("failure leaves the chain escalated and releases the order", func(t *testing.T) {
		c := escalatedChain(t)
		assert.True(t, c.BlocksNewChain())

		require.NoError(t, c.ResolveEscalation("ext-2", false, "", "nobody available", t0.Add(time.Hour)))

		assert.Equal(t, chain.Escalated, c.Status())
		assert.Equal(t, chain.EscalationFailed, c.Escalation().Status())
		assert.Equal(t, "ext-2", c.Escalation().ExternalRequestID())
		assert.Equal(t, "nobody available", c.Escalation().FailureReason())
		assert.False(t, c.BlocksNewChain())
	})

	t.Run("mismatched request id is rejected", func(t *testing.T) {
		c := escalatedChain(t)
		require.NoError(t, c.MarkEscalationSubmitted("ext-1", chain.UrgencyStandard, t0))

		require.ErrorIs(t, c.ResolveEscalation("ext-9", true, "x", "", t0), chain.ErrEscalationNotActive)
	})

	t.Run("match without carrier is invalid", func(t *testing.T) {
		c := escalatedChain(t)

		require.ErrorIs(t, c.ResolveEscalation("ext-1", true, " ", "", t0), errs.ErrValueIsRequired)
		assert.Equal(t, chain.EscalationPending, c.Escalation().Status())
	})

	t.Run("chain that never escalated is rejected", func(t *testing.T) {
		c := startedChain(t, "a")

		require.ErrorIs(t, c.ResolveEscalation("ext-1", true, "x", "", t0), chain.ErrEscalationNotActive)
	})
}

func TestChain_Cancel(t *testing.T) {
	t.Run("cancel a running chain", func(t *testing.T) {
		c := startedChain(t, "a")
		c.PullEvents()

		require.NoError(t, c.Cancel(" order withdrawn ", t0.Add(time.Minute)))

		assert.Equal(t, chain.Cancelled, c.Status())
		assert.Equal(t, "order withdrawn", c.CancelReason())
		assert.False(t, c.BlocksNewChain())
		events := c.PullEvents()
		require.Len(t, events, 1)
		cancelled := events[0].(chain.ChainCancelled)
		assert.Empty(t, cancelled.CancelExternalRequestID)
		assert.Equal(t, "a", cancelled.WithdrawnCarrierID)

		offer, _ := c.Attempt(0)
		assert.Equal(t, chain.AttemptWithdrawn, offer.Status())
		require.NotNil(t, offer.RespondedAt())
		assert.Equal(t, t0.Add(time.Minute), *offer.RespondedAt())

		require.ErrorIs(t, c.Accept("a", nil, t0.Add(2*time.Minute)), chain.ErrAttemptNotActive)
	})

	t.Run("pending chain has no offer to withdraw", func(t *testing.T) {
		c := newChain(t, candidates("a"), nil)

		require.NoError(t, c.Cancel("order withdrawn", t0))

		offer, _ := c.Attempt(0)
		assert.Equal(t, chain.AttemptPending, offer.Status())
		assert.Empty(t, c.PullEvents()[0].(chain.ChainCancelled).WithdrawnCarrierID)
	})

	t.Run("cancel an in-flight escalation", func(t *testing.T) {
		c := escalatedChain(t)
		require.NoError(t, c.MarkEscalationSubmitted("ext-7", chain.UrgencyStandard, t0))

		require.NoError(t, c.Cancel("order withdrawn", t0.Add(time.Hour)))

		assert.Equal(t, chain.EscalationCancelled, c.Escalation().Status())
		cancelled := c.PullEvents()[0].(chain.ChainCancelled)
		assert.Equal(t, "ext-7", cancelled.CancelExternalRequestID)
		require.ErrorIs(t, c.ResolveEscalation("ext-7", true, "x", "", t0.Add(2*time.Hour)), chain.ErrEscalationNotActive)
	})

	t.Run("completed and cancelled chains cannot be cancelled", func(t *testing.T) {
		c := startedChain(t, "a")
		require.NoError(t, c.Accept("a", nil, t0))

		require.ErrorIs(t, c.Cancel("late", t0), chain.ErrCannotCancel)

		d := startedChain(t, "a")
		require.NoError(t, d.Cancel("first", t0))
		require.ErrorIs(t, d.Cancel("second", t0), chain.ErrCannotCancel)
	})
}

func TestRestoreChain(t *testing.T) {
	t.Run("round trips through State", func(t *testing.T) {
		c := startedChain(t, "a", "b")
		require.NoError(t, c.Refuse("a", "busy", t0.Add(time.Minute)))
		c.AdvanceVersion()

		restored, err := chain.RestoreChain(c.State())

		require.NoError(t, err)
		assert.Equal(t, c.State(), restored.State())
		assert.Equal(t, 1, restored.Version())
		assert.Empty(t, restored.PullEvents())
	})

	t.Run("rejects a sent attempt that is not current", func(t *testing.T) {
		s := startedChain(t, "a", "b").State()
		s.CurrentIndex = 1

		_, err := chain.RestoreChain(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects an index past the end", func(t *testing.T) {
		s := startedChain(t, "a").State()
		s.Attempts[0].Status = chain.AttemptRefused
		s.CurrentIndex = 5

		_, err := chain.RestoreChain(s)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestChain_AttemptOperationsNeedRunningChain(t *testing.T) {
	tests := []struct {
		name string
		op   func(c *chain.Chain) error
	}{
		{"accept", func(c *chain.Chain) error { return c.Accept("a", nil, t0.Add(time.Hour)) }},
		{"refuse", func(c *chain.Chain) error { return c.Refuse("a", "busy", t0.Add(time.Hour)) }},
		{"timeout", func(c *chain.Chain) error { return c.Timeout(0, t0.Add(time.Hour)) }},
		{"reminder", func(c *chain.Chain) error { return c.SendReminder(0, t0.Add(20*time.Minute)) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := startedChain(t, "a", "b")
			require.NoError(t, c.Cancel("order withdrawn", t0.Add(time.Minute)))
			c.PullEvents()

			err := tc.op(c)

			require.ErrorIs(t, err, chain.ErrChainNotActive)
			require.ErrorIs(t, err, chain.ErrAttemptNotActive)
			assert.Empty(t, c.PullEvents())
		})
	}
}
