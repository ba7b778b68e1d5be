package chain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Chain is the aggregate root of one order's carrier assignment process.
//
// Attempts are generated once, in final visiting order, and never reordered.
// currentIndex points at the only attempt that may be sent; it never moves
// backwards. Every transition takes the current time explicitly and records
// domain events which the caller collects with PullEvents after the chain has
// been stored.
//
// Invariants:
//   - at most one attempt is Sent, and only attempts[currentIndex]
//   - currentIndex is monotonically non-decreasing
//   - an attempt leaves Pending only through send or skip, and a closed
//     attempt never changes again except for its reminder timestamp
//   - escalation is set if and only if the chain was escalated at some point
//
// Example:
//
//	c, _ := chain.NewChain(kernel.NewUUID(), orderID, orgID, "PO-1042", &laneID, ranked, skipped, now)
//	_ = c.Start(now)              // offers to the best ranked carrier
//	_ = c.Refuse("carrier-17", "no truck", now.Add(5*time.Minute))
//	events := c.PullEvents()      // AttemptClosed, OfferSent
type Chain struct {
	id             kernel.UUID
	orderID        kernel.UUID
	organizationID kernel.UUID
	orderReference string
	routeProfileID *kernel.UUID

	status       Status
	attempts     []Attempt
	currentIndex int
	escalation   *Escalation

	assignedCarrierID string
	cancelReason      string

	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time

	version int
	events  []DomainEvent

	isConstructed bool
}

// State is the persisted form of a Chain.
type State struct {
	ID                kernel.UUID
	OrderID           kernel.UUID
	OrganizationID    kernel.UUID
	OrderReference    string
	RouteProfileID    *kernel.UUID
	Status            Status
	Attempts          []AttemptState
	CurrentIndex      int
	Escalation        *EscalationState
	AssignedCarrierID string
	CancelReason      string
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	Version           int
}

// NewChain materializes the attempts of a new chain: eligible candidates as
// pending attempts in rank order, followed by the filtered candidates as
// skipped attempts. routeProfileID is nil for chains created without a lane.
func NewChain(
	id kernel.UUID,
	orderID kernel.UUID,
	organizationID kernel.UUID,
	orderReference string,
	routeProfileID *kernel.UUID,
	eligible []Candidate,
	skipped []Candidate,
	now time.Time,
) (*Chain, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		organizationID.Validate(),
		validateCandidates(eligible, skipped),
	); err != nil {
		return nil, err
	}

	ranked := slices.Clone(eligible)
	slices.SortStableFunc(ranked, func(a, b Candidate) int { return a.Rank - b.Rank })

	attempts := make([]Attempt, 0, len(ranked)+len(skipped))
	for _, c := range ranked {
		attempts = append(attempts, newAttempt(len(attempts), c))
	}
	for _, c := range skipped {
		a := newAttempt(len(attempts), c)
		if err := a.skip(c.SkipReason); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return &Chain{
		id:             id,
		orderID:        orderID,
		organizationID: organizationID,
		orderReference: strings.TrimSpace(orderReference),
		routeProfileID: routeProfileID,
		status:         Pending,
		attempts:       attempts,
		createdAt:      now,
		isConstructed:  true,
	}, nil
}

// RestoreChain rebuilds a chain from storage. It checks the structural
// invariants so that corrupt rows are rejected instead of acted upon.
func RestoreChain(s State) (*Chain, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.OrderID.Validate(),
		s.OrganizationID.Validate(),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}

	attempts := make([]Attempt, len(s.Attempts))
	sent := 0
	for i, as := range s.Attempts {
		if as.Index != i {
			return nil, errs.NewValueIsInvalidErrorWithCause("attempts", fmt.Errorf("attempt at %d has index %d", i, as.Index))
		}
		if err := as.Status.Validate(); err != nil {
			return nil, err
		}
		if as.Status == AttemptSent {
			sent++
			if i != s.CurrentIndex {
				return nil, errs.NewValueIsInvalidErrorWithCause("attempts", fmt.Errorf("attempt %d is sent but current is %d", i, s.CurrentIndex))
			}
		}
		attempts[i] = restoreAttempt(as)
	}
	if sent > 1 {
		return nil, errs.NewValueIsInvalidErrorWithCause("attempts", fmt.Errorf("%d attempts are sent", sent))
	}
	if s.CurrentIndex < 0 || s.CurrentIndex > len(attempts) {
		return nil, errs.NewValueIsOutOfRangeError("currentIndex", s.CurrentIndex, 0, len(attempts))
	}

	return &Chain{
		id:                s.ID,
		orderID:           s.OrderID,
		organizationID:    s.OrganizationID,
		orderReference:    s.OrderReference,
		routeProfileID:    s.RouteProfileID,
		status:            s.Status,
		attempts:          attempts,
		currentIndex:      s.CurrentIndex,
		escalation:        restoreEscalation(s.Escalation),
		assignedCarrierID: s.AssignedCarrierID,
		cancelReason:      s.CancelReason,
		createdAt:         s.CreatedAt,
		startedAt:         s.StartedAt,
		completedAt:       s.CompletedAt,
		cancelledAt:       s.CancelledAt,
		version:           s.Version,
		isConstructed:     true,
	}, nil
}

// State returns the persisted form of the chain.
func (c *Chain) State() State {
	attempts := make([]AttemptState, len(c.attempts))
	for i, a := range c.attempts {
		attempts[i] = a.State()
	}
	var esc *EscalationState
	if c.escalation != nil {
		st := c.escalation.State()
		esc = &st
	}
	return State{
		ID:                c.id,
		OrderID:           c.orderID,
		OrganizationID:    c.organizationID,
		OrderReference:    c.orderReference,
		RouteProfileID:    c.routeProfileID,
		Status:            c.status,
		Attempts:          attempts,
		CurrentIndex:      c.currentIndex,
		Escalation:        esc,
		AssignedCarrierID: c.assignedCarrierID,
		CancelReason:      c.cancelReason,
		CreatedAt:         c.createdAt,
		StartedAt:         c.startedAt,
		CompletedAt:       c.completedAt,
		CancelledAt:       c.cancelledAt,
		Version:           c.version,
	}
}

func (c *Chain) Validate() error {
	if c == nil || !c.isConstructed {
		return ErrChainIsNotConstructed
	}
	return nil
}

func (c *Chain) ID() kernel.UUID              { return c.id }
func (c *Chain) OrderID() kernel.UUID         { return c.orderID }
func (c *Chain) OrganizationID() kernel.UUID  { return c.organizationID }
func (c *Chain) OrderReference() string       { return c.orderReference }
func (c *Chain) RouteProfileID() *kernel.UUID { return c.routeProfileID }
func (c *Chain) Status() Status               { return c.status }
func (c *Chain) CurrentIndex() int            { return c.currentIndex }
func (c *Chain) AssignedCarrierID() string    { return c.assignedCarrierID }
func (c *Chain) CancelReason() string         { return c.cancelReason }
func (c *Chain) CreatedAt() time.Time         { return c.createdAt }
func (c *Chain) StartedAt() *time.Time        { return c.startedAt }
func (c *Chain) CompletedAt() *time.Time      { return c.completedAt }
func (c *Chain) CancelledAt() *time.Time      { return c.cancelledAt }
func (c *Chain) Version() int                 { return c.version }

// Attempts returns a copy of all attempts in visiting order.
func (c *Chain) Attempts() []Attempt {
	return slices.Clone(c.attempts)
}

// Attempt returns the attempt at index.
func (c *Chain) Attempt(index int) (Attempt, bool) {
	if index < 0 || index >= len(c.attempts) {
		return Attempt{}, false
	}
	return c.attempts[index], true
}

// CurrentAttempt returns the attempt at the current index, if any.
func (c *Chain) CurrentAttempt() (Attempt, bool) {
	return c.Attempt(c.currentIndex)
}

// Escalation returns a copy of the escalation record, or nil.
func (c *Chain) Escalation() *Escalation {
	if c.escalation == nil {
		return nil
	}
	e := *c.escalation
	return &e
}

// BlocksNewChain reports whether another chain for the same order must be
// refused while this one exists. Only cancelled chains and escalations that
// failed release the order.
func (c *Chain) BlocksNewChain() bool {
	switch c.status {
	case Cancelled:
		return false
	case Escalated:
		return c.escalation == nil || c.escalation.status != EscalationFailed
	default:
		return true
	}
}

// AdvanceVersion is called by the repository after a successful write.
func (c *Chain) AdvanceVersion() {
	c.version++
}

// PullEvents returns the events recorded since the last call and forgets them.
func (c *Chain) PullEvents() []DomainEvent {
	events := c.events
	c.events = nil
	return events
}

// Start moves a pending chain in progress and offers the first attempt. A
// chain without eligible attempts escalates straight away.
func (c *Chain) Start(now time.Time) error {
	next, err := c.status.Start()
	if err != nil {
		return err
	}
	c.status = next
	c.startedAt = &now
	return c.sendCurrent(now)
}

// Accept closes the current attempt as accepted and completes the chain.
// price may be nil.
func (c *Chain) Accept(carrierID string, price *decimal.Decimal, now time.Time) error {
	if price != nil && price.IsNegative() {
		return errs.NewValueIsOutOfRangeError("price", price.String(), 0, "unbounded")
	}
	a, err := c.activeAttemptOf(carrierID)
	if err != nil {
		return err
	}
	if err := a.close(AttemptAccepted, now); err != nil {
		return err
	}
	if price != nil {
		p := *price
		a.proposedPrice = &p
	}

	next, err := c.status.Complete()
	if err != nil {
		return err
	}
	c.status = next
	c.completedAt = &now
	c.assignedCarrierID = carrierID

	c.record(AttemptClosed{EventMeta: c.meta(now), AttemptIndex: a.index, CarrierID: carrierID, Outcome: AttemptAccepted})
	c.record(ChainCompleted{EventMeta: c.meta(now), CarrierID: carrierID, Contact: a.contact, ProposedPrice: a.proposedPrice})
	return nil
}

// Refuse closes the current attempt as refused and offers the next one,
// escalating when none is left.
func (c *Chain) Refuse(carrierID, reason string, now time.Time) error {
	a, err := c.activeAttemptOf(carrierID)
	if err != nil {
		return err
	}
	if err := a.close(AttemptRefused, now); err != nil {
		return err
	}
	a.refusalReason = strings.TrimSpace(reason)

	c.record(AttemptClosed{
		EventMeta: c.meta(now), AttemptIndex: a.index, CarrierID: carrierID,
		Outcome: AttemptRefused, RefusalReason: a.refusalReason,
	})
	c.currentIndex++
	return c.sendCurrent(now)
}

// Timeout closes the attempt at index once now is strictly past its
// deadline. An early call fails with ErrDeadlineNotReached and changes
// nothing.
func (c *Chain) Timeout(index int, now time.Time) error {
	if c.status != InProgress {
		return fmt.Errorf("%w: chain is %s", ErrChainNotActive, c.status)
	}
	if index != c.currentIndex {
		return fmt.Errorf("%w: attempt %d is not current", ErrAttemptNotActive, index)
	}
	a := &c.attempts[index]
	if a.status != AttemptSent {
		return fmt.Errorf("%w: attempt %d is %s", ErrAttemptNotActive, index, a.status)
	}
	if !a.IsExpired(now) {
		return fmt.Errorf("%w: attempt %d expires at %s", ErrDeadlineNotReached, index, a.expiresAt.Format(time.RFC3339))
	}
	if err := a.close(AttemptTimeout, now); err != nil {
		return err
	}

	c.record(AttemptClosed{EventMeta: c.meta(now), AttemptIndex: index, CarrierID: a.carrierID, Outcome: AttemptTimeout})
	c.currentIndex++
	return c.sendCurrent(now)
}

// SendReminder stamps the reminder on the current attempt. It is valid once
// per attempt, from the midpoint of the response window up to the deadline.
func (c *Chain) SendReminder(index int, now time.Time) error {
	if c.status != InProgress {
		return fmt.Errorf("%w: chain is %s", ErrChainNotActive, c.status)
	}
	if index != c.currentIndex {
		return fmt.Errorf("%w: attempt %d is not current", ErrAttemptNotActive, index)
	}
	a := &c.attempts[index]
	if a.status != AttemptSent {
		return fmt.Errorf("%w: attempt %d is %s", ErrAttemptNotActive, index, a.status)
	}
	if !a.IsReminderDue(now) {
		return fmt.Errorf("%w: attempt %d", ErrReminderNotDue, index)
	}
	a.reminderSentAt = &now

	remaining := int(math.Ceil(a.expiresAt.Sub(now).Minutes()))
	c.record(ReminderSent{
		EventMeta: c.meta(now), AttemptIndex: index, CarrierID: a.carrierID,
		Contact: a.contact, MinutesRemaining: remaining,
	})
	return nil
}

// Escalate hands a chain that never started to the external matching
// service, typically because no route profile matched. Exhaustion of a
// running chain escalates on its own.
func (c *Chain) Escalate(reason string, now time.Time) error {
	if c.status != Pending {
		return fmt.Errorf("%w: chain is %s", ErrChainNotPending, c.status)
	}
	return c.escalate(reason, now)
}

// MarkEscalationSubmitted records the request id returned by the matching
// service together with the urgency the request was sent with.
func (c *Chain) MarkEscalationSubmitted(externalRequestID string, urgency Urgency, now time.Time) error {
	externalRequestID = strings.TrimSpace(externalRequestID)
	if externalRequestID == "" {
		return errs.NewValueIsRequiredError("externalRequestId")
	}
	if c.status != Escalated || c.escalation == nil || !c.escalation.AwaitingDelivery() {
		return fmt.Errorf("%w: nothing awaits delivery", ErrEscalationNotActive)
	}
	e := c.escalation
	e.externalRequestID = externalRequestID
	e.status = EscalationInProgress
	e.urgency = urgency
	e.deliveryAttempts++
	e.lastDeliveryError = ""
	e.nextDeliveryAt = nil
	e.submittedAt = &now
	return nil
}

// MarkEscalationDeliveryFailed counts a failed outbound call and schedules
// the next try. The escalation stays pending.
func (c *Chain) MarkEscalationDeliveryFailed(cause string, urgency Urgency, nextAt time.Time) error {
	if c.status != Escalated || c.escalation == nil || !c.escalation.AwaitingDelivery() {
		return fmt.Errorf("%w: nothing awaits delivery", ErrEscalationNotActive)
	}
	e := c.escalation
	e.deliveryAttempts++
	e.lastDeliveryError = cause
	e.urgency = urgency
	e.nextDeliveryAt = &nextAt
	return nil
}

// RequestEscalationRedelivery makes a pending delivery due immediately.
func (c *Chain) RequestEscalationRedelivery(now time.Time) error {
	if c.status != Escalated || c.escalation == nil || !c.escalation.AwaitingDelivery() {
		return fmt.Errorf("%w: nothing awaits delivery", ErrEscalationNotActive)
	}
	c.escalation.nextDeliveryAt = &now
	return nil
}

// ResolveEscalation applies the matching service's verdict. A match completes
// the chain; a failure leaves it escalated with a failed record for manual
// follow-up. externalRequestID must match the recorded one when the chain
// already knows it.
func (c *Chain) ResolveEscalation(externalRequestID string, matched bool, carrierID, reason string, now time.Time) error {
	if c.status != Escalated || c.escalation == nil || !c.escalation.status.IsActive() {
		return fmt.Errorf("%w: chain is %s", ErrEscalationNotActive, c.status)
	}
	e := c.escalation
	if e.externalRequestID != "" && externalRequestID != e.externalRequestID {
		return fmt.Errorf("%w: request %q does not belong to this chain", ErrEscalationNotActive, externalRequestID)
	}
	carrierID = strings.TrimSpace(carrierID)
	if matched && carrierID == "" {
		return errs.NewValueIsRequiredError("carrier")
	}

	if e.externalRequestID == "" {
		e.externalRequestID = externalRequestID
	}
	e.resolvedAt = &now
	e.nextDeliveryAt = nil

	c.record(EscalationResolved{
		EventMeta: c.meta(now), ExternalRequestID: e.externalRequestID,
		Matched: matched, CarrierID: carrierID, Reason: reason,
	})

	if !matched {
		e.status = EscalationFailed
		e.failureReason = strings.TrimSpace(reason)
		return nil
	}

	next, err := c.status.Complete()
	if err != nil {
		return err
	}
	e.status = EscalationAssigned
	e.assignedCarrierID = carrierID
	c.status = next
	c.completedAt = &now
	c.assignedCarrierID = carrierID
	c.record(ChainCompleted{EventMeta: c.meta(now), CarrierID: carrierID, ViaEscalation: true})
	return nil
}

// Cancel stops the chain. Completed and cancelled chains are rejected. The
// offer still open is withdrawn and an active escalation is cancelled with
// it; the recorded event tells the caller whether the matching service has
// to be notified.
func (c *Chain) Cancel(reason string, now time.Time) error {
	next, err := c.status.Cancel()
	if err != nil {
		return err
	}

	event := ChainCancelled{EventMeta: c.meta(now), Reason: strings.TrimSpace(reason)}
	if a, ok := c.CurrentAttempt(); ok && c.status == InProgress && a.status == AttemptSent {
		open := &c.attempts[a.index]
		if err := open.withdraw(now); err != nil {
			return err
		}
		event.WithdrawnCarrierID = open.carrierID
	}
	if e := c.escalation; e != nil && e.status.IsActive() {
		e.status = EscalationCancelled
		e.resolvedAt = &now
		e.nextDeliveryAt = nil
		event.CancelExternalRequestID = e.externalRequestID
	}

	c.status = next
	c.cancelledAt = &now
	c.cancelReason = event.Reason
	c.record(event)
	return nil
}

// ReminderDue reports whether the monitor should send a reminder for the
// current attempt.
func (c *Chain) ReminderDue(now time.Time) (int, bool) {
	a, ok := c.CurrentAttempt()
	if c.status != InProgress || !ok {
		return 0, false
	}
	return a.index, a.IsReminderDue(now)
}

// TimeoutDue reports whether the current attempt is past its deadline.
func (c *Chain) TimeoutDue(now time.Time) (int, bool) {
	a, ok := c.CurrentAttempt()
	if c.status != InProgress || !ok {
		return 0, false
	}
	return a.index, a.IsExpired(now)
}

func (c *Chain) activeAttemptOf(carrierID string) (*Attempt, error) {
	if c.status != InProgress || c.currentIndex >= len(c.attempts) {
		return nil, fmt.Errorf("%w: chain is %s", ErrChainNotActive, c.status)
	}
	a := &c.attempts[c.currentIndex]
	if a.carrierID != carrierID {
		return nil, fmt.Errorf("%w: carrier %q does not hold the current offer", ErrAttemptNotActive, carrierID)
	}
	if a.status != AttemptSent {
		return nil, fmt.Errorf("%w: attempt %d is %s", ErrAttemptNotActive, a.index, a.status)
	}
	return a, nil
}

// sendCurrent offers the attempt at currentIndex. Skipped attempts are
// stepped over. Running past the end escalates.
func (c *Chain) sendCurrent(now time.Time) error {
	for c.currentIndex < len(c.attempts) && c.attempts[c.currentIndex].status == AttemptSkipped {
		c.currentIndex++
	}

	if c.currentIndex >= len(c.attempts) {
		reason := ReasonCandidatesExhausted
		if !slices.ContainsFunc(c.attempts, func(a Attempt) bool { return a.status != AttemptSkipped }) {
			reason = ReasonNoEligibleCarrier
		}
		return c.escalate(reason, now)
	}

	a := &c.attempts[c.currentIndex]
	if err := a.send(now); err != nil {
		return err
	}
	c.record(OfferSent{
		EventMeta: c.meta(now), AttemptIndex: a.index, CarrierID: a.carrierID,
		Contact: a.contact, SentAt: *a.sentAt, ExpiresAt: *a.expiresAt,
	})
	return nil
}

func (c *Chain) escalate(reason string, now time.Time) error {
	next, err := c.status.Escalate()
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("reason")
	}
	c.status = next
	c.escalation = newEscalation(reason, now)
	c.record(ChainEscalated{EventMeta: c.meta(now), Reason: reason})
	return nil
}

func (c *Chain) meta(now time.Time) EventMeta {
	return EventMeta{ChainID: c.id, OrderID: c.orderID, OrganizationID: c.organizationID, OccurredAt: now}
}

func (c *Chain) record(e DomainEvent) {
	c.events = append(c.events, e)
}

func validateCandidates(eligible, skipped []Candidate) error {
	seen := make(map[string]struct{}, len(eligible)+len(skipped))
	for _, c := range slices.Concat(eligible, skipped) {
		if strings.TrimSpace(c.CarrierID) == "" {
			return errs.NewValueIsRequiredError("candidate carrierId")
		}
		if _, dup := seen[c.CarrierID]; dup {
			return errs.NewValueIsInvalidErrorWithCause("candidates", fmt.Errorf("carrier %q appears twice", c.CarrierID))
		}
		seen[c.CarrierID] = struct{}{}
	}
	for _, c := range eligible {
		if c.ResponseDeadline <= 0 {
			return errs.NewValueIsRequiredErrorWithCause("candidate responseDeadline", fmt.Errorf("carrier %q", c.CarrierID))
		}
	}
	return nil
}
