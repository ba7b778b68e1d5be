package chain

import (
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"

	"github.com/shopspring/decimal"
)

// Event type names, also used as routing keys and Kafka event types.
const (
	EventOfferSent          = "dispatch.offer_sent"
	EventReminderSent       = "dispatch.reminder_sent"
	EventAttemptClosed      = "dispatch.attempt_closed"
	EventChainCompleted     = "dispatch.chain_completed"
	EventChainEscalated     = "dispatch.chain_escalated"
	EventEscalationResolved = "dispatch.escalation_resolved"
	EventChainCancelled     = "dispatch.chain_cancelled"
)

// DomainEvent is recorded by the chain during a transition and dispatched
// by the application layer after the transition is committed.
type DomainEvent interface {
	EventType() string
	Meta() EventMeta
}

type EventMeta struct {
	ChainID        kernel.UUID
	OrderID        kernel.UUID
	OrganizationID kernel.UUID
	OccurredAt     time.Time
}

func (m EventMeta) Meta() EventMeta { return m }

type OfferSent struct {
	EventMeta
	AttemptIndex int
	CarrierID    string
	Contact      routeprofile.Contact
	SentAt       time.Time
	ExpiresAt    time.Time
}

func (OfferSent) EventType() string { return EventOfferSent }

type ReminderSent struct {
	EventMeta
	AttemptIndex     int
	CarrierID        string
	Contact          routeprofile.Contact
	MinutesRemaining int
}

func (ReminderSent) EventType() string { return EventReminderSent }

// AttemptClosed covers accepted, refused and timed out attempts.
type AttemptClosed struct {
	EventMeta
	AttemptIndex  int
	CarrierID     string
	Outcome       AttemptStatus
	RefusalReason string
}

func (AttemptClosed) EventType() string { return EventAttemptClosed }

type ChainCompleted struct {
	EventMeta
	CarrierID     string
	Contact       routeprofile.Contact
	ProposedPrice *decimal.Decimal
	ViaEscalation bool
}

func (ChainCompleted) EventType() string { return EventChainCompleted }

type ChainEscalated struct {
	EventMeta
	Reason string
}

func (ChainEscalated) EventType() string { return EventChainEscalated }

type EscalationResolved struct {
	EventMeta
	ExternalRequestID string
	Matched           bool
	CarrierID         string
	Reason            string
}

func (EscalationResolved) EventType() string { return EventEscalationResolved }

// ChainCancelled carries the external request id when an in-flight
// escalation has to be cancelled at the matching service as well.
type ChainCancelled struct {
	EventMeta
	Reason                  string
	CancelExternalRequestID string
	// WithdrawnCarrierID is set when an open offer was withdrawn.
	WithdrawnCarrierID string
}

func (ChainCancelled) EventType() string { return EventChainCancelled }
