package chain

import (
	"fmt"
	"time"

	"freightdispatch/internal/pkg/errs"
)

// Reasons recorded on escalations raised by the engine itself.
const (
	ReasonNoRouteProfile      = "no route profile configured"
	ReasonNoEligibleCarrier   = "no eligible carrier on route profile"
	ReasonCandidatesExhausted = "all candidates refused or timed out"
)

// EscalationStatus is the sub-status of an escalation record.
type EscalationStatus int

const (
	EscalationUnknown EscalationStatus = iota
	// EscalationPending: created, not yet accepted by the matching service.
	EscalationPending
	// EscalationInProgress: the matching service returned a request id.
	EscalationInProgress
	EscalationAssigned
	// EscalationFailed needs manual intervention; nothing retries it.
	EscalationFailed
	EscalationCancelled
)

func getEscalationStatusStrings() map[EscalationStatus]string {
	return map[EscalationStatus]string{
		EscalationUnknown:    "unknown",
		EscalationPending:    "pending",
		EscalationInProgress: "in_progress",
		EscalationAssigned:   "assigned",
		EscalationFailed:     "failed",
		EscalationCancelled:  "cancelled",
	}
}

func ParseEscalationStatus(s string) (EscalationStatus, error) {
	for st, str := range getEscalationStatusStrings() {
		if str == s && st != EscalationUnknown {
			return st, nil
		}
	}
	return EscalationUnknown, errs.NewValueIsInvalidErrorWithCause(
		"escalation status is invalid", fmt.Errorf("%q is not a valid escalation status", s))
}

func (s EscalationStatus) String() string {
	if str, ok := getEscalationStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsActive reports whether the external service may still be working on it.
func (s EscalationStatus) IsActive() bool {
	return s == EscalationPending || s == EscalationInProgress
}

// Urgency is the escalation priority derived from the time left until pickup.
type Urgency string

const (
	UrgencyUrgent   Urgency = "urgent"
	UrgencyExpress  Urgency = "express"
	UrgencyStandard Urgency = "standard"
)

// Escalation tracks the hand-off of an exhausted chain to the external
// matching service.
type Escalation struct {
	externalRequestID string
	status            EscalationStatus
	reason            string
	urgency           Urgency
	assignedCarrierID string
	failureReason     string

	deliveryAttempts  int
	lastDeliveryError string
	nextDeliveryAt    *time.Time

	createdAt   time.Time
	submittedAt *time.Time
	resolvedAt  *time.Time
}

// EscalationState is the persisted form of an Escalation.
type EscalationState struct {
	ExternalRequestID string
	Status            EscalationStatus
	Reason            string
	Urgency           Urgency
	AssignedCarrierID string
	FailureReason     string
	DeliveryAttempts  int
	LastDeliveryError string
	NextDeliveryAt    *time.Time
	CreatedAt         time.Time
	SubmittedAt       *time.Time
	ResolvedAt        *time.Time
}

func newEscalation(reason string, now time.Time) *Escalation {
	return &Escalation{
		status:    EscalationPending,
		reason:    reason,
		createdAt: now,
	}
}

func restoreEscalation(s *EscalationState) *Escalation {
	if s == nil {
		return nil
	}
	return &Escalation{
		externalRequestID: s.ExternalRequestID,
		status:            s.Status,
		reason:            s.Reason,
		urgency:           s.Urgency,
		assignedCarrierID: s.AssignedCarrierID,
		failureReason:     s.FailureReason,
		deliveryAttempts:  s.DeliveryAttempts,
		lastDeliveryError: s.LastDeliveryError,
		nextDeliveryAt:    s.NextDeliveryAt,
		createdAt:         s.CreatedAt,
		submittedAt:       s.SubmittedAt,
		resolvedAt:        s.ResolvedAt,
	}
}

func (e Escalation) State() EscalationState {
	return EscalationState{
		ExternalRequestID: e.externalRequestID,
		Status:            e.status,
		Reason:            e.reason,
		Urgency:           e.urgency,
		AssignedCarrierID: e.assignedCarrierID,
		FailureReason:     e.failureReason,
		DeliveryAttempts:  e.deliveryAttempts,
		LastDeliveryError: e.lastDeliveryError,
		NextDeliveryAt:    e.nextDeliveryAt,
		CreatedAt:         e.createdAt,
		SubmittedAt:       e.submittedAt,
		ResolvedAt:        e.resolvedAt,
	}
}

func (e Escalation) ExternalRequestID() string  { return e.externalRequestID }
func (e Escalation) Status() EscalationStatus   { return e.status }
func (e Escalation) Reason() string             { return e.reason }
func (e Escalation) Urgency() Urgency           { return e.urgency }
func (e Escalation) AssignedCarrierID() string  { return e.assignedCarrierID }
func (e Escalation) FailureReason() string      { return e.failureReason }
func (e Escalation) DeliveryAttempts() int      { return e.deliveryAttempts }
func (e Escalation) LastDeliveryError() string  { return e.lastDeliveryError }
func (e Escalation) NextDeliveryAt() *time.Time { return e.nextDeliveryAt }
func (e Escalation) CreatedAt() time.Time       { return e.createdAt }
func (e Escalation) SubmittedAt() *time.Time    { return e.submittedAt }
func (e Escalation) ResolvedAt() *time.Time     { return e.resolvedAt }

// AwaitingDelivery reports whether the outbound request has not been
// accepted by the matching service yet.
func (e Escalation) AwaitingDelivery() bool {
	return e.status == EscalationPending && e.externalRequestID == ""
}

// DeliveryDue reports whether a retry of the outbound request is due.
func (e Escalation) DeliveryDue(now time.Time) bool {
	return e.AwaitingDelivery() && (e.nextDeliveryAt == nil || !now.Before(*e.nextDeliveryAt))
}
