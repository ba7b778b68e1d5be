package queries

import (
	"errors"
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetDispatchStatusQueryIsNotConstructed = errors.New(
	"GetDispatchStatusQuery must be created via NewGetDispatchStatusQuery constructor",
)

// GetDispatchStatusQuery reads the latest chain of an order with its
// attempts and escalation record.
type GetDispatchStatusQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetDispatchStatusQuery(orderID kernel.UUID) (GetDispatchStatusQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetDispatchStatusQuery{}, err
	}
	return GetDispatchStatusQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDispatchStatusQuery) OrderID() kernel.UUID { return q.orderID }

func (q GetDispatchStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetDispatchStatusQueryIsNotConstructed)
}

type DispatchStatusResponse struct {
	ChainID        kernel.UUID
	OrderID        kernel.UUID
	OrderReference string
	RouteProfileID *kernel.UUID
	Status         string
	// CurrentAttempt is set only while the chain is in progress.
	CurrentAttempt    *int
	AssignedCarrierID string
	CancelReason      string
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	Attempts          []AttemptResponse
	Escalation        *EscalationResponse
}

type AttemptResponse struct {
	Index          int
	CarrierID      string
	Rank           int
	CombinedScore  float64
	Status         string
	SkipReason     string
	SentAt         *time.Time
	ExpiresAt      *time.Time
	ReminderSentAt *time.Time
	RespondedAt    *time.Time
	RefusalReason  string
	ProposedPrice  *decimal.Decimal
}

type EscalationResponse struct {
	ExternalRequestID string
	Status            string
	Reason            string
	Urgency           string
	AssignedCarrierID string
	FailureReason     string
	DeliveryAttempts  int
	LastDeliveryError string
	NextDeliveryAt    *time.Time
	CreatedAt         time.Time
	SubmittedAt       *time.Time
	ResolvedAt        *time.Time
}
