package queries

import (
	"errors"
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"
)

var ErrGetEscalationStatusQueryIsNotConstructed = errors.New(
	"GetEscalationStatusQuery must be created via NewGetEscalationStatusQuery constructor",
)

// GetEscalationStatusQuery asks the matching service how the escalation of
// a chain is going.
type GetEscalationStatusQuery struct {
	chainID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetEscalationStatusQuery(chainID kernel.UUID) (GetEscalationStatusQuery, error) {
	if err := chainID.Validate(); err != nil {
		return GetEscalationStatusQuery{}, err
	}
	return GetEscalationStatusQuery{chainID: chainID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetEscalationStatusQuery) ChainID() kernel.UUID { return q.chainID }

func (q GetEscalationStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetEscalationStatusQueryIsNotConstructed)
}

// EscalationStatusResponse combines the local record with the remote view.
// Remote fields are empty while the request has not reached the matching
// service.
type EscalationStatusResponse struct {
	ChainID           kernel.UUID
	ExternalRequestID string
	LocalStatus       string
	DeliveryAttempts  int
	NextDeliveryAt    *time.Time
	RemoteStatus      string
	CarrierID         string
	UpdatedAt         *time.Time
}
