package queries

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"
)

var ErrDetectRouteQueryIsNotConstructed = errors.New(
	"DetectRouteQuery must be created via NewDetectRouteQuery constructor",
)

// DetectRouteQuery lists the lanes an order fits, best first. It changes
// nothing; GenerateChain makes the same decision when no lane is given.
//
// Example:
//
//	query, err := NewDetectRouteQuery(orderID)
//	matches, err := handler.Handle(ctx, query)
//	if len(matches) == 0 {
//	    // the chain of this order will escalate straight away
//	}
type DetectRouteQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewDetectRouteQuery(orderID kernel.UUID) (DetectRouteQuery, error) {
	if err := orderID.Validate(); err != nil {
		return DetectRouteQuery{}, err
	}
	return DetectRouteQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q DetectRouteQuery) OrderID() kernel.UUID { return q.orderID }

func (q DetectRouteQuery) Validate() error {
	return q.guard.Validate(ErrDetectRouteQueryIsNotConstructed)
}

// RouteMatchResponse is one matching lane with its score broken down.
type RouteMatchResponse struct {
	RouteProfileID   kernel.UUID
	Name             string
	Score            int
	OriginScore      int
	DestinationScore int
	CargoScore       int
	ConstraintScore  int
	Carriers         int
}
