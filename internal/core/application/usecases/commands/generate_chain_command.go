package commands

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"
)

var ErrGenerateChainCommandIsNotConstructed = errors.New(
	"GenerateChainCommand must be created via NewGenerateChainCommand constructor",
)

// GenerateChainCommand creates the dispatch chain of an order. Without a
// route profile id the best matching lane of the order's organization is
// used.
//
// Example:
//
//	cmd, err := NewGenerateChainCommand(orderID, nil)
//	result, err := handler.Handle(ctx, cmd)
//	if result.Status == chain.Escalated {
//	    // no lane matched, the matching service takes over
//	}
type GenerateChainCommand struct {
	orderID        kernel.UUID
	routeProfileID *kernel.UUID
	guard          guard.ConstructorGuard
}

func NewGenerateChainCommand(orderID kernel.UUID, routeProfileID *kernel.UUID) (GenerateChainCommand, error) {
	if err := orderID.Validate(); err != nil {
		return GenerateChainCommand{}, err
	}
	if routeProfileID != nil {
		if err := routeProfileID.Validate(); err != nil {
			return GenerateChainCommand{}, err
		}
	}
	return GenerateChainCommand{
		orderID:        orderID,
		routeProfileID: routeProfileID,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c GenerateChainCommand) OrderID() kernel.UUID         { return c.orderID }
func (c GenerateChainCommand) RouteProfileID() *kernel.UUID { return c.routeProfileID }

func (c GenerateChainCommand) Validate() error {
	return c.guard.Validate(ErrGenerateChainCommandIsNotConstructed)
}
