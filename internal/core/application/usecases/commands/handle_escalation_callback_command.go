package commands

import (
	"errors"
	"fmt"
	"strings"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"
	"freightdispatch/internal/pkg/guard"
)

var ErrEscalationCallbackCommandIsNotConstructed = errors.New(
	"EscalationCallbackCommand must be created via NewEscalationCallbackCommand constructor",
)

const (
	CallbackOutcomeMatched = "matched"
	CallbackOutcomeFailed  = "failed"
)

// EscalationCallbackCommand carries the matching service's final answer for
// an order.
type EscalationCallbackCommand struct {
	externalRequestID string
	orderID           kernel.UUID
	matched           bool
	carrierID         string
	reason            string
	guard             guard.ConstructorGuard
}

func NewEscalationCallbackCommand(
	externalRequestID string,
	orderID kernel.UUID,
	outcome string,
	carrierID string,
	reason string,
) (EscalationCallbackCommand, error) {
	if err := orderID.Validate(); err != nil {
		return EscalationCallbackCommand{}, err
	}
	externalRequestID = strings.TrimSpace(externalRequestID)
	if externalRequestID == "" {
		return EscalationCallbackCommand{}, errs.NewValueIsRequiredError("requestId")
	}
	carrierID = strings.TrimSpace(carrierID)

	var matched bool
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case CallbackOutcomeMatched:
		matched = true
		if carrierID == "" {
			return EscalationCallbackCommand{}, errs.NewValueIsRequiredError("carrierId")
		}
	case CallbackOutcomeFailed:
	default:
		return EscalationCallbackCommand{}, errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("unknown outcome %q", outcome))
	}

	return EscalationCallbackCommand{
		externalRequestID: externalRequestID,
		orderID:           orderID,
		matched:           matched,
		carrierID:         carrierID,
		reason:            strings.TrimSpace(reason),
		guard:             guard.NewConstructorGuard(),
	}, nil
}

func (c EscalationCallbackCommand) ExternalRequestID() string { return c.externalRequestID }
func (c EscalationCallbackCommand) OrderID() kernel.UUID      { return c.orderID }
func (c EscalationCallbackCommand) Matched() bool             { return c.matched }
func (c EscalationCallbackCommand) CarrierID() string         { return c.carrierID }
func (c EscalationCallbackCommand) Reason() string            { return c.reason }

func (c EscalationCallbackCommand) Validate() error {
	return c.guard.Validate(ErrEscalationCallbackCommandIsNotConstructed)
}
