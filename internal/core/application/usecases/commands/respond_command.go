package commands

import (
	"errors"
	"strings"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"
	"freightdispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrRespondCommandIsNotConstructed = errors.New(
	"RespondCommand must be created via NewRespondCommand constructor",
)

// RespondCommand is a carrier's answer to the offer it currently holds.
type RespondCommand struct {
	chainID       kernel.UUID
	carrierID     string
	accepted      bool
	proposedPrice *decimal.Decimal
	reason        string
	guard         guard.ConstructorGuard
}

func NewAcceptCommand(chainID kernel.UUID, carrierID string, proposedPrice *decimal.Decimal) (RespondCommand, error) {
	if proposedPrice != nil && proposedPrice.IsNegative() {
		return RespondCommand{}, errs.NewValueIsOutOfRangeError("proposedPrice", proposedPrice.String(), 0, "unbounded")
	}
	return newRespondCommand(chainID, carrierID, true, proposedPrice, "")
}

func NewRefuseCommand(chainID kernel.UUID, carrierID string, reason string) (RespondCommand, error) {
	return newRespondCommand(chainID, carrierID, false, nil, strings.TrimSpace(reason))
}

func newRespondCommand(
	chainID kernel.UUID,
	carrierID string,
	accepted bool,
	price *decimal.Decimal,
	reason string,
) (RespondCommand, error) {
	if err := chainID.Validate(); err != nil {
		return RespondCommand{}, err
	}
	carrierID = strings.TrimSpace(carrierID)
	if carrierID == "" {
		return RespondCommand{}, errs.NewValueIsRequiredError("carrierId")
	}
	return RespondCommand{
		chainID:       chainID,
		carrierID:     carrierID,
		accepted:      accepted,
		proposedPrice: price,
		reason:        reason,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c RespondCommand) ChainID() kernel.UUID            { return c.chainID }
func (c RespondCommand) CarrierID() string               { return c.carrierID }
func (c RespondCommand) Accepted() bool                  { return c.accepted }
func (c RespondCommand) ProposedPrice() *decimal.Decimal { return c.proposedPrice }
func (c RespondCommand) Reason() string                  { return c.reason }

func (c RespondCommand) Validate() error {
	return c.guard.Validate(ErrRespondCommandIsNotConstructed)
}
