package commands

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"
)

var ErrSubmitEscalationCommandIsNotConstructed = errors.New(
	"SubmitEscalationCommand must be created via NewSubmitEscalationCommand constructor",
)

// SubmitEscalationCommand delivers a chain's pending escalation to the
// external matching service.
type SubmitEscalationCommand struct {
	chainID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewSubmitEscalationCommand(chainID kernel.UUID) (SubmitEscalationCommand, error) {
	if err := chainID.Validate(); err != nil {
		return SubmitEscalationCommand{}, err
	}
	return SubmitEscalationCommand{chainID: chainID, guard: guard.NewConstructorGuard()}, nil
}

func (c SubmitEscalationCommand) ChainID() kernel.UUID { return c.chainID }

func (c SubmitEscalationCommand) Validate() error {
	return c.guard.Validate(ErrSubmitEscalationCommandIsNotConstructed)
}
