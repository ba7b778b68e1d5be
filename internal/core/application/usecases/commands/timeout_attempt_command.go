package commands

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"
	"freightdispatch/internal/pkg/guard"
)

var ErrAttemptCommandIsNotConstructed = errors.New(
	"AttemptCommand must be created via NewAttemptCommand constructor",
)

// AttemptCommand addresses one attempt of a chain. It drives both the
// timeout and the reminder of that attempt.
type AttemptCommand struct {
	chainID      kernel.UUID
	attemptIndex int
	guard        guard.ConstructorGuard
}

func NewAttemptCommand(chainID kernel.UUID, attemptIndex int) (AttemptCommand, error) {
	if err := chainID.Validate(); err != nil {
		return AttemptCommand{}, err
	}
	if attemptIndex < 0 {
		return AttemptCommand{}, errs.NewValueIsOutOfRangeError("attemptIndex", attemptIndex, 0, "unbounded")
	}
	return AttemptCommand{chainID: chainID, attemptIndex: attemptIndex, guard: guard.NewConstructorGuard()}, nil
}

func (c AttemptCommand) ChainID() kernel.UUID { return c.chainID }
func (c AttemptCommand) AttemptIndex() int    { return c.attemptIndex }

func (c AttemptCommand) Validate() error {
	return c.guard.Validate(ErrAttemptCommandIsNotConstructed)
}
