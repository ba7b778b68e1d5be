package commands

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"
)

var ErrStartDispatchCommandIsNotConstructed = errors.New(
	"StartDispatchCommand must be created via NewStartDispatchCommand constructor",
)

type StartDispatchCommand struct {
	chainID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewStartDispatchCommand(chainID kernel.UUID) (StartDispatchCommand, error) {
	if err := chainID.Validate(); err != nil {
		return StartDispatchCommand{}, err
	}
	return StartDispatchCommand{chainID: chainID, guard: guard.NewConstructorGuard()}, nil
}

func (c StartDispatchCommand) ChainID() kernel.UUID { return c.chainID }

func (c StartDispatchCommand) Validate() error {
	return c.guard.Validate(ErrStartDispatchCommandIsNotConstructed)
}
