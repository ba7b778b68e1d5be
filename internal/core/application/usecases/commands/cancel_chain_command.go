package commands

import (
	"errors"
	"strings"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"
	"freightdispatch/internal/pkg/guard"
)

var ErrCancelChainCommandIsNotConstructed = errors.New(
	"CancelChainCommand must be created via NewCancelChainCommand constructor",
)

type CancelChainCommand struct {
	chainID kernel.UUID
	reason  string
	guard   guard.ConstructorGuard
}

func NewCancelChainCommand(chainID kernel.UUID, reason string) (CancelChainCommand, error) {
	if err := chainID.Validate(); err != nil {
		return CancelChainCommand{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return CancelChainCommand{}, errs.NewValueIsRequiredError("reason")
	}
	return CancelChainCommand{chainID: chainID, reason: reason, guard: guard.NewConstructorGuard()}, nil
}

func (c CancelChainCommand) ChainID() kernel.UUID { return c.chainID }
func (c CancelChainCommand) Reason() string       { return c.reason }

func (c CancelChainCommand) Validate() error {
	return c.guard.Validate(ErrCancelChainCommandIsNotConstructed)
}
