package chain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the root of every rejected state change. Callers
// that only need to know "this dispatch is no longer actionable" match on it
// with errors.Is.
var ErrInvalidTransition = errors.New("invalid transition")

var (
	ErrAttemptNotActive    = fmt.Errorf("%w: attempt is not active", ErrInvalidTransition)
	ErrDeadlineNotReached  = fmt.Errorf("%w: response deadline not reached", ErrInvalidTransition)
	ErrReminderNotDue      = fmt.Errorf("%w: reminder is not due", ErrInvalidTransition)
	ErrChainNotPending     = fmt.Errorf("%w: chain is not pending", ErrInvalidTransition)
	ErrEscalationNotActive = fmt.Errorf("%w: escalation is not active", ErrInvalidTransition)
	ErrCannotCancel        = fmt.Errorf("%w: chain cannot be cancelled", ErrInvalidTransition)
)

// ErrChainNotActive is returned for attempt operations on a chain that is no
// longer in progress. No attempt of such a chain is active either.
var ErrChainNotActive = fmt.Errorf("%w: chain is not in progress", ErrAttemptNotActive)

var ErrChainIsNotConstructed = errors.New("Chain must be created via NewChain constructor")
