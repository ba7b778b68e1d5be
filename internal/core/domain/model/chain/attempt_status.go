package chain

import (
	"fmt"

	"freightdispatch/internal/pkg/errs"
)

// AttemptStatus is the state of one carrier's turn.
//
//	Pending ──> Sent ──┬──> Accepted
//	   │               ├──> Refused
//	   │               ├──> Timeout
//	   │               └──> Withdrawn
//	   └──> Skipped
//
// Every state other than Pending and Sent is final.
type AttemptStatus int

const (
	AttemptUnknown AttemptStatus = iota
	AttemptPending
	AttemptSent
	AttemptAccepted
	AttemptRefused
	AttemptTimeout
	AttemptSkipped
	AttemptWithdrawn
)

func getAttemptStatusStrings() map[AttemptStatus]string {
	return map[AttemptStatus]string{
		AttemptUnknown:   "unknown",
		AttemptPending:   "pending",
		AttemptSent:      "sent",
		AttemptAccepted:  "accepted",
		AttemptRefused:   "refused",
		AttemptTimeout:   "timeout",
		AttemptSkipped:   "skipped",
		AttemptWithdrawn: "withdrawn",
	}
}

func ParseAttemptStatus(s string) (AttemptStatus, error) {
	for st, str := range getAttemptStatusStrings() {
		if str == s && st != AttemptUnknown {
			return st, nil
		}
	}
	return AttemptUnknown, errs.NewValueIsInvalidErrorWithCause("attempt status is invalid", fmt.Errorf("%q is not a valid attempt status", s))
}

func (s AttemptStatus) Validate() error {
	if s <= AttemptUnknown || s > AttemptWithdrawn {
		return errs.NewValueIsInvalidErrorWithCause("attempt status is invalid", fmt.Errorf("%d is not a valid attempt status", s))
	}
	return nil
}

func (s AttemptStatus) String() string {
	if str, ok := getAttemptStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsFinal reports whether the attempt can no longer change status.
func (s AttemptStatus) IsFinal() bool {
	return s == AttemptAccepted || s == AttemptRefused || s == AttemptTimeout ||
		s == AttemptSkipped || s == AttemptWithdrawn
}

func (s AttemptStatus) Send() (AttemptStatus, error) {
	if s != AttemptPending {
		return 0, fmt.Errorf("%w: cannot send a %s attempt", ErrInvalidTransition, s)
	}
	return AttemptSent, nil
}

func (s AttemptStatus) Skip() (AttemptStatus, error) {
	if s != AttemptPending {
		return 0, fmt.Errorf("%w: cannot skip a %s attempt", ErrInvalidTransition, s)
	}
	return AttemptSkipped, nil
}

// Close moves a sent attempt to one of its response outcomes.
func (s AttemptStatus) Close(outcome AttemptStatus) (AttemptStatus, error) {
	if outcome != AttemptAccepted && outcome != AttemptRefused && outcome != AttemptTimeout {
		return 0, fmt.Errorf("%w: %s is not a response outcome", ErrInvalidTransition, outcome)
	}
	if s != AttemptSent {
		return 0, fmt.Errorf("%w: attempt is %s", ErrAttemptNotActive, s)
	}
	return outcome, nil
}

// Withdraw ends a sent attempt whose chain was cancelled.
func (s AttemptStatus) Withdraw() (AttemptStatus, error) {
	if s != AttemptSent {
		return 0, fmt.Errorf("%w: attempt is %s", ErrAttemptNotActive, s)
	}
	return AttemptWithdrawn, nil
}
