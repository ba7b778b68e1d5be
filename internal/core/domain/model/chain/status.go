package chain

import (
	"fmt"

	"freightdispatch/internal/pkg/errs"
)

// Status is the lifecycle state of a dispatch chain.
//
// State transitions:
//
//	Pending ──> InProgress ──┬──> Completed
//	   │                     ├──> Escalated ──> Completed (matched externally)
//	   │                     └──> Cancelled
//	   ├──> Escalated (no route, nothing to offer)
//	   └──> Cancelled
//
// Escalated also moves to Cancelled on operator request. Completed and
// Cancelled are final. Escalated is final only once the escalation record
// has failed.
type Status int

const (
	Unknown Status = iota
	Pending
	InProgress
	Completed
	Escalated
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		InProgress: "in_progress",
		Completed:  "completed",
		Escalated:  "escalated",
		Cancelled:  "cancelled",
	}
}

// ParseStatus is the inverse of String for valid statuses.
func ParseStatus(s string) (Status, error) {
	for st, str := range getStatusStrings() {
		if str == s && st != Unknown {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsFinal reports whether no transition leaves the status.
func (s Status) IsFinal() bool {
	return s == Completed || s == Cancelled
}

// Start transitions Pending to InProgress.
func (s Status) Start() (Status, error) {
	if s != Pending {
		return 0, fmt.Errorf("%w: cannot start from %s", ErrChainNotPending, s)
	}
	return InProgress, nil
}

// Complete is reachable from InProgress (carrier accepted) and from Escalated
// (external match).
func (s Status) Complete() (Status, error) {
	if s != InProgress && s != Escalated {
		return 0, fmt.Errorf("%w: cannot complete from %s", ErrInvalidTransition, s)
	}
	return Completed, nil
}

// Escalate is reachable from Pending (nothing to offer) and InProgress
// (candidates exhausted).
func (s Status) Escalate() (Status, error) {
	if s != Pending && s != InProgress {
		return 0, fmt.Errorf("%w: cannot escalate from %s", ErrInvalidTransition, s)
	}
	return Escalated, nil
}

func (s Status) Cancel() (Status, error) {
	if s == Completed || s == Cancelled || s.Validate() != nil {
		return 0, fmt.Errorf("%w: chain is %s", ErrCannotCancel, s)
	}
	return Cancelled, nil
}
