package commands

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
)

var (
	// ErrNoCarrierAvailable is returned to the caller that started a chain
	// which escalated immediately because nobody could be offered the order.
	// The escalation itself has been committed.
	ErrNoCarrierAvailable = errors.New("no carrier available")

	// ErrChainAlreadyActive is returned when an order already has a chain
	// that has not been cancelled or failed in escalation.
	ErrChainAlreadyActive = errors.New("order already has an active dispatch chain")
)

// ChainLockKey and OrderLockKey name the locks that serialize work on one
// chain or one order.
func ChainLockKey(id kernel.UUID) string { return "chain:" + id.String() }
func OrderLockKey(id kernel.UUID) string { return "order:" + id.String() }
