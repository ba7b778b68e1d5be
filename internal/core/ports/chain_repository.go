// Package ports defines the contracts between the dispatch core and its
// infrastructure: persistence, locking, and the external collaborators the
// engine talks to.
package ports

import (
	"context"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
)

// ChainRepository persists dispatch chains with their attempts and
// escalation record.
type ChainRepository interface {
	// Add stores a new chain.
	Add(ctx context.Context, c *chain.Chain) error

	// Update stores a changed chain. The write is conditional on the version
	// the chain was loaded with and fails with errs.ErrVersionIsInvalid when
	// another writer got there first. On success the chain's version is
	// advanced.
	Update(ctx context.Context, c *chain.Chain) error

	// Get returns errs.ErrObjectNotFound for unknown ids.
	Get(ctx context.Context, id kernel.UUID) (*chain.Chain, error)

	// GetLatestByOrderID returns the most recently created chain of an order.
	GetLatestByOrderID(ctx context.Context, orderID kernel.UUID) (*chain.Chain, error)

	// ListInProgressIDs returns the ids of all chains in progress, oldest
	// first. The timeout monitor scans these.
	ListInProgressIDs(ctx context.Context) ([]kernel.UUID, error)

	// ListEscalationDeliveriesDue returns chains whose escalation has not been
	// accepted by the matching service and whose next delivery is due.
	ListEscalationDeliveriesDue(ctx context.Context, now time.Time, limit int) ([]kernel.UUID, error)

	// ListEscalatedBefore returns escalated chains whose escalation was
	// created before the given instant.
	ListEscalatedBefore(ctx context.Context, before time.Time) ([]*chain.Chain, error)
}
