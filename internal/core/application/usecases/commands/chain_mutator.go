package commands

import (
	"context"
	"fmt"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// chainMutator is the read-modify-write cycle shared by every command that
// changes an existing chain. The per-chain lock serializes writers within
// and across instances; the versioned update catches anything that slips
// past it.
type chainMutator struct {
	uowFactory ChainUoWFactory
	locker     ports.Locker
	clock      clock.Clock
}

func newChainMutator(uowFactory ChainUoWFactory, locker ports.Locker, clk clock.Clock) chainMutator {
	return chainMutator{uowFactory: uowFactory, locker: locker, clock: clk}
}

// mutate applies fn to the stored chain and commits. When fn fails nothing
// is written and its error is returned unchanged. On success the events
// recorded during fn are returned for dispatch.
func (m chainMutator) mutate(
	ctx context.Context,
	chainID kernel.UUID,
	fn func(c *chain.Chain, now time.Time) error,
) (*chain.Chain, []chain.DomainEvent, error) {
	unlock, err := m.locker.Lock(ctx, ChainLockKey(chainID))
	if err != nil {
		return nil, nil, fmt.Errorf("lock chain %s: %w", chainID, err)
	}
	defer unlock()

	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ChainRepository()
	c, err := repo.Get(ctx, chainID)
	if err != nil {
		return nil, nil, err
	}

	if err := fn(c, m.clock.Now()); err != nil {
		return c, nil, err
	}

	if err := repo.Update(ctx, c); err != nil {
		return nil, nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return c, c.PullEvents(), nil
}
