// Package commands contains the operations that change dispatch state.
// Every command follows the same pattern: validation, per-chain locking
// where a chain is mutated, a unit of work around the read-modify-write,
// and best-effort side effects once the transaction has committed.
package commands

import (
	"context"

	"freightdispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	ChainRepoFactory interface {
		ChainRepository() ports.ChainRepository
	}

	RouteProfileRepoFactory interface {
		RouteProfileRepository() ports.RouteProfileRepository
	}

	JobRunRepoFactory interface {
		JobRunRepository() ports.JobRunRepository
	}

	// ChainUoW is used by commands that only touch chains.
	ChainUoW interface {
		TxManager
		ChainRepoFactory
	}

	ChainUoWFactory interface {
		Create() ChainUoW
	}

	// UoW covers chain generation, which reads lanes and writes chains.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   lanes := uow.RouteProfileRepository()
	//   chains := uow.ChainRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		ChainRepoFactory
		RouteProfileRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}

	// ReportUoW is used by the periodic report, which records its own runs.
	ReportUoW interface {
		TxManager
		ChainRepoFactory
		JobRunRepoFactory
	}

	ReportUoWFactory interface {
		Create() ReportUoW
	}

	// RouteProfileUoW is used by the lane import.
	RouteProfileUoW interface {
		TxManager
		RouteProfileRepoFactory
	}

	RouteProfileUoWFactory interface {
		Create() RouteProfileUoW
	}
)
