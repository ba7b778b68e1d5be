package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Repositories obtained from
// it use the transaction once Begin has been called and the plain
// connection otherwise.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ChainRepository() ChainRepository
	RouteProfileRepository() RouteProfileRepository
	JobRunRepository() JobRunRepository
}
