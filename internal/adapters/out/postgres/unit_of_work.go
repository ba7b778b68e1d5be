// Package postgres provides the GORM-based Unit of Work and schema
// migration of the dispatch store.
//
// Repositories obtained from a unit of work run inside its transaction once
// Begin has been called, and against the plain connection otherwise. The
// latter is used for reads that must not hold row locks, such as the
// timeout monitor's scan.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	c, err := uow.ChainRepository().Get(ctx, chainID)
//	// ... apply a transition
//	if err := uow.ChainRepository().Update(ctx, c); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
package postgres

import (
	"context"

	"freightdispatch/internal/adapters/out/postgres/chainrepo"
	"freightdispatch/internal/adapters/out/postgres/jobrunrepo"
	"freightdispatch/internal/adapters/out/postgres/routeprofilerepo"
	"freightdispatch/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
// Each business operation gets a fresh unit of work with its own transaction state.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates one database transaction across the chain,
// route profile and job run repositories.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin starts the transaction. Calling it again while a transaction is
// open is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit returns gorm.ErrInvalidTransaction when no transaction is open.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the open transaction. Without one it returns
// gorm.ErrInvalidTransaction, which the usual deferred Rollback after a
// successful Commit ignores.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

func (uow *GormUnitOfWork) ChainRepository() ports.ChainRepository {
	return chainrepo.NewGormChainRepository(uow.conn())
}

func (uow *GormUnitOfWork) RouteProfileRepository() ports.RouteProfileRepository {
	return routeprofilerepo.NewGormRouteProfileRepository(uow.conn())
}

func (uow *GormUnitOfWork) JobRunRepository() ports.JobRunRepository {
	return jobrunrepo.NewGormJobRunRepository(uow.conn())
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
