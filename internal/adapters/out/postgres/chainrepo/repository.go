package chainrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormChainRepository implements ports.ChainRepository using GORM.
type GormChainRepository struct {
	db *gorm.DB
}

func NewGormChainRepository(db *gorm.DB) *GormChainRepository {
	return &GormChainRepository{db: db}
}

// Add saves a new chain with its attempts and escalation.
func (r *GormChainRepository) Add(ctx context.Context, aggregate *chain.Chain) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	aggregate.AdvanceVersion()
	return nil
}

// Update writes the chain if nobody else did since it was loaded. Attempts
// are upserted; they are never removed.
func (r *GormChainRepository) Update(ctx context.Context, aggregate *chain.Chain) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1

	result := db.Model(&ChainDTO{}).
		Where("id = ? AND version = ?", dto.ID, aggregate.Version()).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&ChainDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("chain", aggregate.ID().String())
		}
		return errs.NewVersionIsInvalidError("chain",
			fmt.Errorf("chain %s was modified since version %d", aggregate.ID(), aggregate.Version()))
	}

	if len(dto.Attempts) > 0 {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chain_id"}, {Name: "idx"}},
			UpdateAll: true,
		}).Create(&dto.Attempts).Error; err != nil {
			return err
		}
	}
	if dto.Escalation != nil {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chain_id"}},
			UpdateAll: true,
		}).Create(dto.Escalation).Error; err != nil {
			return err
		}
	}

	aggregate.AdvanceVersion()
	return nil
}

func (r *GormChainRepository) Get(ctx context.Context, id kernel.UUID) (*chain.Chain, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ChainDTO
	if err := r.loaded(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("chain", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormChainRepository) GetLatestByOrderID(ctx context.Context, orderID kernel.UUID) (*chain.Chain, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto ChainDTO
	err := r.loaded(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at DESC").
		Order("id DESC").
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormChainRepository) ListInProgressIDs(ctx context.Context) ([]kernel.UUID, error) {
	var raw []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&ChainDTO{}).
		Where("status = ?", chain.InProgress.String()).
		Order("created_at").
		Pluck("id", &raw).Error
	if err != nil {
		return nil, err
	}
	return toUUIDs(raw)
}

func (r *GormChainRepository) ListEscalationDeliveriesDue(ctx context.Context, now time.Time, limit int) ([]kernel.UUID, error) {
	var raw []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("dispatch_chains AS c").
		Joins("JOIN chain_escalations AS e ON e.chain_id = c.id").
		Where("c.status = ?", chain.Escalated.String()).
		Where("e.status = ? AND e.external_request_id = ''", chain.EscalationPending.String()).
		Where("e.next_delivery_at IS NULL OR e.next_delivery_at <= ?", now).
		Order("e.created_at").
		Limit(limit).
		Pluck("c.id", &raw).Error
	if err != nil {
		return nil, err
	}
	return toUUIDs(raw)
}

func (r *GormChainRepository) ListEscalatedBefore(ctx context.Context, before time.Time) ([]*chain.Chain, error) {
	var dtos []ChainDTO
	err := r.loaded(ctx).
		Select("dispatch_chains.*").
		Joins("JOIN chain_escalations AS e ON e.chain_id = dispatch_chains.id").
		Where("dispatch_chains.status = ? AND e.created_at < ?", chain.Escalated.String(), before).
		Order("e.created_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	chains := make([]*chain.Chain, 0, len(dtos))
	for _, dto := range dtos {
		c, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		chains = append(chains, c)
	}
	return chains, nil
}

func (r *GormChainRepository) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("Escalation")
}

func toUUIDs(raw []uuid.UUID) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := kernel.UUIDFromBytes(r[:])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
