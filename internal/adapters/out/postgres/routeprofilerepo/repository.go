package routeprofilerepo

import (
	"context"
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"
	"freightdispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRouteProfileRepository implements ports.RouteProfileRepository using GORM.
type GormRouteProfileRepository struct {
	db *gorm.DB
}

func NewGormRouteProfileRepository(db *gorm.DB) *GormRouteProfileRepository {
	return &GormRouteProfileRepository{db: db}
}

// Save upserts the lane and replaces its slots. Call it inside a
// transaction so that readers never see a lane without slots.
func (r *GormRouteProfileRepository) Save(ctx context.Context, aggregate *routeprofile.RouteProfile) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	dto := fromDomain(aggregate)
	slots := dto.Slots
	dto.Slots = nil

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&dto).Error; err != nil {
		return err
	}
	if err := db.Where("route_profile_id = ?", dto.ID).Delete(&CarrierSlotDTO{}).Error; err != nil {
		return err
	}
	if len(slots) > 0 {
		if err := db.Create(&slots).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormRouteProfileRepository) Get(ctx context.Context, id kernel.UUID) (*routeprofile.RouteProfile, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RouteProfileDTO
	if err := r.db.WithContext(ctx).Preload("Slots").First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("routeProfile", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormRouteProfileRepository) ListActiveByOrganization(
	ctx context.Context,
	organizationID kernel.UUID,
) ([]*routeprofile.RouteProfile, error) {
	var dtos []RouteProfileDTO
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("organization_id = ? AND active", organizationID.Bytes()).
		Order("name").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]*routeprofile.RouteProfile, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
