package postgres

import (
	"freightdispatch/internal/adapters/out/postgres/chainrepo"
	"freightdispatch/internal/adapters/out/postgres/jobrunrepo"
	"freightdispatch/internal/adapters/out/postgres/routeprofilerepo"

	"gorm.io/gorm"
)

// Migrate creates or updates the dispatch schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&routeprofilerepo.RouteProfileDTO{},
		&routeprofilerepo.CarrierSlotDTO{},
		&chainrepo.ChainDTO{},
		&chainrepo.AttemptDTO{},
		&chainrepo.EscalationDTO{},
		&jobrunrepo.JobRunDTO{},
	)
}
