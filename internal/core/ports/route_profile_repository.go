package ports

import (
	"context"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"
)

// RouteProfileRepository persists lanes.
type RouteProfileRepository interface {
	// Save inserts or replaces a lane including its carrier slots.
	Save(ctx context.Context, p *routeprofile.RouteProfile) error

	// Get returns errs.ErrObjectNotFound for unknown ids.
	Get(ctx context.Context, id kernel.UUID) (*routeprofile.RouteProfile, error)

	// ListActiveByOrganization returns the active lanes of an organization.
	ListActiveByOrganization(ctx context.Context, organizationID kernel.UUID) ([]*routeprofile.RouteProfile, error)
}
