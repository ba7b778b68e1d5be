package queries

import (
	"errors"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/guard"
)

var ErrListRouteProfilesQueryIsNotConstructed = errors.New(
	"ListRouteProfilesQuery must be created via NewListRouteProfilesQuery constructor",
)

// ListRouteProfilesQuery lists configured lanes, optionally for one
// organization only. Inactive lanes are included unless activeOnly is set.
type ListRouteProfilesQuery struct {
	organizationID *kernel.UUID
	activeOnly     bool
	guard          guard.ConstructorGuard
}

func NewListRouteProfilesQuery(organizationID *kernel.UUID, activeOnly bool) (ListRouteProfilesQuery, error) {
	if organizationID != nil {
		if err := organizationID.Validate(); err != nil {
			return ListRouteProfilesQuery{}, err
		}
	}
	return ListRouteProfilesQuery{
		organizationID: organizationID,
		activeOnly:     activeOnly,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (q ListRouteProfilesQuery) OrganizationID() *kernel.UUID { return q.organizationID }
func (q ListRouteProfilesQuery) ActiveOnly() bool             { return q.activeOnly }

func (q ListRouteProfilesQuery) Validate() error {
	return q.guard.Validate(ErrListRouteProfilesQueryIsNotConstructed)
}

type RouteProfileResponse struct {
	ID                  kernel.UUID
	OrganizationID      kernel.UUID
	Name                string
	Active              bool
	Origin              PlaceRuleResponse
	Destination         PlaceRuleResponse
	CargoTypes          []string
	RequiredConstraints []string
	Carriers            int
}

type PlaceRuleResponse struct {
	PostalPrefixes []string
	City           string
	Region         string
	Country        string
}
