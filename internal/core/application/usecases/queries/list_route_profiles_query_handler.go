package queries

import (
	"context"
	"strings"

	"freightdispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ListRouteProfilesQueryHandler struct {
	db *gorm.DB
}

func NewListRouteProfilesQueryHandler(db *gorm.DB) ListRouteProfilesQueryHandler {
	return ListRouteProfilesQueryHandler{db: db}
}

// Handle returns lanes sorted by organization, then name.
func (h ListRouteProfilesQueryHandler) Handle(
	ctx context.Context,
	query ListRouteProfilesQuery,
) ([]RouteProfileResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if id := query.OrganizationID(); id != nil {
		where = append(where, "p.organization_id = ?")
		args = append(args, id.Bytes())
	}
	if query.ActiveOnly() {
		where = append(where, "p.active")
	}
	filter := ""
	if len(where) > 0 {
		filter = "WHERE " + strings.Join(where, " AND ")
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			p.id,
			p.organization_id,
			p.name,
			p.active,
			p.origin_postal_prefixes,
			p.origin_city,
			p.origin_region,
			p.origin_country,
			p.destination_postal_prefixes,
			p.destination_city,
			p.destination_region,
			p.destination_country,
			p.cargo_types,
			p.required_constraints,
			(SELECT COUNT(*) FROM carrier_slots s WHERE s.route_profile_id = p.id)
		FROM route_profiles p
		`+filter+`
		ORDER BY p.organization_id, p.name, p.id
	`, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]RouteProfileResponse, 0)
	for rows.Next() {
		var (
			p                                   RouteProfileResponse
			id, orgID                           uuid.UUID
			originPrefixes, destinationPrefixes pq.StringArray
			cargoTypes, constraints             pq.StringArray
		)
		if err := rows.Scan(
			&id,
			&orgID,
			&p.Name,
			&p.Active,
			&originPrefixes,
			&p.Origin.City,
			&p.Origin.Region,
			&p.Origin.Country,
			&destinationPrefixes,
			&p.Destination.City,
			&p.Destination.Region,
			&p.Destination.Country,
			&cargoTypes,
			&constraints,
			&p.Carriers,
		); err != nil {
			return nil, err
		}

		if p.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if p.OrganizationID, err = kernel.UUIDFromBytes(orgID[:]); err != nil {
			return nil, err
		}
		p.Origin.PostalPrefixes = nonNil(originPrefixes)
		p.Destination.PostalPrefixes = nonNil(destinationPrefixes)
		p.CargoTypes = nonNil(cargoTypes)
		p.RequiredConstraints = nonNil(constraints)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func nonNil(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}
