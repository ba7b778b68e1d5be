package queries

import (
	"context"
	"fmt"

	"freightdispatch/internal/core/domain/services"
	"freightdispatch/internal/core/ports"
)

// DetectRouteQueryHandler loads the order and scores the active lanes of its
// organization.
type DetectRouteQueryHandler struct {
	orders   ports.OrderSource
	profiles ports.RouteProfileRepository
	matcher  services.RouteMatcher
}

func NewDetectRouteQueryHandler(orders ports.OrderSource, profiles ports.RouteProfileRepository) DetectRouteQueryHandler {
	return DetectRouteQueryHandler{
		orders:   orders,
		profiles: profiles,
		matcher:  services.NewRouteMatcher(),
	}
}

// Handle returns an empty slice when nothing matches.
func (h DetectRouteQueryHandler) Handle(ctx context.Context, query DetectRouteQuery) ([]RouteMatchResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	o, err := h.orders.GetOrder(ctx, query.OrderID())
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	profiles, err := h.profiles.ListActiveByOrganization(ctx, o.OrganizationID())
	if err != nil {
		return nil, fmt.Errorf("list route profiles: %w", err)
	}

	matches, err := h.matcher.Match(o, profiles)
	if err != nil {
		return nil, err
	}

	result := make([]RouteMatchResponse, 0, len(matches))
	for _, m := range matches {
		result = append(result, RouteMatchResponse{
			RouteProfileID:   m.Profile.ID(),
			Name:             m.Profile.Name(),
			Score:            m.Score,
			OriginScore:      m.OriginScore,
			DestinationScore: m.DestinationScore,
			CargoScore:       m.CargoScore,
			ConstraintScore:  m.ConstraintScore,
			Carriers:         len(m.Profile.Slots()),
		})
	}
	return result, nil
}
