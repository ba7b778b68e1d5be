package services

import (
	"cmp"
	"slices"
	"strings"

	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/core/domain/model/routeprofile"
)

const (
	CargoTypeScore          = 20
	RequiredConstraintScore = 5
)

// RouteMatch is a route profile that the order fits, with the score split
// by contribution.
type RouteMatch struct {
	Profile          *routeprofile.RouteProfile
	Score            int
	OriginScore      int
	DestinationScore int
	CargoScore       int
	ConstraintScore  int
}

// RouteMatcher scores route profiles against an order.
//
// Scoring per profile:
//   - origin and destination each score their most specific declared
//     criterion: postal prefix 50, city 40, region 20, country 10
//   - a declared cargo type equal to the order's cargo type adds 20
//   - every required constraint the cargo satisfies adds 5
//
// A profile is excluded when it is inactive, belongs to another
// organization, or declares an origin or destination criterion the order
// does not satisfy. Exclusion is absolute: no other contribution can bring
// the profile back. A profile without place criteria is never excluded on
// that basis and may match with a score of zero.
//
// Example:
//
//	matches, err := services.NewRouteMatcher().Match(snapshot, profiles)
//	if len(matches) == 0 {
//	    // escalate: no route profile configured
//	}
//	best := matches[0]
type RouteMatcher struct{}

func NewRouteMatcher() RouteMatcher {
	return RouteMatcher{}
}

// Match returns the matching profiles sorted by score descending, then
// profile name and id. No match is an empty result, not an error.
func (m RouteMatcher) Match(o *order.Snapshot, profiles []*routeprofile.RouteProfile) ([]RouteMatch, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	matches := make([]RouteMatch, 0, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if match, ok := m.score(o, p); ok {
			matches = append(matches, match)
		}
	}

	slices.SortFunc(matches, func(a, b RouteMatch) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			strings.Compare(a.Profile.Name(), b.Profile.Name()),
			strings.Compare(a.Profile.ID().String(), b.Profile.ID().String()),
		)
	})
	return matches, nil
}

// Best returns the top match, or ok=false when nothing matched.
func (m RouteMatcher) Best(o *order.Snapshot, profiles []*routeprofile.RouteProfile) (RouteMatch, bool, error) {
	matches, err := m.Match(o, profiles)
	if err != nil || len(matches) == 0 {
		return RouteMatch{}, false, err
	}
	return matches[0], true, nil
}

func (m RouteMatcher) score(o *order.Snapshot, p *routeprofile.RouteProfile) (RouteMatch, bool) {
	if !p.IsActive() || !p.OrganizationID().IsEqual(o.OrganizationID()) {
		return RouteMatch{}, false
	}

	originScore, ok := p.Origin().Match(o.Origin())
	if !ok {
		return RouteMatch{}, false
	}
	destinationScore, ok := p.Destination().Match(o.Destination())
	if !ok {
		return RouteMatch{}, false
	}

	match := RouteMatch{
		Profile:          p,
		OriginScore:      originScore,
		DestinationScore: destinationScore,
	}
	if o.Cargo().Type() != "" && p.AcceptsCargoType(o.Cargo().Type()) {
		match.CargoScore = CargoTypeScore
	}
	for _, c := range p.RequiredConstraints() {
		if o.Cargo().HasConstraint(c) {
			match.ConstraintScore += RequiredConstraintScore
		}
	}
	match.Score = match.OriginScore + match.DestinationScore + match.CargoScore + match.ConstraintScore
	return match, true
}
