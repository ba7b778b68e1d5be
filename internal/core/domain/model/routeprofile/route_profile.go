package routeprofile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/pkg/errs"
	"freightdispatch/internal/pkg/guard"
)

var (
	ErrNameIsRequired               = errs.NewValueIsRequiredError("name")
	ErrRouteProfileIsNotConstructed = errors.New("RouteProfile must be created via NewRouteProfile constructor")
)

// RouteProfile is a lane: a corridor of one organization together with the
// carriers preferred for it.
//
// Invariants:
//   - id and organization id are valid
//   - name is non-empty
//   - carrier ids are unique within the lane
//   - slots are kept sorted by declared position, then carrier id
//
// A lane with no slots is valid. Generating a chain from it yields no
// attempts, which escalates straight away.
//
// Example:
//
//	origin := routeprofile.NewPlaceRule([]string{"69"}, "", "", "FR")
//	destination := routeprofile.NewPlaceRule(nil, "Paris", "", "FR")
//	slot, _ := routeprofile.NewCarrierSlot("carrier-17", 1, 50, 30*time.Minute, routeprofile.Contact{})
//	lane, err := routeprofile.NewRouteProfile(
//	    kernel.NewUUID(), orgID, "Lyon - Paris", origin, destination,
//	    []string{"pallet"}, []string{"tail-lift"}, []routeprofile.CarrierSlot{slot},
//	)
type RouteProfile struct {
	id                  kernel.UUID
	organizationID      kernel.UUID
	name                string
	origin              PlaceRule
	destination         PlaceRule
	cargoTypes          []string
	requiredConstraints []string
	slots               []CarrierSlot
	active              bool

	guard guard.ConstructorGuard
}

// NewRouteProfile creates an active lane.
func NewRouteProfile(
	id kernel.UUID,
	organizationID kernel.UUID,
	name string,
	origin PlaceRule,
	destination PlaceRule,
	cargoTypes []string,
	requiredConstraints []string,
	slots []CarrierSlot,
) (*RouteProfile, error) {
	return RestoreRouteProfile(id, organizationID, name, origin, destination, cargoTypes, requiredConstraints, slots, true)
}

// RestoreRouteProfile rebuilds a lane from storage, keeping its activity flag.
func RestoreRouteProfile(
	id kernel.UUID,
	organizationID kernel.UUID,
	name string,
	origin PlaceRule,
	destination PlaceRule,
	cargoTypes []string,
	requiredConstraints []string,
	slots []CarrierSlot,
	active bool,
) (*RouteProfile, error) {
	p := &RouteProfile{
		origin:              origin,
		destination:         destination,
		cargoTypes:          normalizeTags(cargoTypes),
		requiredConstraints: normalizeTags(requiredConstraints),
		active:              active,
		guard:               guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setID(id),
		p.setOrganizationID(organizationID),
		p.setName(name),
		p.setSlots(slots),
	); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *RouteProfile) Validate() error {
	if p == nil {
		return ErrRouteProfileIsNotConstructed
	}
	return p.guard.Validate(ErrRouteProfileIsNotConstructed)
}

func (p *RouteProfile) IsEqual(other *RouteProfile) bool {
	return other != nil && p.id.IsEqual(other.id)
}

func (p *RouteProfile) ID() kernel.UUID             { return p.id }
func (p *RouteProfile) OrganizationID() kernel.UUID { return p.organizationID }
func (p *RouteProfile) Name() string                { return p.name }
func (p *RouteProfile) Origin() PlaceRule           { return p.origin }
func (p *RouteProfile) Destination() PlaceRule      { return p.destination }
func (p *RouteProfile) IsActive() bool              { return p.active }

func (p *RouteProfile) CargoTypes() []string          { return slices.Clone(p.cargoTypes) }
func (p *RouteProfile) RequiredConstraints() []string { return slices.Clone(p.requiredConstraints) }

// Slots returns a copy of the carrier slots ordered by declared position.
func (p *RouteProfile) Slots() []CarrierSlot {
	return slices.Clone(p.slots)
}

// Slot finds the slot of a carrier.
func (p *RouteProfile) Slot(carrierID string) (CarrierSlot, bool) {
	i := slices.IndexFunc(p.slots, func(s CarrierSlot) bool { return s.carrierID == carrierID })
	if i < 0 {
		return CarrierSlot{}, false
	}
	return p.slots[i], true
}

// AcceptsCargoType reports whether the lane declares the given cargo type.
// A lane that declares no cargo types accepts nothing in particular and
// earns no cargo bonus.
func (p *RouteProfile) AcceptsCargoType(cargoType string) bool {
	return slices.Contains(p.cargoTypes, order.NormalizeTag(cargoType))
}

func (p *RouteProfile) Activate()   { p.active = true }
func (p *RouteProfile) Deactivate() { p.active = false }

func (p *RouteProfile) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *RouteProfile) setOrganizationID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("organizationId", err)
	}
	p.organizationID = id
	return nil
}

func (p *RouteProfile) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	p.name = name
	return nil
}

func (p *RouteProfile) setSlots(slots []CarrierSlot) error {
	seen := make(map[string]struct{}, len(slots))
	for i, s := range slots {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if _, dup := seen[s.carrierID]; dup {
			return errs.NewValueIsInvalidErrorWithCause(
				"slots",
				fmt.Errorf("carrier %q is listed twice", s.carrierID),
			)
		}
		seen[s.carrierID] = struct{}{}
	}

	sorted := slices.Clone(slots)
	slices.SortStableFunc(sorted, func(a, b CarrierSlot) int {
		if a.position != b.position {
			return a.position - b.position
		}
		return strings.Compare(a.carrierID, b.carrierID)
	})
	p.slots = sorted
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = order.NormalizeTag(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
