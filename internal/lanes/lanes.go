// Package lanes loads route profiles from a YAML or JSON lane file.
//
// Example:
//
//	defaults:
//	  organization_id: 5b0e4c0e-8a4f-4c57-9d0e-3f7f2b0a9d11
//	  response_deadline: 30m
//	lanes:
//	  - name: lyon-paris
//	    origin: {postal_prefixes: ["69"], country: FR}
//	    destination: {city: Paris, country: FR}
//	    cargo_types: [pallets]
//	    carriers:
//	      - id: carrier-a
//	        position: 1
//	        minimum_score: 50
//	        contact: {email: dispatch@carrier-a.example}
//
// Values under defaults can be overridden from the environment with the
// LANES_ prefix, e.g. LANES_DEFAULTS__RESPONSE_DEADLINE=45m.
package lanes

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "LANES_"

	DefaultResponseDeadline = 30 * time.Minute
)

// laneNamespace derives stable ids for lanes declared without one, so that
// importing the same file twice updates the lanes instead of duplicating them.
var laneNamespace = kernel.MustUUIDFromString("8f6d3b8e-6f0a-4c1e-9a55-2f3c9b1d7e40")

type File struct {
	Defaults Defaults `koanf:"defaults"`
	Lanes    []Lane   `koanf:"lanes"`
}

type Defaults struct {
	OrganizationID   string `koanf:"organization_id"`
	ResponseDeadline string `koanf:"response_deadline"`
}

type Lane struct {
	ID                  string    `koanf:"id"`
	OrganizationID      string    `koanf:"organization_id"`
	Name                string    `koanf:"name"`
	Active              *bool     `koanf:"active"`
	Origin              Place     `koanf:"origin"`
	Destination         Place     `koanf:"destination"`
	CargoTypes          []string  `koanf:"cargo_types"`
	RequiredConstraints []string  `koanf:"required_constraints"`
	Carriers            []Carrier `koanf:"carriers"`
}

type Place struct {
	PostalPrefixes []string `koanf:"postal_prefixes"`
	City           string   `koanf:"city"`
	Region         string   `koanf:"region"`
	Country        string   `koanf:"country"`
}

type Carrier struct {
	ID               string  `koanf:"id"`
	Position         int     `koanf:"position"`
	MinimumScore     float64 `koanf:"minimum_score"`
	ResponseDeadline string  `koanf:"response_deadline"`
	Contact          Contact `koanf:"contact"`
}

type Contact struct {
	Name  string `koanf:"name"`
	Email string `koanf:"email"`
	Phone string `koanf:"phone"`
}

// Load reads the lane file at path, applies environment overrides and
// builds the route profiles it declares. All invalid lanes are reported
// together.
func Load(path string) ([]*routeprofile.RouteProfile, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported lane file format: %s", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("read lane file: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("read lane overrides: %w", err)
	}

	var f File
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("decode lane file: %w", err)
	}
	return f.RouteProfiles()
}

// RouteProfiles validates the file and converts it.
func (f File) RouteProfiles() ([]*routeprofile.RouteProfile, error) {
	defaultDeadline := DefaultResponseDeadline
	if f.Defaults.ResponseDeadline != "" {
		d, err := parseDeadline(f.Defaults.ResponseDeadline)
		if err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
		defaultDeadline = d
	}

	var (
		profiles = make([]*routeprofile.RouteProfile, 0, len(f.Lanes))
		problems []error
		seen     = make(map[string]int, len(f.Lanes))
	)
	for i, lane := range f.Lanes {
		p, err := lane.routeProfile(f.Defaults.OrganizationID, defaultDeadline)
		if err != nil {
			problems = append(problems, fmt.Errorf("lane %d (%s): %w", i, lane.Name, err))
			continue
		}

		key := p.OrganizationID().String() + "/" + strings.ToLower(p.Name())
		if first, dup := seen[key]; dup {
			problems = append(problems, fmt.Errorf("lane %d (%s): duplicates lane %d", i, lane.Name, first))
			continue
		}
		seen[key] = i
		profiles = append(profiles, p)
	}

	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (l Lane) routeProfile(defaultOrganization string, defaultDeadline time.Duration) (*routeprofile.RouteProfile, error) {
	orgRaw := l.OrganizationID
	if orgRaw == "" {
		orgRaw = defaultOrganization
	}
	if orgRaw == "" {
		return nil, errors.New("organization_id is required")
	}
	organizationID, err := kernel.UUIDFromString(orgRaw)
	if err != nil {
		return nil, fmt.Errorf("organization_id: %w", err)
	}

	var id kernel.UUID
	if l.ID != "" {
		if id, err = kernel.UUIDFromString(l.ID); err != nil {
			return nil, fmt.Errorf("id: %w", err)
		}
	} else {
		id = kernel.NameBasedUUID(laneNamespace, orgRaw+"/"+strings.ToLower(strings.TrimSpace(l.Name)))
	}

	slots := make([]routeprofile.CarrierSlot, 0, len(l.Carriers))
	var problems []error
	for j, c := range l.Carriers {
		deadline := defaultDeadline
		if c.ResponseDeadline != "" {
			if deadline, err = parseDeadline(c.ResponseDeadline); err != nil {
				problems = append(problems, fmt.Errorf("carrier %d: %w", j, err))
				continue
			}
		}
		slot, err := routeprofile.NewCarrierSlot(c.ID, c.Position, c.MinimumScore, deadline, routeprofile.Contact{
			Name:  c.Contact.Name,
			Email: c.Contact.Email,
			Phone: c.Contact.Phone,
		})
		if err != nil {
			problems = append(problems, fmt.Errorf("carrier %d: %w", j, err))
			continue
		}
		slots = append(slots, slot)
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}

	active := l.Active == nil || *l.Active
	return routeprofile.RestoreRouteProfile(
		id,
		organizationID,
		l.Name,
		l.Origin.placeRule(),
		l.Destination.placeRule(),
		l.CargoTypes,
		l.RequiredConstraints,
		slots,
		active,
	)
}

func (p Place) placeRule() routeprofile.PlaceRule {
	return routeprofile.NewPlaceRule(p.PostalPrefixes, p.City, p.Region, p.Country)
}

func parseDeadline(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("response_deadline: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("response_deadline must be positive, got %s", s)
	}
	return d, nil
}
