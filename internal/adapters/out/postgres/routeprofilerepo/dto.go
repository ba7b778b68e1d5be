// Package routeprofilerepo persists lanes and their carrier slots.
package routeprofilerepo

import (
	"errors"
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type RouteProfileDTO struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrganizationID      uuid.UUID      `gorm:"type:uuid;index"`
	Name                string         `gorm:"size:256"`
	Origin              PlaceRuleDTO   `gorm:"embedded;embeddedPrefix:origin_"`
	Destination         PlaceRuleDTO   `gorm:"embedded;embeddedPrefix:destination_"`
	CargoTypes          pq.StringArray `gorm:"type:text[]"`
	RequiredConstraints pq.StringArray `gorm:"type:text[]"`
	Active              bool           `gorm:"index"`
	UpdatedAt           time.Time

	Slots []CarrierSlotDTO `gorm:"foreignKey:RouteProfileID;constraint:OnDelete:CASCADE"`
}

func (RouteProfileDTO) TableName() string {
	return "route_profiles"
}

type PlaceRuleDTO struct {
	PostalPrefixes pq.StringArray `gorm:"type:text[]"`
	City           string
	Region         string
	Country        string `gorm:"size:2"`
}

type CarrierSlotDTO struct {
	RouteProfileID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CarrierID               string    `gorm:"size:128;primaryKey"`
	Position                int
	MinimumScore            float64
	ResponseDeadlineSeconds int64
	ContactName             string
	ContactEmail            string
	ContactPhone            string
}

func (CarrierSlotDTO) TableName() string {
	return "carrier_slots"
}

func fromDomain(p *routeprofile.RouteProfile) RouteProfileDTO {
	dto := RouteProfileDTO{
		ID:                  p.ID().Bytes(),
		OrganizationID:      p.OrganizationID().Bytes(),
		Name:                p.Name(),
		Origin:              placeFromDomain(p.Origin()),
		Destination:         placeFromDomain(p.Destination()),
		CargoTypes:          pq.StringArray(p.CargoTypes()),
		RequiredConstraints: pq.StringArray(p.RequiredConstraints()),
		Active:              p.IsActive(),
	}
	for _, s := range p.Slots() {
		dto.Slots = append(dto.Slots, CarrierSlotDTO{
			RouteProfileID:          dto.ID,
			CarrierID:               s.CarrierID(),
			Position:                s.Position(),
			MinimumScore:            s.MinimumScore(),
			ResponseDeadlineSeconds: int64(s.ResponseDeadline() / time.Second),
			ContactName:             s.Contact().Name,
			ContactEmail:            s.Contact().Email,
			ContactPhone:            s.Contact().Phone,
		})
	}
	return dto
}

func placeFromDomain(r routeprofile.PlaceRule) PlaceRuleDTO {
	return PlaceRuleDTO{
		PostalPrefixes: pq.StringArray(r.PostalPrefixes()),
		City:           r.City(),
		Region:         r.Region(),
		Country:        r.Country(),
	}
}

func toDomain(dto RouteProfileDTO) (*routeprofile.RouteProfile, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orgID, orgErr := kernel.UUIDFromBytes(dto.OrganizationID[:])
	if err := errors.Join(idErr, orgErr); err != nil {
		return nil, err
	}

	slots := make([]routeprofile.CarrierSlot, 0, len(dto.Slots))
	for _, s := range dto.Slots {
		slot, err := routeprofile.NewCarrierSlot(
			s.CarrierID,
			s.Position,
			s.MinimumScore,
			time.Duration(s.ResponseDeadlineSeconds)*time.Second,
			routeprofile.Contact{Name: s.ContactName, Email: s.ContactEmail, Phone: s.ContactPhone},
		)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return routeprofile.RestoreRouteProfile(
		id,
		orgID,
		dto.Name,
		routeprofile.NewPlaceRule(dto.Origin.PostalPrefixes, dto.Origin.City, dto.Origin.Region, dto.Origin.Country),
		routeprofile.NewPlaceRule(dto.Destination.PostalPrefixes, dto.Destination.City, dto.Destination.Region, dto.Destination.Country),
		dto.CargoTypes,
		dto.RequiredConstraints,
		slots,
		dto.Active,
	)
}
