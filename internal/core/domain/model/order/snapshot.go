package order

import (
	"errors"
	"time"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"
)

var ErrSnapshotIsNotConstructed = errors.New("Snapshot must be created via NewSnapshot constructor")

// Snapshot is an order as returned by the order source at one point in time.
//
// Invariants:
//   - id and organization id are valid UUIDs
//   - origin and destination are constructed addresses
//   - the pickup window is set; the delivery window may be zero
type Snapshot struct {
	id             kernel.UUID
	organizationID kernel.UUID
	reference      string
	origin         kernel.Address
	destination    kernel.Address
	cargo          Cargo
	pickupWindow   TimeWindow
	deliveryWindow TimeWindow

	isConstructed bool
}

// NewSnapshot validates and assembles a Snapshot. All validation errors are
// joined so the caller sees every problem at once.
//
// Example:
//
//	origin, _ := kernel.NewAddress("69007", "Lyon", "", "FR")
//	destination, _ := kernel.NewAddress("75011", "Paris", "", "FR")
//	cargo, _ := order.NewCargo("pallet", []string{"tail-lift"}, 800, "")
//	pickup, _ := order.NewTimeWindow(time.Now().Add(8*time.Hour), time.Time{})
//	snapshot, err := order.NewSnapshot(orderID, orgID, "PO-1042", origin, destination, cargo, pickup, order.TimeWindow{})
func NewSnapshot(
	id kernel.UUID,
	organizationID kernel.UUID,
	reference string,
	origin kernel.Address,
	destination kernel.Address,
	cargo Cargo,
	pickupWindow TimeWindow,
	deliveryWindow TimeWindow,
) (*Snapshot, error) {
	var pickupErr error
	if pickupWindow.IsZero() {
		pickupErr = errs.NewValueIsRequiredError("pickupWindow")
	}

	if err := errors.Join(
		id.Validate(),
		organizationID.Validate(),
		origin.Validate(),
		destination.Validate(),
		pickupErr,
	); err != nil {
		return nil, err
	}

	return &Snapshot{
		id:             id,
		organizationID: organizationID,
		reference:      reference,
		origin:         origin,
		destination:    destination,
		cargo:          cargo,
		pickupWindow:   pickupWindow,
		deliveryWindow: deliveryWindow,
		isConstructed:  true,
	}, nil
}

func (s *Snapshot) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrSnapshotIsNotConstructed
	}
	return nil
}

func (s *Snapshot) ID() kernel.UUID             { return s.id }
func (s *Snapshot) OrganizationID() kernel.UUID { return s.organizationID }
func (s *Snapshot) Reference() string           { return s.reference }
func (s *Snapshot) Origin() kernel.Address      { return s.origin }
func (s *Snapshot) Destination() kernel.Address { return s.destination }
func (s *Snapshot) Cargo() Cargo                { return s.cargo }
func (s *Snapshot) PickupWindow() TimeWindow    { return s.pickupWindow }
func (s *Snapshot) DeliveryWindow() TimeWindow  { return s.deliveryWindow }

// TimeUntilPickup is measured to the start of the pickup window. It is
// negative when pickup is already overdue.
func (s *Snapshot) TimeUntilPickup(now time.Time) time.Duration {
	return s.pickupWindow.From().Sub(now)
}
