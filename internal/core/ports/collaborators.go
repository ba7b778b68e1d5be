package ports

import (
	"context"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/core/domain/model/routeprofile"

	"github.com/shopspring/decimal"
)

// OrderSource reads orders from the order management service.
type OrderSource interface {
	// GetOrder returns errs.ErrObjectNotFound for unknown orders.
	GetOrder(ctx context.Context, orderID kernel.UUID) (*order.Snapshot, error)
}

// ReputationSource supplies carrier reputation scores in [0, 100].
type ReputationSource interface {
	// GetReputationScore returns known=false for carriers without a score.
	GetReputationScore(ctx context.Context, carrierID string) (score float64, known bool, err error)
}

type OfferNotification struct {
	ChainID        kernel.UUID
	OrderID        kernel.UUID
	OrderReference string
	AttemptIndex   int
	CarrierID      string
	Contact        routeprofile.Contact
	Origin         string
	Destination    string
	CargoType      string
	PickupFrom     *time.Time
	Deadline       time.Time
	ResponseURL    string
}

type ReminderNotification struct {
	ChainID          kernel.UUID
	OrderID          kernel.UUID
	AttemptIndex     int
	CarrierID        string
	Contact          routeprofile.Contact
	MinutesRemaining int
	ResponseURL      string
}

type ConfirmationNotification struct {
	ChainID       kernel.UUID
	OrderID       kernel.UUID
	CarrierID     string
	Contact       routeprofile.Contact
	ProposedPrice *decimal.Decimal
	ViaEscalation bool
}

// NotificationSender delivers carrier notifications. Delivery is best
// effort: callers log failures and never roll back a transition for them.
type NotificationSender interface {
	SendOffer(ctx context.Context, n OfferNotification) error
	SendReminder(ctx context.Context, n ReminderNotification) error
	SendConfirmation(ctx context.Context, n ConfirmationNotification) error
}

type EscalationRequest struct {
	ChainID     kernel.UUID
	OrderID     kernel.UUID
	Reference   string
	Pickup      kernel.Address
	Delivery    kernel.Address
	PickupFrom  time.Time
	PickupTo    time.Time
	CargoType   string
	Constraints []string
	WeightKg    float64
	Urgency     chain.Urgency
	Reason      string
	CallbackURL string
}

type EscalationReceipt struct {
	ExternalRequestID string
	Status            string
}

type EscalationStatusReport struct {
	ExternalRequestID string
	Status            string
	CarrierID         string
	UpdatedAt         *time.Time
}

// EscalationGateway is the external carrier matching service.
type EscalationGateway interface {
	Submit(ctx context.Context, r EscalationRequest) (EscalationReceipt, error)
	GetStatus(ctx context.Context, externalRequestID string) (EscalationStatusReport, error)
	Cancel(ctx context.Context, externalRequestID, reason string) error
}

// EventPublisher publishes committed chain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, e chain.DomainEvent) error
}
