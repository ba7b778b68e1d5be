// Package notifications hands carrier notifications to the messaging
// service over RabbitMQ. Delivery to the carrier (mail, SMS) happens there.
package notifications

import (
	"context"
	"time"

	"freightdispatch/internal/adapters/out/envelope"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"

	"github.com/shopspring/decimal"
)

// Routing keys and message types.
const (
	KeyOffer        = "notifications.carrier.offer"
	KeyReminder     = "notifications.carrier.reminder"
	KeyConfirmation = "notifications.carrier.confirmation"

	TypeOffer        = "dispatch.offer.v1"
	TypeReminder     = "dispatch.reminder.v1"
	TypeConfirmation = "dispatch.confirmation.v1"
)

type contactDTO struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type offerDTO struct {
	ChainID        string     `json:"chainId"`
	OrderID        string     `json:"orderId"`
	OrderReference string     `json:"orderReference,omitempty"`
	AttemptIndex   int        `json:"attemptIndex"`
	CarrierID      string     `json:"carrierId"`
	Contact        contactDTO `json:"contact"`
	Origin         string     `json:"origin,omitempty"`
	Destination    string     `json:"destination,omitempty"`
	CargoType      string     `json:"cargoType,omitempty"`
	PickupFrom     *time.Time `json:"pickupFrom,omitempty"`
	Deadline       time.Time  `json:"deadline"`
	ResponseURL    string     `json:"responseUrl"`
}

type reminderDTO struct {
	ChainID          string     `json:"chainId"`
	OrderID          string     `json:"orderId"`
	AttemptIndex     int        `json:"attemptIndex"`
	CarrierID        string     `json:"carrierId"`
	Contact          contactDTO `json:"contact"`
	MinutesRemaining int        `json:"minutesRemaining"`
	ResponseURL      string     `json:"responseUrl"`
}

type confirmationDTO struct {
	ChainID       string           `json:"chainId"`
	OrderID       string           `json:"orderId"`
	CarrierID     string           `json:"carrierId"`
	Contact       contactDTO       `json:"contact"`
	ProposedPrice *decimal.Decimal `json:"proposedPrice,omitempty"`
	ViaEscalation bool             `json:"viaEscalation"`
}

// Sender implements ports.NotificationSender.
type Sender struct {
	publisher Publisher
	clock     clock.Clock
}

func NewSender(publisher Publisher, clk clock.Clock) *Sender {
	return &Sender{publisher: publisher, clock: clk}
}

func (s *Sender) SendOffer(ctx context.Context, n ports.OfferNotification) error {
	return s.publish(ctx, KeyOffer, TypeOffer, n.ChainID.String(), offerDTO{
		ChainID:        n.ChainID.String(),
		OrderID:        n.OrderID.String(),
		OrderReference: n.OrderReference,
		AttemptIndex:   n.AttemptIndex,
		CarrierID:      n.CarrierID,
		Contact:        contactDTO(n.Contact),
		Origin:         n.Origin,
		Destination:    n.Destination,
		CargoType:      n.CargoType,
		PickupFrom:     n.PickupFrom,
		Deadline:       n.Deadline.UTC(),
		ResponseURL:    n.ResponseURL,
	})
}

func (s *Sender) SendReminder(ctx context.Context, n ports.ReminderNotification) error {
	return s.publish(ctx, KeyReminder, TypeReminder, n.ChainID.String(), reminderDTO{
		ChainID:          n.ChainID.String(),
		OrderID:          n.OrderID.String(),
		AttemptIndex:     n.AttemptIndex,
		CarrierID:        n.CarrierID,
		Contact:          contactDTO(n.Contact),
		MinutesRemaining: n.MinutesRemaining,
		ResponseURL:      n.ResponseURL,
	})
}

func (s *Sender) SendConfirmation(ctx context.Context, n ports.ConfirmationNotification) error {
	return s.publish(ctx, KeyConfirmation, TypeConfirmation, n.ChainID.String(), confirmationDTO{
		ChainID:       n.ChainID.String(),
		OrderID:       n.OrderID.String(),
		CarrierID:     n.CarrierID,
		Contact:       contactDTO(n.Contact),
		ProposedPrice: n.ProposedPrice,
		ViaEscalation: n.ViaEscalation,
	})
}

func (s *Sender) publish(ctx context.Context, key, messageType, correlationID string, data any) error {
	return s.publisher.Publish(ctx, key, envelope.New(messageType, correlationID, s.clock.Now(), data))
}
