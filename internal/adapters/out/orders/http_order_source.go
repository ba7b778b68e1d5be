// Package orders reads order snapshots from the order management service.
package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"freightdispatch/internal/adapters/out/httpclient"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/pkg/errs"
)

type addressDTO struct {
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
}

type windowDTO struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type orderDTO struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Reference      string     `json:"reference"`
	Origin         addressDTO `json:"origin"`
	Destination    addressDTO `json:"destination"`
	Cargo          struct {
		Type        string   `json:"type"`
		Constraints []string `json:"constraints"`
		WeightKg    float64  `json:"weightKg"`
		Description string   `json:"description"`
	} `json:"cargo"`
	PickupWindow   windowDTO  `json:"pickupWindow"`
	DeliveryWindow *windowDTO `json:"deliveryWindow"`
}

// HTTPOrderSource implements ports.OrderSource against GET /orders/{id}.
type HTTPOrderSource struct {
	client *httpclient.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPOrderSource(cfg Config) *HTTPOrderSource {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &HTTPOrderSource{client: httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: headers,
	})}
}

func (s *HTTPOrderSource) GetOrder(ctx context.Context, orderID kernel.UUID) (*order.Snapshot, error) {
	var dto orderDTO
	if err := s.client.DoJSON(ctx, http.MethodGet, "/orders/"+orderID.String(), nil, &dto); err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, errs.NewObjectNotFoundErrorWithCause("order", orderID.String(), err)
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}

	snapshot, err := toSnapshot(dto)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	if !snapshot.ID().IsEqual(orderID) {
		return nil, errs.NewValueIsInvalidErrorWithCause("order",
			fmt.Errorf("order service returned %s for %s", snapshot.ID(), orderID))
	}
	return snapshot, nil
}

func toSnapshot(dto orderDTO) (*order.Snapshot, error) {
	id, idErr := kernel.UUIDFromString(dto.ID)
	orgID, orgErr := kernel.UUIDFromString(dto.OrganizationID)
	origin, originErr := toAddress(dto.Origin)
	destination, destinationErr := toAddress(dto.Destination)
	cargo, cargoErr := order.NewCargo(dto.Cargo.Type, dto.Cargo.Constraints, dto.Cargo.WeightKg, dto.Cargo.Description)
	pickup, pickupErr := toWindow(&dto.PickupWindow)
	delivery, deliveryErr := toWindow(dto.DeliveryWindow)
	if err := errors.Join(idErr, orgErr, originErr, destinationErr, cargoErr, pickupErr, deliveryErr); err != nil {
		return nil, err
	}

	return order.NewSnapshot(id, orgID, dto.Reference, origin, destination, cargo, pickup, delivery)
}

func toAddress(a addressDTO) (kernel.Address, error) {
	return kernel.NewAddress(a.PostalCode, a.City, a.Region, a.Country)
}

func toWindow(w *windowDTO) (order.TimeWindow, error) {
	if w == nil || w.From == nil {
		return order.TimeWindow{}, nil
	}
	var to time.Time
	if w.To != nil {
		to = *w.To
	}
	return order.NewTimeWindow(*w.From, to)
}
