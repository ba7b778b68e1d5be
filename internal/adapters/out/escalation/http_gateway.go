// Package escalation talks to the external carrier matching service.
package escalation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"freightdispatch/internal/adapters/out/httpclient"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/errs"
)

type addressDTO struct {
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country"`
}

type cargoDTO struct {
	Type        string   `json:"type"`
	Constraints []string `json:"constraints"`
	WeightKg    float64  `json:"weightKg,omitempty"`
}

type windowDTO struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type submitRequest struct {
	OrderID      string     `json:"orderId"`
	Reference    string     `json:"reference,omitempty"`
	Pickup       addressDTO `json:"pickup"`
	Delivery     addressDTO `json:"delivery"`
	PickupWindow windowDTO  `json:"pickupWindow"`
	Cargo        cargoDTO   `json:"cargo"`
	Urgency      string     `json:"urgency"`
	Reason       string     `json:"reason,omitempty"`
	CallbackURL  string     `json:"callbackUrl"`
}

type submitResponse struct {
	ExternalRequestID string `json:"externalRequestId"`
	Status            string `json:"status"`
}

type statusResponse struct {
	ExternalRequestID string     `json:"externalRequestId"`
	Status            string     `json:"status"`
	CarrierID         string     `json:"carrierId,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// HTTPGateway implements ports.EscalationGateway.
//
// Wire contract:
//
//	POST /external-orders            -> {externalRequestId, status}
//	GET  /external-orders/status/{id} -> {externalRequestId, status, carrierId?, updatedAt?}
//	POST /external-orders/cancel/{id} {reason}
//
// Submissions carry the chain id as Idempotency-Key so that a retried POST
// does not open a second request. Each call is sent once; failed deliveries
// are retried by the escalation retry job.
type HTTPGateway struct {
	client *httpclient.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPGateway(cfg Config) *HTTPGateway {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &HTTPGateway{
		client: httpclient.New(httpclient.Config{
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			MaxAttempts: 1,
			Headers:     headers,
		}),
	}
}

func (g *HTTPGateway) Submit(ctx context.Context, r ports.EscalationRequest) (ports.EscalationReceipt, error) {
	body := submitRequest{
		OrderID:      r.OrderID.String(),
		Reference:    r.Reference,
		Pickup:       toAddressDTO(r.Pickup),
		Delivery:     toAddressDTO(r.Delivery),
		PickupWindow: windowDTO{From: r.PickupFrom, To: r.PickupTo},
		Cargo: cargoDTO{
			Type:        r.CargoType,
			Constraints: nonNil(r.Constraints),
			WeightKg:    r.WeightKg,
		},
		Urgency:     string(r.Urgency),
		Reason:      r.Reason,
		CallbackURL: r.CallbackURL,
	}

	var resp submitResponse
	err := g.client.DoJSONWithHeaders(ctx, http.MethodPost, "/external-orders",
		map[string]string{"Idempotency-Key": r.ChainID.String()}, body, &resp)
	if err != nil {
		return ports.EscalationReceipt{}, fmt.Errorf("submit escalation for order %s: %w", r.OrderID, err)
	}
	return ports.EscalationReceipt{ExternalRequestID: resp.ExternalRequestID, Status: resp.Status}, nil
}

func (g *HTTPGateway) GetStatus(ctx context.Context, externalRequestID string) (ports.EscalationStatusReport, error) {
	var resp statusResponse
	err := g.client.DoJSON(ctx, http.MethodGet, "/external-orders/status/"+url.PathEscape(externalRequestID), nil, &resp)
	if err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return ports.EscalationStatusReport{}, errs.NewObjectNotFoundErrorWithCause("externalRequest", externalRequestID, err)
		}
		return ports.EscalationStatusReport{}, err
	}
	return ports.EscalationStatusReport{
		ExternalRequestID: resp.ExternalRequestID,
		Status:            resp.Status,
		CarrierID:         resp.CarrierID,
		UpdatedAt:         resp.UpdatedAt,
	}, nil
}

// Cancel treats an unknown request as already gone.
func (g *HTTPGateway) Cancel(ctx context.Context, externalRequestID, reason string) error {
	err := g.client.DoJSON(ctx, http.MethodPost, "/external-orders/cancel/"+url.PathEscape(externalRequestID),
		cancelRequest{Reason: reason}, nil)
	if httpclient.IsStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

func toAddressDTO(a kernel.Address) addressDTO {
	return addressDTO{
		PostalCode: a.PostalCode(),
		City:       a.City(),
		Region:     a.Region(),
		Country:    a.Country(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
