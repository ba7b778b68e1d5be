package queries

import (
	"context"
	"fmt"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/errs"
)

// ChainReader loads a single chain.
type ChainReader interface {
	Get(ctx context.Context, id kernel.UUID) (*chain.Chain, error)
}

// GetEscalationStatusQueryHandler is a pass-through to the matching service.
// Nothing it learns is written back; resolution arrives via the callback.
type GetEscalationStatusQueryHandler struct {
	chains  ChainReader
	gateway ports.EscalationGateway
}

func NewGetEscalationStatusQueryHandler(chains ChainReader, gateway ports.EscalationGateway) GetEscalationStatusQueryHandler {
	return GetEscalationStatusQueryHandler{chains: chains, gateway: gateway}
}

// Handle returns errs.ErrObjectNotFound for unknown chains and for chains
// that were never escalated.
func (h GetEscalationStatusQueryHandler) Handle(
	ctx context.Context,
	query GetEscalationStatusQuery,
) (EscalationStatusResponse, error) {
	if err := query.Validate(); err != nil {
		return EscalationStatusResponse{}, err
	}

	c, err := h.chains.Get(ctx, query.ChainID())
	if err != nil {
		return EscalationStatusResponse{}, err
	}
	e := c.Escalation()
	if e == nil {
		return EscalationStatusResponse{}, errs.NewObjectNotFoundError("escalation", query.ChainID().String())
	}

	resp := EscalationStatusResponse{
		ChainID:           c.ID(),
		ExternalRequestID: e.ExternalRequestID(),
		LocalStatus:       e.Status().String(),
		DeliveryAttempts:  e.DeliveryAttempts(),
		NextDeliveryAt:    e.NextDeliveryAt(),
		CarrierID:         e.AssignedCarrierID(),
	}
	if e.ExternalRequestID() == "" {
		return resp, nil
	}

	report, err := h.gateway.GetStatus(ctx, e.ExternalRequestID())
	if err != nil {
		return EscalationStatusResponse{}, fmt.Errorf("get escalation status %s: %w", e.ExternalRequestID(), err)
	}
	resp.RemoteStatus = report.Status
	resp.UpdatedAt = report.UpdatedAt
	if report.CarrierID != "" {
		resp.CarrierID = report.CarrierID
	}
	return resp, nil
}
