package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/services"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
)

// failuresBeforeAlert is the delivery failure count from which failures are
// logged at error level.
const failuresBeforeAlert = 5

type SubmitEscalationResult struct {
	// Skipped is set when the chain had nothing awaiting delivery.
	Skipped           bool
	Delivered         bool
	ExternalRequestID string
	DeliveryAttempts  int
	NextDeliveryAt    *time.Time
}

type SubmitEscalationConfig struct {
	CallbackURL string
	Timeout     time.Duration
	Schedule    RetrySchedule
}

// SubmitEscalationCommandHandler makes one delivery attempt of a chain's
// escalation. The chain lock is held throughout so that the retry job, the
// operator retry and the post-commit submission never deliver twice. The
// outbound call happens before the write transaction is opened.
type SubmitEscalationCommandHandler struct {
	uowFactory ChainUoWFactory
	locker     ports.Locker
	clock      clock.Clock
	orders     ports.OrderSource
	gateway    ports.EscalationGateway
	metrics    ports.DispatchMetrics
	urgency    services.UrgencyClassifier
	cfg        SubmitEscalationConfig
	logger     *slog.Logger
}

func NewSubmitEscalationCommandHandler(
	uowFactory ChainUoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	orders ports.OrderSource,
	gateway ports.EscalationGateway,
	metrics ports.DispatchMetrics,
	cfg SubmitEscalationConfig,
	logger *slog.Logger,
) SubmitEscalationCommandHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSideEffectTimeout
	}
	if cfg.Schedule == (RetrySchedule{}) {
		cfg.Schedule = DefaultRetrySchedule()
	}
	return SubmitEscalationCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clk,
		orders:     orders,
		gateway:    gateway,
		metrics:    metrics,
		urgency:    services.NewUrgencyClassifier(),
		cfg:        cfg,
		logger:     logger.With("component", "escalation-submitter"),
	}
}

func (h SubmitEscalationCommandHandler) Handle(
	ctx context.Context,
	command SubmitEscalationCommand,
) (SubmitEscalationResult, error) {
	if err := command.Validate(); err != nil {
		return SubmitEscalationResult{}, err
	}

	unlock, err := h.locker.Lock(ctx, ChainLockKey(command.ChainID()))
	if err != nil {
		return SubmitEscalationResult{}, fmt.Errorf("lock chain %s: %w", command.ChainID(), err)
	}
	defer unlock()

	uow := h.uowFactory.Create()
	c, err := uow.ChainRepository().Get(ctx, command.ChainID())
	if err != nil {
		return SubmitEscalationResult{}, err
	}
	esc := c.Escalation()
	if c.Status() != chain.Escalated || esc == nil || !esc.AwaitingDelivery() {
		return SubmitEscalationResult{Skipped: true}, nil
	}

	now := h.clock.Now()
	urgency, receipt, deliveryErr := h.deliver(ctx, c, esc.Reason(), now)

	if err := uow.Begin(ctx); err != nil {
		return SubmitEscalationResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	result := SubmitEscalationResult{}
	if deliveryErr == nil {
		if err := c.MarkEscalationSubmitted(receipt.ExternalRequestID, urgency, now); err != nil {
			return SubmitEscalationResult{}, err
		}
		result.Delivered = true
		result.ExternalRequestID = receipt.ExternalRequestID
	} else {
		failures := esc.DeliveryAttempts() + 1
		next := now.Add(h.cfg.Schedule.Delay(failures))
		if err := c.MarkEscalationDeliveryFailed(deliveryErr.Error(), urgency, next); err != nil {
			return SubmitEscalationResult{}, err
		}
		result.NextDeliveryAt = &next
	}
	result.DeliveryAttempts = c.Escalation().DeliveryAttempts()

	if err := uow.ChainRepository().Update(ctx, c); err != nil {
		return SubmitEscalationResult{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return SubmitEscalationResult{}, err
	}

	h.metrics.EscalationDelivery(result.Delivered)
	h.logResult(ctx, c, result, deliveryErr)
	return result, nil
}

// deliver builds the outbound request from the current order and submits
// it. Urgency falls back to urgent when the order cannot be read, since
// the pickup time is then unknown.
func (h SubmitEscalationCommandHandler) deliver(
	ctx context.Context,
	c *chain.Chain,
	reason string,
	now time.Time,
) (chain.Urgency, ports.EscalationReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	o, err := h.orders.GetOrder(ctx, c.OrderID())
	if err != nil {
		return chain.UrgencyUrgent, ports.EscalationReceipt{}, fmt.Errorf("read order %s: %w", c.OrderID(), err)
	}
	urgency := h.urgency.Classify(o.TimeUntilPickup(now))

	receipt, err := h.gateway.Submit(ctx, ports.EscalationRequest{
		ChainID:     c.ID(),
		OrderID:     c.OrderID(),
		Reference:   o.Reference(),
		Pickup:      o.Origin(),
		Delivery:    o.Destination(),
		PickupFrom:  o.PickupWindow().From(),
		PickupTo:    o.PickupWindow().To(),
		CargoType:   o.Cargo().Type(),
		Constraints: o.Cargo().Constraints(),
		WeightKg:    o.Cargo().WeightKg(),
		Urgency:     urgency,
		Reason:      reason,
		CallbackURL: h.cfg.CallbackURL,
	})
	if err != nil {
		return urgency, ports.EscalationReceipt{}, err
	}
	if receipt.ExternalRequestID == "" {
		return urgency, ports.EscalationReceipt{}, errors.New("matching service returned no request id")
	}
	return urgency, receipt, nil
}

func (h SubmitEscalationCommandHandler) logResult(
	ctx context.Context,
	c *chain.Chain,
	result SubmitEscalationResult,
	deliveryErr error,
) {
	attrs := []any{
		"chain_id", c.ID().String(),
		"order_id", c.OrderID().String(),
		"delivery_attempts", result.DeliveryAttempts,
	}
	switch {
	case result.Delivered:
		h.logger.InfoContext(ctx, "escalation delivered", append(attrs, "external_request_id", result.ExternalRequestID)...)
	case result.DeliveryAttempts >= failuresBeforeAlert:
		h.logger.ErrorContext(ctx, "escalation delivery keeps failing",
			append(attrs, "next_delivery_at", result.NextDeliveryAt, "error", deliveryErr)...)
	default:
		h.logger.WarnContext(ctx, "escalation delivery failed",
			append(attrs, "next_delivery_at", result.NextDeliveryAt, "error", deliveryErr)...)
	}
}
