package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
)

const DefaultSideEffectTimeout = 10 * time.Second

// EventDispatcher delivers the side effects of committed chain events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []chain.DomainEvent)
}

// EscalationSubmitter hands an escalated chain to the matching service.
type EscalationSubmitter interface {
	Handle(ctx context.Context, command SubmitEscalationCommand) (SubmitEscalationResult, error)
}

// PostCommitDispatcher turns chain events into notifications, escalation
// calls, published events and metrics. Every side effect runs with its own
// bounded timeout on a context that survives cancellation of the request
// that caused it. Failures are logged and counted, never returned: the
// transition they belong to is already committed.
type PostCommitDispatcher struct {
	notifications ports.NotificationSender
	orders        ports.OrderSource
	gateway       ports.EscalationGateway
	publisher     ports.EventPublisher
	metrics       ports.DispatchMetrics
	submitter     EscalationSubmitter

	responseBaseURL string
	timeout         time.Duration
	logger          *slog.Logger
}

type PostCommitDispatcherConfig struct {
	// ResponseBaseURL is the public base URL carriers answer offers at.
	ResponseBaseURL string
	Timeout         time.Duration
}

func NewPostCommitDispatcher(
	notifications ports.NotificationSender,
	orders ports.OrderSource,
	gateway ports.EscalationGateway,
	publisher ports.EventPublisher,
	metrics ports.DispatchMetrics,
	submitter EscalationSubmitter,
	cfg PostCommitDispatcherConfig,
	logger *slog.Logger,
) *PostCommitDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSideEffectTimeout
	}
	return &PostCommitDispatcher{
		notifications:   notifications,
		orders:          orders,
		gateway:         gateway,
		publisher:       publisher,
		metrics:         metrics,
		submitter:       submitter,
		responseBaseURL: strings.TrimRight(cfg.ResponseBaseURL, "/"),
		timeout:         cfg.Timeout,
		logger:          logger.With("component", "post-commit-dispatcher"),
	}
}

// ResponseURL is where the carrier holding an offer on the chain answers.
func ResponseURL(baseURL string, chainID kernel.UUID) string {
	return fmt.Sprintf("%s/api/v1/dispatch-chains/%s/responses", strings.TrimRight(baseURL, "/"), chainID)
}

func (d *PostCommitDispatcher) Dispatch(ctx context.Context, events []chain.DomainEvent) {
	ctx = context.WithoutCancel(ctx)
	for _, e := range events {
		d.handle(ctx, e)
		d.publish(ctx, e)
	}
}

func (d *PostCommitDispatcher) handle(ctx context.Context, e chain.DomainEvent) {
	switch ev := e.(type) {
	case chain.OfferSent:
		d.metrics.OfferSent()
		d.sendOffer(ctx, ev)
	case chain.ReminderSent:
		d.metrics.ReminderSent()
		d.sendReminder(ctx, ev)
	case chain.AttemptClosed:
		d.metrics.AttemptClosed(ev.Outcome.String())
	case chain.ChainCompleted:
		d.metrics.ChainCompleted(ev.ViaEscalation)
		d.sendConfirmation(ctx, ev)
	case chain.ChainEscalated:
		d.metrics.ChainEscalated(ev.Reason)
		d.submitEscalation(ctx, ev)
	case chain.EscalationResolved:
		// counted through ChainCompleted when matched
	case chain.ChainCancelled:
		if ev.WithdrawnCarrierID != "" {
			d.metrics.AttemptClosed(chain.AttemptWithdrawn.String())
		}
		d.metrics.ChainCancelled()
		d.cancelEscalation(ctx, ev)
	}
}

func (d *PostCommitDispatcher) sendOffer(ctx context.Context, ev chain.OfferSent) {
	n := ports.OfferNotification{
		ChainID:      ev.ChainID,
		OrderID:      ev.OrderID,
		AttemptIndex: ev.AttemptIndex,
		CarrierID:    ev.CarrierID,
		Contact:      ev.Contact,
		Deadline:     ev.ExpiresAt,
		ResponseURL:  ResponseURL(d.responseBaseURL, ev.ChainID),
	}

	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		o, err := d.orders.GetOrder(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		pickup := o.PickupWindow().From()
		n.OrderReference = o.Reference()
		n.Origin = o.Origin().String()
		n.Destination = o.Destination().String()
		n.CargoType = o.Cargo().Type()
		n.PickupFrom = &pickup
		return nil
	}); err != nil {
		d.logger.WarnContext(ctx, "offer sent without order details",
			"chain_id", ev.ChainID.String(), "order_id", ev.OrderID.String(), "error", err)
	}

	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.notifications.SendOffer(ctx, n)
	}); err != nil {
		d.metrics.NotificationFailed("offer")
		d.logger.ErrorContext(ctx, "failed to send offer",
			"chain_id", ev.ChainID.String(), "attempt", ev.AttemptIndex, "carrier_id", ev.CarrierID, "error", err)
	}
}

func (d *PostCommitDispatcher) sendReminder(ctx context.Context, ev chain.ReminderSent) {
	n := ports.ReminderNotification{
		ChainID:          ev.ChainID,
		OrderID:          ev.OrderID,
		AttemptIndex:     ev.AttemptIndex,
		CarrierID:        ev.CarrierID,
		Contact:          ev.Contact,
		MinutesRemaining: ev.MinutesRemaining,
		ResponseURL:      ResponseURL(d.responseBaseURL, ev.ChainID),
	}
	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.notifications.SendReminder(ctx, n)
	}); err != nil {
		d.metrics.NotificationFailed("reminder")
		d.logger.ErrorContext(ctx, "failed to send reminder",
			"chain_id", ev.ChainID.String(), "attempt", ev.AttemptIndex, "carrier_id", ev.CarrierID, "error", err)
	}
}

func (d *PostCommitDispatcher) sendConfirmation(ctx context.Context, ev chain.ChainCompleted) {
	n := ports.ConfirmationNotification{
		ChainID:       ev.ChainID,
		OrderID:       ev.OrderID,
		CarrierID:     ev.CarrierID,
		Contact:       ev.Contact,
		ProposedPrice: ev.ProposedPrice,
		ViaEscalation: ev.ViaEscalation,
	}
	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.notifications.SendConfirmation(ctx, n)
	}); err != nil {
		d.metrics.NotificationFailed("confirmation")
		d.logger.ErrorContext(ctx, "failed to send confirmation",
			"chain_id", ev.ChainID.String(), "carrier_id", ev.CarrierID, "error", err)
	}
}

// submitEscalation makes the first delivery attempt right away. When it
// fails the escalation retry job picks the chain up.
func (d *PostCommitDispatcher) submitEscalation(ctx context.Context, ev chain.ChainEscalated) {
	cmd, err := NewSubmitEscalationCommand(ev.ChainID)
	if err != nil {
		d.logger.ErrorContext(ctx, "invalid escalation submission", "chain_id", ev.ChainID.String(), "error", err)
		return
	}
	if _, err := d.submitter.Handle(ctx, cmd); err != nil {
		d.logger.ErrorContext(ctx, "escalation submission failed",
			"chain_id", ev.ChainID.String(), "order_id", ev.OrderID.String(), "reason", ev.Reason, "error", err)
	}
}

func (d *PostCommitDispatcher) cancelEscalation(ctx context.Context, ev chain.ChainCancelled) {
	if ev.CancelExternalRequestID == "" {
		return
	}
	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.gateway.Cancel(ctx, ev.CancelExternalRequestID, ev.Reason)
	}); err != nil {
		d.logger.ErrorContext(ctx, "failed to cancel escalation at matching service",
			"chain_id", ev.ChainID.String(), "external_request_id", ev.CancelExternalRequestID, "error", err)
	}
}

func (d *PostCommitDispatcher) publish(ctx context.Context, e chain.DomainEvent) {
	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.publisher.Publish(ctx, e)
	}); err != nil {
		d.logger.WarnContext(ctx, "failed to publish chain event",
			"chain_id", e.Meta().ChainID.String(), "event", e.EventType(), "error", err)
	}
}

func (d *PostCommitDispatcher) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return fn(ctx)
}
