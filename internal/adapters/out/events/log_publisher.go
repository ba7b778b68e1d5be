package events

import (
	"context"
	"log/slog"

	"freightdispatch/internal/core/domain/model/chain"
)

// LogPublisher logs chain events instead of publishing them. It is used
// when no Kafka broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "event-log")}
}

func (p *LogPublisher) Publish(ctx context.Context, e chain.DomainEvent) error {
	meta := e.Meta()
	p.logger.DebugContext(ctx, "chain event",
		"event", e.EventType(), "chain_id", meta.ChainID.String(), "order_id", meta.OrderID.String())
	return nil
}
