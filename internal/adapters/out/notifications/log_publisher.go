package notifications

import (
	"context"
	"log/slog"

	"freightdispatch/internal/adapters/out/envelope"
)

// LogPublisher writes notifications to the log instead of a broker. It is
// used when no RabbitMQ URL is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "notification-log")}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, env envelope.Envelope) error {
	p.logger.InfoContext(ctx, "notification",
		"routing_key", routingKey, "type", env.Meta.Type, "correlation_id", env.Meta.CorrelationID)
	return nil
}
