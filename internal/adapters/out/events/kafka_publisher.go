// Package events publishes committed chain events to Kafka so that order
// management and reporting can follow dispatch progress.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"freightdispatch/internal/adapters/out/envelope"
	"freightdispatch/internal/core/domain/model/chain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// statusChanged is the payload of every event. Fields that do not apply to
// an event type are omitted.
type statusChanged struct {
	ChainID           string           `json:"chainId"`
	OrderID           string           `json:"orderId"`
	OrganizationID    string           `json:"organizationId"`
	OccurredAt        time.Time        `json:"occurredAt"`
	AttemptIndex      *int             `json:"attemptIndex,omitempty"`
	CarrierID         string           `json:"carrierId,omitempty"`
	Outcome           string           `json:"outcome,omitempty"`
	Reason            string           `json:"reason,omitempty"`
	ExpiresAt         *time.Time       `json:"expiresAt,omitempty"`
	ProposedPrice     *decimal.Decimal `json:"proposedPrice,omitempty"`
	ViaEscalation     bool             `json:"viaEscalation,omitempty"`
	ExternalRequestID string           `json:"externalRequestId,omitempty"`
	Matched           *bool            `json:"matched,omitempty"`
}

// KafkaPublisher implements ports.EventPublisher. Messages are keyed by
// order id so that one order's events stay in order on one partition.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaWriter builds the writer used in production.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e chain.DomainEvent) error {
	meta := e.Meta()
	env := envelope.New(e.EventType()+".v1", meta.ChainID.String(), meta.OccurredAt, payload(e))

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(meta.OrderID.String()),
		Value: value,
		Time:  meta.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(env.Meta.Type)},
			{Key: "message-id", Value: []byte(env.Meta.ID)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func payload(e chain.DomainEvent) statusChanged {
	meta := e.Meta()
	out := statusChanged{
		ChainID:        meta.ChainID.String(),
		OrderID:        meta.OrderID.String(),
		OrganizationID: meta.OrganizationID.String(),
		OccurredAt:     meta.OccurredAt.UTC(),
	}

	switch ev := e.(type) {
	case chain.OfferSent:
		out.AttemptIndex = &ev.AttemptIndex
		out.CarrierID = ev.CarrierID
		out.ExpiresAt = &ev.ExpiresAt
	case chain.ReminderSent:
		out.AttemptIndex = &ev.AttemptIndex
		out.CarrierID = ev.CarrierID
	case chain.AttemptClosed:
		out.AttemptIndex = &ev.AttemptIndex
		out.CarrierID = ev.CarrierID
		out.Outcome = ev.Outcome.String()
		out.Reason = ev.RefusalReason
	case chain.ChainCompleted:
		out.CarrierID = ev.CarrierID
		out.ProposedPrice = ev.ProposedPrice
		out.ViaEscalation = ev.ViaEscalation
	case chain.ChainEscalated:
		out.Reason = ev.Reason
	case chain.EscalationResolved:
		out.ExternalRequestID = ev.ExternalRequestID
		out.Matched = &ev.Matched
		out.CarrierID = ev.CarrierID
		out.Reason = ev.Reason
	case chain.ChainCancelled:
		out.Reason = ev.Reason
		out.ExternalRequestID = ev.CancelExternalRequestID
		out.CarrierID = ev.WithdrawnCarrierID
	}
	return out
}
