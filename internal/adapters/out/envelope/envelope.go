// Package envelope is the message wrapper shared by everything this service
// puts on a broker.
package envelope

import (
	"time"

	"github.com/google/uuid"
)

const Producer = "freightdispatch"

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	// Unique message id
	ID string `json:"id"`
	// Messages about the same chain share it
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	Time          time.Time `json:"time"`
	// Message name and version, e.g. dispatch.offer.v1
	Type string `json:"type"`
}

func New(messageType, correlationID string, at time.Time, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:            uuid.NewString(),
			CorrelationID: correlationID,
			Producer:      Producer,
			Time:          at.UTC(),
			Type:          messageType,
		},
		Data: data,
	}
}
