package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/PayLink/internal/app/model"
)

// NATSVisitPublisher publishes visits to the JetStream visit stream.
type NATSVisitPublisher struct {
	js nats.JetStreamContext
}

// NewNATSVisitPublisher creates a publisher over js.
func NewNATSVisitPublisher(js nats.JetStreamContext) *NATSVisitPublisher {
	return &NATSVisitPublisher{js: js}
}

// Publish sends visit with its event id as the message id, so the stream
// drops republished copies within its duplicate window.
func (p *NATSVisitPublisher) Publish(ctx context.Context, visit model.Visit) error {
	data, err := json.Marshal(visit)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(model.VisitStreamSubject, data, nats.MsgId(visit.EventID), nats.Context(ctx))
	return err
}
