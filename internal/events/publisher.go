// Package events publishes payout lifecycle events for downstream
// consumers. Delivery is best-effort: a publish failure is logged and never
// blocks or rolls back the state change that triggered it.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// TransitionEvent is emitted after every applied state transition.
type TransitionEvent struct {
	TransactionID    string    `json:"transaction_id"`
	ExternalPayoutID string    `json:"external_payout_id,omitempty"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	Source           string    `json:"source"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	At               time.Time `json:"at"`
}

type Publisher interface {
	PublishTransition(ctx context.Context, event TransitionEvent) error
	Close() error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransition(context.Context, TransitionEvent) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing transition events to topic.
func NewKafkaPublisher(broker, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *kafkaPublisher) PublishTransition(ctx context.Context, event TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: payload,
	})
	if err != nil {
		log.Printf("failed to publish transition event for %s: %v", event.TransactionID, err)
		return err
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
