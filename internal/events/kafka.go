package events

import (
	"context"
	"encoding/json"
	"fmt"

	"fwstore/pkg/kafka"
)

// KafkaPublisher publishes events to a Kafka topic keyed by Event.Key.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher creates a KafkaPublisher. Closing it closes producer.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish writes the event as JSON keyed by e.Key, with its type in a header.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.producer.Publish(ctx, e.Key, body, map[string]string{"type": e.Type})
}

// Close flushes and closes the underlying producer.
func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// ConsumeKafka feeds events from the topic to h until ctx is done.
func ConsumeKafka(ctx context.Context, consumer *kafka.Consumer, h Handler) error {
	return consumer.Consume(ctx, func(ctx context.Context, _, value []byte) error {
		e, err := Decode(value)
		if err != nil {
			return err
		}
		return h.Handle(ctx, e)
	})
}
