package events

import (
	"context"
	"encoding/json"
	"fmt"

	"fwstore/pkg/rabbitmq"

	"github.com/streadway/amqp"
)

// AMQPPublisher publishes events to a RabbitMQ queue.
type AMQPPublisher struct {
	client *rabbitmq.Client
}

// NewAMQPPublisher creates an AMQPPublisher. Closing it closes client.
func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

// Publish sends the event as a persistent JSON message tagged with its type.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, e.Type, body)
}

// Close closes the underlying client.
func (p *AMQPPublisher) Close() error { return p.client.Close() }

// ConsumeAMQP feeds queued events to h until ctx is done.
func ConsumeAMQP(ctx context.Context, client *rabbitmq.Client, h Handler) error {
	return client.Consume(ctx, "fwstore-notifier", func(ctx context.Context, d amqp.Delivery) error {
		e, err := Decode(d.Body)
		if err != nil {
			return err
		}
		return h.Handle(ctx, e)
	})
}
