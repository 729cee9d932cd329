package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// ErrClosed is returned once the client has been closed.
var ErrClosed = errors.New("rabbitmq: client closed")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// queue events are published to.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		return nil, errors.New("rabbitmq: queue name is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	slog.Info("rabbitmq connected", "queue", cfg.Queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message to the client's queue. messageType
// is carried in the AMQP type property so consumers can route without decoding.
func (c *Client) Publish(ctx context.Context, messageType string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return ErrClosed
	}

	err := c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         messageType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume delivers every message of the queue to handler until ctx is done or
// the channel closes. Handled messages are acked. A failed message is requeued
// once and dropped if it fails again on redelivery.
func (c *Client) Consume(ctx context.Context, consumerTag string, handler func(context.Context, amqp.Delivery) error) error {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	msgs, err := c.channel.Consume(
		c.queue,     // queue
		consumerTag, // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("rabbitmq consumer started", "queue", c.queue, "consumer", consumerTag)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				slog.Error("rabbitmq message failed", "delivery_tag", msg.DeliveryTag, "type", msg.Type, "error", err)
				if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
					slog.Error("rabbitmq nack failed", "delivery_tag", msg.DeliveryTag, "error", nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				slog.Error("rabbitmq ack failed", "delivery_tag", msg.DeliveryTag, "error", ackErr)
			}
		}
	}
}
