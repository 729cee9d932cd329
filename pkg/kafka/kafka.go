// Package kafka wraps segmentio/kafka-go with a keyed JSON producer and a
// consumer-group reader.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Config holds the brokers and topic a Producer or Consumer works on.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

func (c Config) check() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	if c.Topic == "" {
		return errors.New("kafka: topic is required")
	}
	return nil
}

// Producer writes messages to one topic. Messages with the same key land on
// the same partition.
type Producer struct {
	writer *kafkago.Writer
}

// NewProducer creates a Producer. No connection is made until the first write.
func NewProducer(cfg Config) (*Producer, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Producer{writer: &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}, nil
}

// Publish writes one message and waits for the broker to acknowledge it.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	msg := kafkago.Message{Key: []byte(key), Value: value}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", p.writer.Topic, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader *kafkago.Reader
}

// NewConsumer creates a Consumer in cfg.GroupID.
func NewConsumer(cfg Config) (*Consumer, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka: group id is required")
	}
	return &Consumer{reader: kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})}, nil
}

// Consume hands every message to handler and commits it afterwards. A handler
// error is logged and the message committed anyway so one bad record cannot
// stall the partition. It returns when ctx is done.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error {
	cfg := c.reader.Config()
	slog.Info("kafka consumer started", "topic", cfg.Topic, "group", cfg.GroupID)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: fetch failed: %w", err)
		}
		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			slog.Error("kafka message failed",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: commit failed: %w", err)
		}
	}
}

// Close leaves the group and closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
