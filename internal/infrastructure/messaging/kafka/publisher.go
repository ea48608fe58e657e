// Package kafka relays outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"registracion/internal/infrastructure/storage/postgres"
)

// Headers set on every relayed message.
const (
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderMessageID     = "message_id"
)

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher implements postgres.OutboxHandler. Messages are keyed by
// aggregate id so events of one operation stay ordered within a partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a synchronous publisher that waits for all in-sync replicas.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
		WriteTimeout: 10 * time.Second,
	}}
}

// NewPublisherWith is only for tests to inject a fake writer.
func NewPublisherWith(w messageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Handle writes one outbox message to the topic.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(msg.AggregateID),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(msg.EventType)},
			{Key: HeaderAggregateType, Value: []byte(msg.AggregateType)},
			{Key: HeaderMessageID, Value: []byte(msg.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write kafka message %s: %w", msg.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ postgres.OutboxHandler = (*Publisher)(nil)
