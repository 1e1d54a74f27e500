package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventBus publishes order lifecycle events to a Kafka topic, keyed by order
// id so events for one order land on one partition in order.
type EventBus struct {
	writer *kafka.Writer
}

// NewEventBus builds a publisher for the given brokers and topic.
func NewEventBus(brokers []string, topic string) *EventBus {
	return &EventBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Close flushes and closes the underlying writer.
func (b *EventBus) Close() error {
	return b.writer.Close()
}

type orderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (b *EventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	return b.publish(ctx, orderEvent{Type: "order_created", OrderID: orderID})
}

func (b *EventBus) PublishOrderCompleted(ctx context.Context, orderID string) error {
	return b.publish(ctx, orderEvent{Type: "order_completed", OrderID: orderID})
}

func (b *EventBus) PublishOrderCancelled(ctx context.Context, orderID string, reason string) error {
	return b.publish(ctx, orderEvent{Type: "order_cancelled", OrderID: orderID, Reason: reason})
}

func (b *EventBus) publish(ctx context.Context, event orderEvent) error {
	event.OccurredAt = time.Now().UTC()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	err = b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	return nil
}
