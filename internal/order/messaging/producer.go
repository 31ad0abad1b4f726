package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/broker"
	"github.com/segmentio/kafka-go"
)

// OrderEventProducer publishes order lifecycle events to the orders topic.
type OrderEventProducer struct {
	producer *broker.KafkaProducer
}

func NewOrderEventProducer(producer *broker.KafkaProducer) *OrderEventProducer {
	return &OrderEventProducer{producer: producer}
}

func (p *OrderEventProducer) PublishOrderEvent(ctx context.Context, event *order.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return p.producer.Publish(ctx, []byte(event.OrderID), payload,
		kafka.Header{Key: "event-type", Value: []byte(event.Type)},
	)
}
