package order

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
)

// OrderEvent is published to the orders topic on creation and on every
// successful state transition.
type OrderEvent struct {
	Type          string              `json:"type"`
	OrderID       string              `json:"order_id"`
	CustomerID    string              `json:"customer_id"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Timestamp     time.Time           `json:"timestamp"`
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error
}

// PaymentEvent is the external payment processor's notification, consumed
// from the payments topic. The core never computes payment state.
type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	PaymentEventCompleted = "payment.completed"
	PaymentEventFailed    = "payment.failed"
	PaymentEventRefunded  = "payment.refunded"
)
