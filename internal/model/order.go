package model

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusExported       OrderStatus = "EXPORTED"
	OrderStatusHandOvered     OrderStatus = "HAND_OVERED"
	OrderStatusDelivering     OrderStatus = "DELIVERING"
	OrderStatusShipping       OrderStatus = "SHIPPING"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusFailedDelivery OrderStatus = "FAILED_DELIVERY"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "COD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
)

// orderTransitions enumerates the only legal moves of the fulfillment state
// machine. DELIVERED -> FAILED_DELIVERY exists solely as a correction edge for
// orders marked delivered in error; it reverses sold quantity.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusExported, OrderStatusCancelled},
	OrderStatusExported:   {OrderStatusHandOvered},
	OrderStatusHandOvered: {OrderStatusDelivering},
	OrderStatusDelivering: {OrderStatusShipping, OrderStatusFailedDelivery},
	OrderStatusShipping:   {OrderStatusDelivered, OrderStatusFailedDelivery},
	OrderStatusDelivered:  {OrderStatusFailedDelivery},
}

// CanTransition reports whether moving from one order status to another is
// permitted by the state machine.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID            string        `db:"id" json:"id"`
	CustomerID    string        `db:"customer_id" json:"customer_id"`
	Status        OrderStatus   `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	TotalPrice    float64       `db:"total_price" json:"total_price"`
	ExportID      *string       `db:"export_id" json:"export_id"`
	DeliveryTime  *time.Time    `db:"delivery_time" json:"delivery_time"`
	Note          *string       `db:"note" json:"note"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
	Lines         []OrderLine   `db:"-" json:"lines"`
}

// OrderLine is fixed at order creation. Requested quantity is validated
// against the stock aggregator at creation time but only reserved when the
// order is exported.
type OrderLine struct {
	ID       string  `db:"id" json:"id"`
	OrderID  string  `db:"order_id" json:"order_id"`
	SkuID    string  `db:"sku_id" json:"sku_id"`
	Quantity int64   `db:"quantity" json:"quantity"`
	Price    float64 `db:"price" json:"price"`
}

// RequestedBySku sums the order's line quantities per SKU.
func (o *Order) RequestedBySku() map[string]int64 {
	totals := make(map[string]int64, len(o.Lines))
	for _, line := range o.Lines {
		totals[line.SkuID] += line.Quantity
	}
	return totals
}
