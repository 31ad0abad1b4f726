package dto

import "time"

type OrderLineInput struct {
	SkuID    string  `json:"sku_id"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

type CreateOrderInput struct {
	CustomerID    string           `json:"customer_id"`
	PaymentMethod string           `json:"payment_method"`
	Lines         []OrderLineInput `json:"lines"`
}

// TransitionInput selects one state machine action. Reason is required for
// failDelivery and cancel.
type TransitionInput struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// StatusUpdate carries the column writes a transition performs besides the
// status itself.
type StatusUpdate struct {
	DeliveryTime *time.Time
	Note         *string
	MarkPaid     bool
}
