package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"pending to exported", OrderStatusPending, OrderStatusExported, false},
		{"pending to delivered", OrderStatusPending, OrderStatusDelivered, false},
		{"confirmed to exported", OrderStatusConfirmed, OrderStatusExported, true},
		{"confirmed to cancelled", OrderStatusConfirmed, OrderStatusCancelled, true},
		{"confirmed to hand overed", OrderStatusConfirmed, OrderStatusHandOvered, false},
		{"exported to hand overed", OrderStatusExported, OrderStatusHandOvered, true},
		{"exported to cancelled", OrderStatusExported, OrderStatusCancelled, false},
		{"hand overed to delivering", OrderStatusHandOvered, OrderStatusDelivering, true},
		{"hand overed to shipping", OrderStatusHandOvered, OrderStatusShipping, false},
		{"delivering to shipping", OrderStatusDelivering, OrderStatusShipping, true},
		{"delivering to failed delivery", OrderStatusDelivering, OrderStatusFailedDelivery, true},
		{"delivering to delivered", OrderStatusDelivering, OrderStatusDelivered, false},
		{"shipping to delivered", OrderStatusShipping, OrderStatusDelivered, true},
		{"shipping to failed delivery", OrderStatusShipping, OrderStatusFailedDelivery, true},
		{"delivered correction to failed delivery", OrderStatusDelivered, OrderStatusFailedDelivery, true},
		{"delivered to shipping", OrderStatusDelivered, OrderStatusShipping, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPending, false},
		{"failed delivery is terminal", OrderStatusFailedDelivery, OrderStatusDelivering, false},
		{"no skipping states", OrderStatusConfirmed, OrderStatusDelivered, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestRequestedBySku(t *testing.T) {
	o := &Order{
		Lines: []OrderLine{
			{SkuID: "sku-1", Quantity: 3},
			{SkuID: "sku-2", Quantity: 5},
			{SkuID: "sku-1", Quantity: 2},
		},
	}

	totals := o.RequestedBySku()
	assert.Equal(t, int64(5), totals["sku-1"])
	assert.Equal(t, int64(5), totals["sku-2"])
	assert.Len(t, totals, 2)
}
