package order

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	DeleteOrder(ctx context.Context, id string) error

	// TransitionOrder drives the fulfillment state machine. Export details are
	// only consulted for the "export" action.
	TransitionOrder(ctx context.Context, orderID string, input *dto.TransitionInput, exportDetails []ExportDetail) (*model.Order, error)

	// ApplyPaymentEvent updates the order's payment status from an external
	// payment event. Payment state is consumed here, never computed.
	ApplyPaymentEvent(ctx context.Context, orderID string, status model.PaymentStatus) error
}

// ExportDetail mirrors the allocation request lines passed through to the
// allocation ledger on the export action.
type ExportDetail struct {
	LotID       string `json:"lot_id"`
	SkuID       string `json:"sku_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
}
