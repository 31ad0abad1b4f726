package order

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
)

type Repository interface {
	// Create inserts the order and its lines in one transaction.
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// Transition performs a conditional status update (guarded by the allowed
	// source states) plus any sold-quantity adjustments, in one transaction.
	// Zero affected rows means the order was not in an allowed source state.
	// Clamped sold adjustments are reported back so the caller can log them.
	Transition(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus, set dto.StatusUpdate, sold []model.SoldAdjustment) ([]model.SoldAdjustmentResult, error)

	UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error

	// Delete removes an order still in PENDING; any later state is rejected.
	Delete(ctx context.Context, orderID string) error
}
