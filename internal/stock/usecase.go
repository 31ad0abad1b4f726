package stock

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

type UseCase interface {
	// RemainingForSKU is the advisory availability pre-check. It is not a
	// reservation: the transactional lot decrement is the enforcement point.
	RemainingForSKU(ctx context.Context, skuID string) (int64, error)
	SoldForSKU(ctx context.Context, skuID string) (int64, error)
	StockSummaryForProduct(ctx context.Context, productID string) (*model.ProductStockSummary, error)
}
