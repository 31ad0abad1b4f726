package stock

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

// Repository is the read-side aggregation over the lot ledger. Every caller
// shares this definition of "remaining"; the queries never mutate state.
type Repository interface {
	RemainingForSKU(ctx context.Context, skuID string) (int64, error)
	SoldForSKU(ctx context.Context, skuID string) (int64, error)
	SummaryForSKUs(ctx context.Context, skuIDs []string) ([]model.SkuStockSummary, error)
	SKUsForProduct(ctx context.Context, productID string) ([]string, error)
}
