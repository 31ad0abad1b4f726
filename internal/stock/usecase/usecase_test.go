package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStockRepo struct {
	remaining map[string]int64
	sold      map[string]int64
	products  map[string][]string
}

func (r *fakeStockRepo) RemainingForSKU(ctx context.Context, skuID string) (int64, error) {
	return r.remaining[skuID], nil
}

func (r *fakeStockRepo) SoldForSKU(ctx context.Context, skuID string) (int64, error) {
	return r.sold[skuID], nil
}

func (r *fakeStockRepo) SummaryForSKUs(ctx context.Context, skuIDs []string) ([]model.SkuStockSummary, error) {
	out := make([]model.SkuStockSummary, 0, len(skuIDs))
	for _, id := range skuIDs {
		out = append(out, model.SkuStockSummary{
			SkuID:     id,
			Remaining: r.remaining[id],
			Sold:      r.sold[id],
		})
	}
	return out, nil
}

func (r *fakeStockRepo) SKUsForProduct(ctx context.Context, productID string) ([]string, error) {
	return r.products[productID], nil
}

func TestStockSummaryForProduct(t *testing.T) {
	repo := &fakeStockRepo{
		remaining: map[string]int64{"sku-1": 70, "sku-2": 25},
		sold:      map[string]int64{"sku-1": 30, "sku-2": 5},
		products:  map[string][]string{"prod-1": {"sku-1", "sku-2"}},
	}
	uc := NewStockUseCase(repo, nil, zap.NewNop())

	summary, err := uc.StockSummaryForProduct(context.Background(), "prod-1")
	require.NoError(t, err)

	assert.Equal(t, "prod-1", summary.ProductID)
	assert.Equal(t, int64(95), summary.Remaining)
	assert.Equal(t, int64(35), summary.Sold)
	assert.Len(t, summary.Skus, 2)
}

func TestStockSummaryForProduct_UnknownProduct(t *testing.T) {
	uc := NewStockUseCase(&fakeStockRepo{products: map[string][]string{}}, nil, zap.NewNop())

	_, err := uc.StockSummaryForProduct(context.Background(), "prod-missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemainingForSKU(t *testing.T) {
	repo := &fakeStockRepo{remaining: map[string]int64{"sku-1": 42}}
	uc := NewStockUseCase(repo, nil, zap.NewNop())

	remaining, err := uc.RemainingForSKU(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), remaining)
}
