package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/stock"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/cache"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

const summaryCacheTTL = 30 * time.Second

type stockUseCase struct {
	repo   stock.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewStockUseCase(repo stock.Repository, cache *cache.RedisClient, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *stockUseCase) RemainingForSKU(ctx context.Context, skuID string) (int64, error) {
	return uc.repo.RemainingForSKU(ctx, skuID)
}

func (uc *stockUseCase) SoldForSKU(ctx context.Context, skuID string) (int64, error) {
	return uc.repo.SoldForSKU(ctx, skuID)
}

func (uc *stockUseCase) StockSummaryForProduct(ctx context.Context, productID string) (*model.ProductStockSummary, error) {
	cacheKey := "stock:product:" + productID

	if uc.cache != nil {
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var summary model.ProductStockSummary
			if err := json.Unmarshal([]byte(val), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	skuIDs, err := uc.repo.SKUsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(skuIDs) == 0 {
		return nil, fmt.Errorf("product %s has no skus: %w", productID, apperr.ErrNotFound)
	}

	skuSummaries, err := uc.repo.SummaryForSKUs(ctx, skuIDs)
	if err != nil {
		return nil, err
	}

	summary := &model.ProductStockSummary{
		ProductID: productID,
		Skus:      skuSummaries,
	}
	for _, s := range skuSummaries {
		summary.Remaining += s.Remaining
		summary.Sold += s.Sold
	}

	if uc.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, summaryCacheTTL); err != nil {
				uc.logger.Warn("failed to cache stock summary", zap.Error(err))
			}
		}
	}

	return summary, nil
}
