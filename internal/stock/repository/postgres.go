package repository

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RemainingForSKU(ctx context.Context, skuID string) (int64, error) {
	var remaining int64
	query := `SELECT COALESCE(SUM(quantity_remaining), 0) FROM lots WHERE sku_id = $1`
	err := r.DB.GetContext(ctx, &remaining, query, skuID)
	return remaining, err
}

func (r *PGRepository) SoldForSKU(ctx context.Context, skuID string) (int64, error) {
	var sold int64
	query := `SELECT COALESCE(SUM(quantity_sold), 0) FROM lots WHERE sku_id = $1`
	err := r.DB.GetContext(ctx, &sold, query, skuID)
	return sold, err
}

func (r *PGRepository) SummaryForSKUs(ctx context.Context, skuIDs []string) ([]model.SkuStockSummary, error) {
	if len(skuIDs) == 0 {
		return []model.SkuStockSummary{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT sku_id,
               COALESCE(SUM(quantity_remaining), 0) AS remaining,
               COALESCE(SUM(quantity_sold), 0) AS sold
        FROM lots
        WHERE sku_id IN (?)
        GROUP BY sku_id
    `, skuIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var summaries []model.SkuStockSummary
	err = r.DB.SelectContext(ctx, &summaries, query, args...)
	return summaries, err
}

func (r *PGRepository) SKUsForProduct(ctx context.Context, productID string) ([]string, error) {
	var ids []string
	query := `SELECT id FROM skus WHERE product_id = $1`
	err := r.DB.SelectContext(ctx, &ids, query, productID)
	return ids, err
}
