package lot

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, lot *model.Lot) error
	GetByID(ctx context.Context, id string) (*model.Lot, error)
	ListBySKU(ctx context.Context, skuID string) ([]model.Lot, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Lot, error)
	FindAll(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error)

	// ListIDs returns every lot id, used by the reconciliation sweep to batch.
	ListIDs(ctx context.Context) ([]string, error)

	// ReconcileRemaining re-derives quantity_remaining from the allocation
	// ledger for the given lots, one statement per lot.
	ReconcileRemaining(ctx context.Context, lotIDs []string) ([]model.ReconcileResult, error)
}
