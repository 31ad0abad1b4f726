package export

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/export/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

type UseCase interface {
	// CreateExport creates a warehouse transfer export. When
	// ImportWarehouseID is set, compensating lots are created at the
	// destination within the same transaction.
	CreateExport(ctx context.Context, input *dto.CreateExportInput) (*model.Export, error)

	// CreateExportForOrder allocates stock for a CONFIRMED order and moves it
	// to EXPORTED. The allocations must match the order's requested
	// quantities exactly, per SKU.
	CreateExportForOrder(ctx context.Context, orderID string, details []dto.ExportDetailInput) (*model.Export, error)

	// UpdateExport edits an export's allocations by applying per-lot deltas,
	// avoiding the transient over-release a full deallocate/reallocate would
	// cause. Only permitted while the owning order is still in EXPORTED.
	UpdateExport(ctx context.Context, exportID string, details []dto.ExportDetailInput) (*model.Export, error)

	GetExport(ctx context.Context, id string) (*model.Export, error)
}
