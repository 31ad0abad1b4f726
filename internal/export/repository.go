package export

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

// ErrDuplicateRequest is returned when an export with the same idempotency
// token already exists. Callers fetch and return the original instead of
// creating a second transfer for a retried client request.
var ErrDuplicateRequest = errors.New("export request already processed")

type Repository interface {
	// CreateWithAllocations persists the export, its allocations, the lot
	// decrements and (for warehouse transfers) the compensating import lots in
	// one transaction. When exp.OrderID is set, the owning order's
	// CONFIRMED -> EXPORTED move is part of the same transaction; if the order
	// is not CONFIRMED anymore the whole export rolls back.
	CreateWithAllocations(ctx context.Context, exp *model.Export, transferLots []model.Lot) error

	GetByID(ctx context.Context, id string) (*model.Export, error)
	GetByRequestID(ctx context.Context, requestID string) (*model.Export, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Export, error)
	ListDetails(ctx context.Context, exportID string) ([]model.Allocation, error)

	// ApplyAllocationChanges applies per-lot deltas computed for an export
	// edit in one transaction: positive deltas consume more stock, negative
	// deltas release it, removed allocations are compensated and deleted,
	// added ones allocate fresh.
	ApplyAllocationChanges(ctx context.Context, exportID string, changes []model.AllocationDelta, added []model.Allocation) error
}
