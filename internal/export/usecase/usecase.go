package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/lot"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type exportUseCase struct {
	repo      export.Repository
	lotRepo   lot.Repository
	orderRepo order.Repository
	logger    logger.ZapLogger
}

func NewExportUseCase(repo export.Repository, lotRepo lot.Repository, orderRepo order.Repository, log logger.ZapLogger) export.UseCase {
	return &exportUseCase{
		repo:      repo,
		lotRepo:   lotRepo,
		orderRepo: orderRepo,
		logger:    log,
	}
}

func (uc *exportUseCase) CreateExport(ctx context.Context, input *dto.CreateExportInput) (*model.Export, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	if input.WarehouseID == "" || len(input.Details) == 0 {
		return nil, fmt.Errorf("warehouse_id and detail_export are required: %w", apperr.ErrValidation)
	}

	// Retried client requests with the same token return the original export
	// instead of creating a second transfer.
	if input.RequestID != nil && *input.RequestID != "" {
		existing, err := uc.repo.GetByRequestID(ctx, *input.RequestID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	lots, err := uc.loadAndValidateLots(ctx, input.Details)
	if err != nil {
		return nil, err
	}
	for _, d := range input.Details {
		if lots[d.LotID].WarehouseID != input.WarehouseID {
			return nil, fmt.Errorf("lot %s does not belong to warehouse %s: %w", d.LotID, input.WarehouseID, apperr.ErrValidation)
		}
	}

	now := time.Now()
	exp := &model.Export{
		ID:                uuid.New().String(),
		ExportType:        model.ExportTypeTransfer,
		WarehouseID:       input.WarehouseID,
		ImportWarehouseID: input.ImportWarehouseID,
		RequestID:         input.RequestID,
		CreatedAt:         now,
	}
	exp.Details = buildAllocations(exp.ID, input.Details, now)

	var transferLots []model.Lot
	if input.ImportWarehouseID != nil && *input.ImportWarehouseID != "" {
		for _, d := range input.Details {
			src := lots[d.LotID]
			transferLots = append(transferLots, model.Lot{
				ID:                uuid.New().String(),
				WarehouseID:       *input.ImportWarehouseID,
				SkuID:             src.SkuID,
				LotName:           src.LotName,
				QuantityImported:  d.Quantity,
				QuantitySold:      0,
				QuantityRemaining: d.Quantity,
				PriceImported:     src.PriceImported,
				CreatedAt:         now,
			})
		}
	}

	if err := uc.repo.CreateWithAllocations(ctx, exp, transferLots); err != nil {
		// Lost the idempotency race: another request with this token committed
		// first, so return its export.
		if errors.Is(err, export.ErrDuplicateRequest) && input.RequestID != nil {
			return uc.repo.GetByRequestID(ctx, *input.RequestID)
		}
		return nil, err
	}

	uc.logger.Info("export created",
		zap.String("export_id", exp.ID),
		zap.String("warehouse_id", exp.WarehouseID),
		zap.Int("allocations", len(exp.Details)),
		zap.Bool("transfer_import", len(transferLots) > 0),
	)
	return exp, nil
}

func (uc *exportUseCase) CreateExportForOrder(ctx context.Context, orderID string, details []dto.ExportDetailInput) (*model.Export, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("detail_export is required: %w", apperr.ErrValidation)
	}

	o, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.OrderStatusConfirmed {
		return nil, fmt.Errorf("order %s is %s, expected CONFIRMED: %w", orderID, o.Status, apperr.ErrIllegalTransition)
	}

	if err := checkAllocationMatch(o, details); err != nil {
		return nil, err
	}
	if _, err := uc.loadAndValidateLots(ctx, details); err != nil {
		return nil, err
	}

	now := time.Now()
	exp := &model.Export{
		ID:          uuid.New().String(),
		ExportType:  model.ExportTypeOrder,
		WarehouseID: details[0].WarehouseID,
		OrderID:     &o.ID,
		CreatedAt:   now,
	}
	exp.Details = buildAllocations(exp.ID, details, now)

	if err := uc.repo.CreateWithAllocations(ctx, exp, nil); err != nil {
		return nil, err
	}

	uc.logger.Info("order exported",
		zap.String("export_id", exp.ID),
		zap.String("order_id", o.ID),
		zap.Int("allocations", len(exp.Details)),
	)
	return exp, nil
}

func (uc *exportUseCase) UpdateExport(ctx context.Context, exportID string, details []dto.ExportDetailInput) (*model.Export, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("export_details is required: %w", apperr.ErrValidation)
	}

	exp, err := uc.repo.GetByID(ctx, exportID)
	if err != nil {
		return nil, err
	}

	// A transfer's compensating import lots may already be consumed at the
	// destination, so those exports are frozen.
	if exp.ImportWarehouseID != nil && *exp.ImportWarehouseID != "" {
		return nil, fmt.Errorf("transfer exports with a compensating import cannot be edited: %w", apperr.ErrIllegalTransition)
	}

	if exp.OrderID != nil {
		o, err := uc.orderRepo.GetByID(ctx, *exp.OrderID)
		if err != nil {
			return nil, err
		}
		if o.Status != model.OrderStatusExported {
			return nil, fmt.Errorf("order %s is %s, allocations are frozen: %w", o.ID, o.Status, apperr.ErrIllegalTransition)
		}
		if err := checkAllocationMatch(o, details); err != nil {
			return nil, err
		}
	}

	if _, err := uc.loadAndValidateLots(ctx, details); err != nil {
		return nil, err
	}

	// Delta per lot between old and new requested quantity; only the net
	// delta is applied, so stock is never transiently over-released mid-edit.
	// Requested lines and existing allocations are both aggregated per lot
	// first: duplicate lines for the same lot are legal on create, so an edit
	// must sum them, not keep whichever came last.
	requestedQty := make(map[string]int64, len(details))
	for _, d := range details {
		requestedQty[d.LotID] += d.Quantity
	}

	existingQty := make(map[string]int64, len(exp.Details))
	for _, alloc := range exp.Details {
		existingQty[alloc.LotID] += alloc.Quantity
	}

	now := time.Now()
	var changes []model.AllocationDelta
	seen := make(map[string]bool, len(exp.Details))
	for _, alloc := range exp.Details {
		newQty, keep := requestedQty[alloc.LotID]
		if !keep {
			changes = append(changes, model.AllocationDelta{
				AllocationID: alloc.ID,
				LotID:        alloc.LotID,
				Delta:        -alloc.Quantity,
				Remove:       true,
			})
			continue
		}
		if seen[alloc.LotID] {
			// The first row per lot now carries the whole quantity; extra
			// rows from duplicate create lines are consolidated away without
			// any further stock movement.
			changes = append(changes, model.AllocationDelta{
				AllocationID: alloc.ID,
				LotID:        alloc.LotID,
				Remove:       true,
			})
			continue
		}
		seen[alloc.LotID] = true
		if newQty != existingQty[alloc.LotID] || newQty != alloc.Quantity {
			changes = append(changes, model.AllocationDelta{
				AllocationID: alloc.ID,
				LotID:        alloc.LotID,
				Delta:        newQty - existingQty[alloc.LotID],
				NewQuantity:  newQty,
			})
		}
	}

	var added []model.Allocation
	for _, d := range details {
		if seen[d.LotID] {
			continue
		}
		seen[d.LotID] = true
		added = append(added, model.Allocation{
			ID:          uuid.New().String(),
			ExportID:    exp.ID,
			LotID:       d.LotID,
			SkuID:       d.SkuID,
			WarehouseID: d.WarehouseID,
			Quantity:    requestedQty[d.LotID],
			CreatedAt:   now,
		})
	}

	if err := uc.repo.ApplyAllocationChanges(ctx, exp.ID, changes, added); err != nil {
		return nil, err
	}

	uc.logger.Info("export updated",
		zap.String("export_id", exp.ID),
		zap.Int("changed", len(changes)),
		zap.Int("added", len(added)),
	)
	return uc.repo.GetByID(ctx, exp.ID)
}

func (uc *exportUseCase) GetExport(ctx context.Context, id string) (*model.Export, error) {
	return uc.repo.GetByID(ctx, id)
}

// loadAndValidateLots fetches the referenced lots and checks each request
// line's declared sku/warehouse against the lot row. Mismatched foreign keys
// from a confused caller must never reach the ledger.
func (uc *exportUseCase) loadAndValidateLots(ctx context.Context, details []dto.ExportDetailInput) (map[string]model.Lot, error) {
	ids := make([]string, 0, len(details))
	for _, d := range details {
		if d.Quantity <= 0 {
			return nil, fmt.Errorf("allocation quantity must be positive: %w", apperr.ErrValidation)
		}
		ids = append(ids, d.LotID)
	}

	lots, err := uc.lotRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Lot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}

	for _, d := range details {
		l, ok := byID[d.LotID]
		if !ok {
			return nil, fmt.Errorf("lot %s: %w", d.LotID, apperr.ErrNotFound)
		}
		if l.SkuID != d.SkuID {
			return nil, fmt.Errorf("lot %s holds sku %s, not %s: %w", d.LotID, l.SkuID, d.SkuID, apperr.ErrValidation)
		}
		if l.WarehouseID != d.WarehouseID {
			return nil, fmt.Errorf("lot %s is in warehouse %s, not %s: %w", d.LotID, l.WarehouseID, d.WarehouseID, apperr.ErrValidation)
		}
	}
	return byID, nil
}

// checkAllocationMatch enforces the exact-match invariant for order exports:
// per SKU, the allocation sum must equal the requested sum. Not "at least".
func checkAllocationMatch(o *model.Order, details []dto.ExportDetailInput) error {
	requested := o.RequestedBySku()
	allocated := make(map[string]int64, len(details))
	for _, d := range details {
		allocated[d.SkuID] += d.Quantity
	}

	for skuID, want := range requested {
		if allocated[skuID] != want {
			return fmt.Errorf("sku %s: requested %d, allocated %d: %w", skuID, want, allocated[skuID], apperr.ErrAllocationMismatch)
		}
	}
	for skuID := range allocated {
		if _, ok := requested[skuID]; !ok {
			return fmt.Errorf("sku %s is not on the order: %w", skuID, apperr.ErrAllocationMismatch)
		}
	}
	return nil
}

func buildAllocations(exportID string, details []dto.ExportDetailInput, now time.Time) []model.Allocation {
	allocs := make([]model.Allocation, 0, len(details))
	for _, d := range details {
		allocs = append(allocs, model.Allocation{
			ID:          uuid.New().String(),
			ExportID:    exportID,
			LotID:       d.LotID,
			SkuID:       d.SkuID,
			WarehouseID: d.WarehouseID,
			Quantity:    d.Quantity,
			CreatedAt:   now,
		})
	}
	return allocs
}
