package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export/dto"
	lotdto "github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	orderdto "github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore backs the repository fakes. One mutex stands in for the database
// transaction, so multi-table operations stay atomic under concurrent callers.
type memStore struct {
	mu      sync.Mutex
	lots    map[string]*model.Lot
	exports map[string]*model.Export
	orders  map[string]*model.Order
}

func newMemStore() *memStore {
	return &memStore{
		lots:    make(map[string]*model.Lot),
		exports: make(map[string]*model.Export),
		orders:  make(map[string]*model.Order),
	}
}

func (s *memStore) addLot(id, warehouseID, skuID string, qty int64) {
	s.lots[id] = &model.Lot{
		ID:                id,
		WarehouseID:       warehouseID,
		SkuID:             skuID,
		LotName:           "LOT-" + id,
		QuantityImported:  qty,
		QuantityRemaining: qty,
		CreatedAt:         time.Now(),
	}
}

func (s *memStore) addOrder(id string, status model.OrderStatus, lines ...model.OrderLine) {
	s.orders[id] = &model.Order{
		ID:     id,
		Status: status,
		Lines:  lines,
	}
}

type memLotRepo struct{ store *memStore }

func (r *memLotRepo) Create(ctx context.Context, l *model.Lot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *l
	r.store.lots[l.ID] = &cp
	return nil
}

func (r *memLotRepo) GetByID(ctx context.Context, id string) (*model.Lot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.lots[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLotRepo) ListBySKU(ctx context.Context, skuID string) ([]model.Lot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Lot
	for _, l := range r.store.lots {
		if l.SkuID == skuID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLotRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Lot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Lot
	for _, id := range ids {
		if l, ok := r.store.lots[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLotRepo) FindAll(ctx context.Context, filters *lotdto.LotFilters) ([]model.Lot, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Lot
	for _, l := range r.store.lots {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (r *memLotRepo) ListIDs(ctx context.Context) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ids := make([]string, 0, len(r.store.lots))
	for id := range r.store.lots {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memLotRepo) ReconcileRemaining(ctx context.Context, lotIDs []string) ([]model.ReconcileResult, error) {
	return nil, nil
}

type memExportRepo struct{ store *memStore }

func (r *memExportRepo) CreateWithAllocations(ctx context.Context, exp *model.Export, transferLots []model.Lot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if exp.RequestID != nil && *exp.RequestID != "" {
		for _, existing := range r.store.exports {
			if existing.RequestID != nil && *existing.RequestID == *exp.RequestID {
				return export.ErrDuplicateRequest
			}
		}
	}

	for _, d := range exp.Details {
		l, ok := r.store.lots[d.LotID]
		if !ok {
			return apperr.ErrNotFound
		}
		if l.QuantityRemaining < d.Quantity {
			return apperr.ErrInsufficientStock
		}
	}

	if exp.OrderID != nil {
		o, ok := r.store.orders[*exp.OrderID]
		if !ok {
			return apperr.ErrNotFound
		}
		if o.Status != model.OrderStatusConfirmed {
			return fmt.Errorf("order is %s: %w", o.Status, apperr.ErrIllegalTransition)
		}
		o.Status = model.OrderStatusExported
		o.ExportID = &exp.ID
	}

	for _, d := range exp.Details {
		r.store.lots[d.LotID].QuantityRemaining -= d.Quantity
	}
	for _, l := range transferLots {
		cp := l
		r.store.lots[l.ID] = &cp
	}

	cp := *exp
	cp.Details = append([]model.Allocation(nil), exp.Details...)
	r.store.exports[exp.ID] = &cp
	return nil
}

func (r *memExportRepo) GetByID(ctx context.Context, id string) (*model.Export, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	exp, ok := r.store.exports[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *exp
	cp.Details = append([]model.Allocation(nil), exp.Details...)
	return &cp, nil
}

func (r *memExportRepo) GetByRequestID(ctx context.Context, requestID string) (*model.Export, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, exp := range r.store.exports {
		if exp.RequestID != nil && *exp.RequestID == requestID {
			cp := *exp
			cp.Details = append([]model.Allocation(nil), exp.Details...)
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memExportRepo) GetByOrderID(ctx context.Context, orderID string) (*model.Export, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, exp := range r.store.exports {
		if exp.OrderID != nil && *exp.OrderID == orderID {
			cp := *exp
			cp.Details = append([]model.Allocation(nil), exp.Details...)
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memExportRepo) ListDetails(ctx context.Context, exportID string) ([]model.Allocation, error) {
	exp, err := r.GetByID(ctx, exportID)
	if err != nil {
		return nil, err
	}
	return exp.Details, nil
}

func (r *memExportRepo) ApplyAllocationChanges(ctx context.Context, exportID string, changes []model.AllocationDelta, added []model.Allocation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	exp, ok := r.store.exports[exportID]
	if !ok {
		return apperr.ErrNotFound
	}

	for _, ch := range changes {
		l := r.store.lots[ch.LotID]
		if ch.Delta > 0 && l.QuantityRemaining < ch.Delta {
			return apperr.ErrInsufficientStock
		}
		if ch.Delta < 0 && l.QuantityRemaining-ch.Delta > l.QuantityImported {
			return apperr.ErrInvariantViolation
		}
	}
	for _, a := range added {
		l, ok := r.store.lots[a.LotID]
		if !ok {
			return apperr.ErrNotFound
		}
		if l.QuantityRemaining < a.Quantity {
			return apperr.ErrInsufficientStock
		}
	}

	for _, ch := range changes {
		r.store.lots[ch.LotID].QuantityRemaining -= ch.Delta
		for i := range exp.Details {
			if exp.Details[i].ID != ch.AllocationID {
				continue
			}
			if ch.Remove {
				exp.Details = append(exp.Details[:i], exp.Details[i+1:]...)
			} else {
				exp.Details[i].Quantity = ch.NewQuantity
			}
			break
		}
	}
	for _, a := range added {
		r.store.lots[a.LotID].QuantityRemaining -= a.Quantity
		exp.Details = append(exp.Details, a)
	}
	return nil
}

type memOrderRepo struct{ store *memStore }

func (r *memOrderRepo) Create(ctx context.Context, o *model.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *o
	r.store.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) FindAll(ctx context.Context, filters *orderdto.OrderFilters) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (r *memOrderRepo) Transition(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus, set orderdto.StatusUpdate, sold []model.SoldAdjustment) ([]model.SoldAdjustmentResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		if o.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("order is %s: %w", o.Status, apperr.ErrIllegalTransition)
	}
	o.Status = to
	return nil, nil
}

func (r *memOrderRepo) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderID]
	if !ok {
		return apperr.ErrNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (r *memOrderRepo) Delete(ctx context.Context, orderID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.orders, orderID)
	return nil
}

func newTestUseCase(store *memStore) export.UseCase {
	return NewExportUseCase(&memExportRepo{store}, &memLotRepo{store}, &memOrderRepo{store}, zap.NewNop())
}

func warehouseCtx() context.Context {
	return auth.WithUser(context.Background(), auth.UserContext{UserID: "u-1", Role: auth.RoleWarehouse})
}

func TestCreateExport_DecrementsStock(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	uc := newTestUseCase(store)

	exp, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
		},
	})
	require.NoError(t, err)
	require.Len(t, exp.Details, 1)
	assert.Equal(t, model.ExportTypeTransfer, exp.ExportType)
	assert.Equal(t, int64(70), store.lots["lot-1"].QuantityRemaining)
}

func TestCreateExport_InsufficientStock(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	uc := newTestUseCase(store)

	_, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
		},
	})
	require.NoError(t, err)

	_, err = uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 80},
		},
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, int64(70), store.lots["lot-1"].QuantityRemaining)
}

func TestUpdateExport_AppliesDeltas(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	store.addLot("lot-2", "wh-1", "sku-2", 50)
	uc := newTestUseCase(store)

	exp, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
			{LotID: "lot-2", SkuID: "sku-2", WarehouseID: "wh-1", Quantity: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70), store.lots["lot-1"].QuantityRemaining)
	assert.Equal(t, int64(40), store.lots["lot-2"].QuantityRemaining)

	// Drop lot-1 entirely, shrink lot-2 to 5. Only the deltas should move.
	updated, err := uc.UpdateExport(warehouseCtx(), exp.ID, []dto.ExportDetailInput{
		{LotID: "lot-2", SkuID: "sku-2", WarehouseID: "wh-1", Quantity: 5},
	})
	require.NoError(t, err)
	require.Len(t, updated.Details, 1)
	assert.Equal(t, int64(100), store.lots["lot-1"].QuantityRemaining)
	assert.Equal(t, int64(45), store.lots["lot-2"].QuantityRemaining)
}

func TestUpdateExport_DuplicateLotLinesSummed(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	store.addOrder("ord-1", model.OrderStatusConfirmed, model.OrderLine{SkuID: "sku-1", Quantity: 10})
	uc := newTestUseCase(store)

	exp, err := uc.CreateExportForOrder(warehouseCtx(), "ord-1", []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(90), store.lots["lot-1"].QuantityRemaining)

	// Two lines for the same lot summing to the same total must be a no-op on
	// the ledger, not a shrink to whichever line came last.
	updated, err := uc.UpdateExport(warehouseCtx(), exp.ID, []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 4},
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 6},
	})
	require.NoError(t, err)

	var total int64
	for _, d := range updated.Details {
		total += d.Quantity
	}
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(90), store.lots["lot-1"].QuantityRemaining)
}

func TestUpdateExport_ConsolidatesDuplicateRows(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	uc := newTestUseCase(store)

	// Duplicate lines on create are legal and produce one row each.
	exp, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 4},
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 6},
		},
	})
	require.NoError(t, err)
	require.Len(t, exp.Details, 2)
	assert.Equal(t, int64(90), store.lots["lot-1"].QuantityRemaining)

	// An edit aggregates both sides per lot: the rows collapse onto one and
	// only the net delta moves stock.
	updated, err := uc.UpdateExport(warehouseCtx(), exp.ID, []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 7},
	})
	require.NoError(t, err)
	require.Len(t, updated.Details, 1)
	assert.Equal(t, int64(7), updated.Details[0].Quantity)
	assert.Equal(t, int64(93), store.lots["lot-1"].QuantityRemaining)
}

func TestUpdateExport_ReleaseBeyondImportedFails(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	store.addLot("lot-2", "wh-1", "sku-2", 50)
	uc := newTestUseCase(store)

	exp, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
			{LotID: "lot-2", SkuID: "sku-2", WarehouseID: "wh-1", Quantity: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70), store.lots["lot-1"].QuantityRemaining)

	// Simulate drifted bookkeeping: the lot reports more remaining than its
	// allocations account for, so the compensation would exceed imported.
	store.lots["lot-1"].QuantityRemaining = 90

	_, err = uc.UpdateExport(warehouseCtx(), exp.ID, []dto.ExportDetailInput{
		{LotID: "lot-2", SkuID: "sku-2", WarehouseID: "wh-1", Quantity: 10},
	})
	assert.ErrorIs(t, err, apperr.ErrInvariantViolation)
}

func TestCreateExport_Idempotency(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	uc := newTestUseCase(store)

	requestID := "req-abc"
	input := &dto.CreateExportInput{
		WarehouseID: "wh-1",
		RequestID:   &requestID,
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
		},
	}

	first, err := uc.CreateExport(warehouseCtx(), input)
	require.NoError(t, err)

	second, err := uc.CreateExport(warehouseCtx(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(70), store.lots["lot-1"].QuantityRemaining)
	assert.Len(t, store.exports, 1)
}

func TestCreateExport_TransferCreatesImportLots(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	uc := newTestUseCase(store)

	dest := "wh-2"
	exp, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID:       "wh-1",
		ImportWarehouseID: &dest,
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 40},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), store.lots["lot-1"].QuantityRemaining)

	var imported *model.Lot
	for _, l := range store.lots {
		if l.WarehouseID == dest {
			imported = l
		}
	}
	require.NotNil(t, imported, "expected a compensating lot in the destination warehouse")
	assert.Equal(t, "sku-1", imported.SkuID)
	assert.Equal(t, int64(40), imported.QuantityImported)
	assert.Equal(t, int64(40), imported.QuantityRemaining)

	// Transfers with a compensating import are frozen.
	_, err = uc.UpdateExport(warehouseCtx(), exp.ID, []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 10},
	})
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)
}

func TestCreateExport_RejectsMismatchedLotFields(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	uc := newTestUseCase(store)

	_, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-1",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-other", WarehouseID: "wh-1", Quantity: 10},
		},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
		WarehouseID: "wh-2",
		Details: []dto.ExportDetailInput{
			{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-2", Quantity: 10},
		},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateExportForOrder(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	store.addOrder("ord-1", model.OrderStatusConfirmed, model.OrderLine{SkuID: "sku-1", Quantity: 30})
	uc := newTestUseCase(store)

	exp, err := uc.CreateExportForOrder(warehouseCtx(), "ord-1", []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ExportTypeOrder, exp.ExportType)
	assert.Equal(t, int64(70), store.lots["lot-1"].QuantityRemaining)
	assert.Equal(t, model.OrderStatusExported, store.orders["ord-1"].Status)
	require.NotNil(t, store.orders["ord-1"].ExportID)
	assert.Equal(t, exp.ID, *store.orders["ord-1"].ExportID)
}

func TestCreateExportForOrder_AllocationMismatch(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	store.addLot("lot-2", "wh-1", "sku-2", 100)
	store.addOrder("ord-1", model.OrderStatusConfirmed, model.OrderLine{SkuID: "sku-1", Quantity: 30})
	uc := newTestUseCase(store)

	// Under-allocated.
	_, err := uc.CreateExportForOrder(warehouseCtx(), "ord-1", []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 20},
	})
	assert.ErrorIs(t, err, apperr.ErrAllocationMismatch)

	// Over-allocated.
	_, err = uc.CreateExportForOrder(warehouseCtx(), "ord-1", []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 31},
	})
	assert.ErrorIs(t, err, apperr.ErrAllocationMismatch)

	// SKU not on the order.
	_, err = uc.CreateExportForOrder(warehouseCtx(), "ord-1", []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
		{LotID: "lot-2", SkuID: "sku-2", WarehouseID: "wh-1", Quantity: 1},
	})
	assert.ErrorIs(t, err, apperr.ErrAllocationMismatch)

	assert.Equal(t, int64(100), store.lots["lot-1"].QuantityRemaining)
}

func TestCreateExportForOrder_ExhaustsLotAndRejectsSecondExport(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 5)
	store.addOrder("ord-1", model.OrderStatusConfirmed, model.OrderLine{SkuID: "sku-1", Quantity: 5})
	uc := newTestUseCase(store)

	details := []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 5},
	}

	_, err := uc.CreateExportForOrder(warehouseCtx(), "ord-1", details)
	require.NoError(t, err)
	assert.Equal(t, int64(0), store.lots["lot-1"].QuantityRemaining)
	assert.Equal(t, model.OrderStatusExported, store.orders["ord-1"].Status)

	_, err = uc.CreateExportForOrder(warehouseCtx(), "ord-1", details)
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)
	assert.Equal(t, int64(0), store.lots["lot-1"].QuantityRemaining)
}

func TestCreateExportForOrder_RequiresConfirmed(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 100)
	store.addOrder("ord-1", model.OrderStatusPending, model.OrderLine{SkuID: "sku-1", Quantity: 30})
	uc := newTestUseCase(store)

	_, err := uc.CreateExportForOrder(warehouseCtx(), "ord-1", []dto.ExportDetailInput{
		{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 30},
	})
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)
}

func TestCreateExport_ConcurrentNoOversell(t *testing.T) {
	store := newMemStore()
	store.addLot("lot-1", "wh-1", "sku-1", 50)
	uc := newTestUseCase(store)

	const workers = 20
	var wg sync.WaitGroup
	succeeded := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateExport(warehouseCtx(), &dto.CreateExportInput{
				WarehouseID: "wh-1",
				Details: []dto.ExportDetailInput{
					{LotID: "lot-1", SkuID: "sku-1", WarehouseID: "wh-1", Quantity: 10},
				},
			})
			if err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	var wins int
	for range succeeded {
		wins++
	}
	assert.Equal(t, 5, wins)
	assert.Equal(t, int64(0), store.lots["lot-1"].QuantityRemaining)
}
