package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export"
	exportdto "github.com/fekuna/omnipos-fulfillment-service/internal/export/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/stock"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo      order.Repository
	exportUC  export.UseCase
	stockUC   stock.UseCase
	publisher order.EventPublisher
	logger    logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, exportUC export.UseCase, stockUC stock.UseCase, publisher order.EventPublisher, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		exportUC:  exportUC,
		stockUC:   stockUC,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	if input.CustomerID == "" || len(input.Lines) == 0 {
		return nil, fmt.Errorf("customer_id and lines are required: %w", apperr.ErrValidation)
	}

	method := model.PaymentMethod(input.PaymentMethod)
	switch method {
	case model.PaymentMethodCOD, model.PaymentMethodTransfer, model.PaymentMethodCard:
	default:
		return nil, fmt.Errorf("unknown payment method %q: %w", input.PaymentMethod, apperr.ErrValidation)
	}

	// Availability pre-check. Advisory only: stock is not reserved until the
	// order is exported, the transactional lot decrement is what enforces it.
	requested := make(map[string]int64, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line quantity must be positive: %w", apperr.ErrValidation)
		}
		requested[line.SkuID] += line.Quantity
	}
	for skuID, qty := range requested {
		remaining, err := uc.stockUC.RemainingForSKU(ctx, skuID)
		if err != nil {
			return nil, err
		}
		if qty > remaining {
			return nil, fmt.Errorf("sku %s: requested %d, available %d: %w", skuID, qty, remaining, apperr.ErrInsufficientStock)
		}
	}

	now := time.Now()
	o := &model.Order{
		ID:            uuid.New().String(),
		CustomerID:    input.CustomerID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: method,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, line := range input.Lines {
		o.Lines = append(o.Lines, model.OrderLine{
			ID:       uuid.New().String(),
			OrderID:  o.ID,
			SkuID:    line.SkuID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
		o.TotalPrice += float64(line.Quantity) * line.Price
	}

	if err := uc.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	uc.publish(ctx, order.EventOrderCreated, o)
	return o, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *orderUseCase) DeleteOrder(ctx context.Context, id string) error {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSales); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *orderUseCase) TransitionOrder(ctx context.Context, orderID string, input *dto.TransitionInput, exportDetails []order.ExportDetail) (*model.Order, error) {
	// Role check happens before any read of mutable state.
	if err := uc.authorize(ctx, input.Action); err != nil {
		return nil, err
	}

	o, err := uc.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch input.Action {
	case dto.ActionConfirm:
		err = uc.confirm(ctx, o)
	case dto.ActionExport:
		err = uc.export(ctx, o, exportDetails)
	case dto.ActionHandOver:
		_, err = uc.repo.Transition(ctx, o.ID, []model.OrderStatus{model.OrderStatusExported}, model.OrderStatusHandOvered, dto.StatusUpdate{}, nil)
	case dto.ActionDeliverTransit:
		_, err = uc.repo.Transition(ctx, o.ID, []model.OrderStatus{model.OrderStatusHandOvered}, model.OrderStatusDelivering, dto.StatusUpdate{}, nil)
	case dto.ActionShip:
		now := time.Now()
		_, err = uc.repo.Transition(ctx, o.ID, []model.OrderStatus{model.OrderStatusDelivering}, model.OrderStatusShipping, dto.StatusUpdate{DeliveryTime: &now}, nil)
	case dto.ActionDeliverSuccess:
		err = uc.deliverSuccess(ctx, o)
	case dto.ActionFailDelivery:
		err = uc.failDelivery(ctx, o, input.Reason)
	case dto.ActionCancel:
		err = uc.cancel(ctx, o, input.Reason)
	default:
		return nil, fmt.Errorf("unknown action %q: %w", input.Action, apperr.ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	updated, err := uc.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, order.EventOrderStatusUpdated, updated)
	return updated, nil
}

func (uc *orderUseCase) authorize(ctx context.Context, action string) error {
	switch action {
	case dto.ActionConfirm, dto.ActionCancel:
		return auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSales)
	default:
		return auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleWarehouse)
	}
}

func (uc *orderUseCase) confirm(ctx context.Context, o *model.Order) error {
	// Prepaid methods require settled payment before confirmation; cash on
	// delivery settles at the door.
	if o.PaymentMethod != model.PaymentMethodCOD && o.PaymentStatus != model.PaymentStatusPaid {
		return fmt.Errorf("payment is %s, order must be paid before confirmation: %w", o.PaymentStatus, apperr.ErrIllegalTransition)
	}
	if o.PaymentStatus == model.PaymentStatusFailed || o.PaymentStatus == model.PaymentStatusRefunded {
		return fmt.Errorf("payment is %s: %w", o.PaymentStatus, apperr.ErrIllegalTransition)
	}

	_, err := uc.repo.Transition(ctx, o.ID, []model.OrderStatus{model.OrderStatusPending}, model.OrderStatusConfirmed, dto.StatusUpdate{}, nil)
	return err
}

func (uc *orderUseCase) export(ctx context.Context, o *model.Order, details []order.ExportDetail) error {
	inputs := make([]exportdto.ExportDetailInput, 0, len(details))
	for _, d := range details {
		inputs = append(inputs, exportdto.ExportDetailInput{
			LotID:       d.LotID,
			SkuID:       d.SkuID,
			WarehouseID: d.WarehouseID,
			Quantity:    d.Quantity,
		})
	}

	// The allocation ledger owns the whole export transaction, including the
	// CONFIRMED -> EXPORTED move.
	_, err := uc.exportUC.CreateExportForOrder(ctx, o.ID, inputs)
	return err
}

func (uc *orderUseCase) deliverSuccess(ctx context.Context, o *model.Order) error {
	// An order that never reached SHIPPING has no export to settle; reject it
	// as a bad transition, not an internal inconsistency. The conditional
	// update below remains the enforcement point.
	if o.Status != model.OrderStatusShipping {
		return fmt.Errorf("order %s is %s, cannot move to %s: %w", o.ID, o.Status, model.OrderStatusDelivered, apperr.ErrIllegalTransition)
	}

	allocations, err := uc.allocationsFor(ctx, o)
	if err != nil {
		return err
	}

	sold := make([]model.SoldAdjustment, 0, len(allocations))
	for _, a := range allocations {
		sold = append(sold, model.SoldAdjustment{LotID: a.LotID, Delta: a.Quantity})
	}

	markPaid := o.PaymentMethod == model.PaymentMethodCOD && o.PaymentStatus != model.PaymentStatusPaid

	results, err := uc.repo.Transition(ctx, o.ID, []model.OrderStatus{model.OrderStatusShipping}, model.OrderStatusDelivered, dto.StatusUpdate{MarkPaid: markPaid}, sold)
	if err != nil {
		return err
	}
	uc.logClamped(o.ID, results)
	return nil
}

func (uc *orderUseCase) failDelivery(ctx context.Context, o *model.Order, reason string) error {
	if reason == "" {
		return fmt.Errorf("failDelivery requires a reason: %w", apperr.ErrValidation)
	}
	note := reason

	// An order marked DELIVERED in error can still be failed; that reversal
	// takes back the sold quantities. Allocated stock is never released to
	// remaining here: the units are in the field.
	if o.Status == model.OrderStatusDelivered {
		allocations, err := uc.allocationsFor(ctx, o)
		if err != nil {
			return err
		}
		sold := make([]model.SoldAdjustment, 0, len(allocations))
		for _, a := range allocations {
			sold = append(sold, model.SoldAdjustment{LotID: a.LotID, Delta: -a.Quantity})
		}
		results, err := uc.repo.Transition(ctx, o.ID, []model.OrderStatus{model.OrderStatusDelivered}, model.OrderStatusFailedDelivery, dto.StatusUpdate{Note: &note}, sold)
		if err != nil {
			return err
		}
		uc.logClamped(o.ID, results)
		return nil
	}

	_, err := uc.repo.Transition(ctx, o.ID,
		[]model.OrderStatus{model.OrderStatusDelivering, model.OrderStatusShipping},
		model.OrderStatusFailedDelivery, dto.StatusUpdate{Note: &note}, nil)
	return err
}

func (uc *orderUseCase) cancel(ctx context.Context, o *model.Order, reason string) error {
	if reason == "" {
		return fmt.Errorf("cancel requires a reason: %w", apperr.ErrValidation)
	}
	note := reason

	// Stock committed to an export cannot be walked back by cancellation.
	_, err := uc.repo.Transition(ctx, o.ID,
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusConfirmed},
		model.OrderStatusCancelled, dto.StatusUpdate{Note: &note}, nil)
	return err
}

func (uc *orderUseCase) allocationsFor(ctx context.Context, o *model.Order) ([]model.Allocation, error) {
	if o.ExportID == nil {
		return nil, fmt.Errorf("order %s has no export: %w", o.ID, apperr.ErrInvariantViolation)
	}
	exp, err := uc.exportUC.GetExport(ctx, *o.ExportID)
	if err != nil {
		return nil, err
	}
	return exp.Details, nil
}

func (uc *orderUseCase) logClamped(orderID string, results []model.SoldAdjustmentResult) {
	for _, res := range results {
		if res.Clamped {
			uc.logger.Error("sold quantity adjustment clamped, ledger drift suspected",
				zap.String("order_id", orderID),
				zap.String("lot_id", res.LotID),
				zap.Int64("quantity_sold", res.QuantitySold),
			)
		}
	}
}

func (uc *orderUseCase) ApplyPaymentEvent(ctx context.Context, orderID string, status model.PaymentStatus) error {
	if err := uc.repo.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		return err
	}
	uc.logger.Info("payment status applied",
		zap.String("order_id", orderID),
		zap.String("payment_status", string(status)),
	)
	return nil
}

func (uc *orderUseCase) publish(ctx context.Context, eventType string, o *model.Order) {
	if uc.publisher == nil {
		return
	}
	event := &order.OrderEvent{
		Type:          eventType,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Timestamp:     time.Now(),
	}
	if err := uc.publisher.PublishOrderEvent(ctx, event); err != nil {
		uc.logger.Error("failed to publish order event",
			zap.String("order_id", o.ID),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
