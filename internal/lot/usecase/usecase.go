package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/lot"
	"github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type lotUseCase struct {
	repo   lot.Repository
	logger logger.ZapLogger
}

func NewLotUseCase(repo lot.Repository, log logger.ZapLogger) lot.UseCase {
	return &lotUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *lotUseCase) CreateLot(ctx context.Context, input *dto.CreateLotInput) (*model.Lot, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		return nil, err
	}

	if input.WarehouseID == "" || input.SkuID == "" {
		return nil, fmt.Errorf("warehouse_id and sku_id are required: %w", apperr.ErrValidation)
	}
	if input.QuantityImport <= 0 {
		return nil, fmt.Errorf("quantity_import must be positive: %w", apperr.ErrValidation)
	}
	if input.PriceImport < 0 {
		return nil, fmt.Errorf("price_import must not be negative: %w", apperr.ErrValidation)
	}

	now := time.Now()
	lotName := input.LotName
	if lotName == "" {
		lotName = "LOT-" + now.Format("20060102-150405")
	}

	l := &model.Lot{
		ID:                uuid.New().String(),
		WarehouseID:       input.WarehouseID,
		SkuID:             input.SkuID,
		LotName:           lotName,
		QuantityImported:  input.QuantityImport,
		QuantitySold:      0,
		QuantityRemaining: input.QuantityImport,
		PriceImported:     input.PriceImport,
		CreatedAt:         now,
	}

	if err := uc.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	uc.logger.Info("lot created",
		zap.String("lot_id", l.ID),
		zap.String("warehouse_id", l.WarehouseID),
		zap.String("sku_id", l.SkuID),
		zap.Int64("quantity_imported", l.QuantityImported),
	)
	return l, nil
}

func (uc *lotUseCase) GetLot(ctx context.Context, id string) (*model.Lot, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *lotUseCase) ListLots(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error) {
	return uc.repo.FindAll(ctx, filters)
}
