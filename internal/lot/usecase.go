package lot

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

type UseCase interface {
	CreateLot(ctx context.Context, input *dto.CreateLotInput) (*model.Lot, error)
	GetLot(ctx context.Context, id string) (*model.Lot, error)
	ListLots(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error)
}
