package dto

type CreateLotInput struct {
	WarehouseID    string  `json:"warehouse_id"`
	SkuID          string  `json:"sku_id"`
	LotName        string  `json:"lot_name"`
	QuantityImport int64   `json:"quantity_import"`
	PriceImport    float64 `json:"price_import"`
}
