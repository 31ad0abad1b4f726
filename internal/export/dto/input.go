package dto

type ExportDetailInput struct {
	LotID       string `json:"lot_id"`
	SkuID       string `json:"sku_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
}

type CreateExportInput struct {
	WarehouseID       string              `json:"warehouse_id"`
	ImportWarehouseID *string             `json:"warehouse_id_import"`
	RequestID         *string             `json:"request_id"`
	Details           []ExportDetailInput `json:"detail_export"`
}
