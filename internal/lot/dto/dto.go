package dto

type LotFilters struct {
	WarehouseID string
	SkuID       string
	InStockOnly bool // If true, filter out lots with quantity_remaining = 0
	Page        int
	PageSize    int
}
