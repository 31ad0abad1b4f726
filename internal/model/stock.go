package model

// SkuStockSummary is the read model the stock aggregator exposes: remaining
// and sold units summed across every lot of a SKU.
type SkuStockSummary struct {
	SkuID     string `db:"sku_id" json:"sku_id"`
	Remaining int64  `db:"remaining" json:"remaining"`
	Sold      int64  `db:"sold" json:"sold"`
}

// ProductStockSummary aggregates stock across all SKUs of a product. Used for
// catalog display, never for allocation decisions.
type ProductStockSummary struct {
	ProductID string            `json:"product_id"`
	Remaining int64             `json:"remaining"`
	Sold      int64             `json:"sold"`
	Skus      []SkuStockSummary `json:"skus"`
}
