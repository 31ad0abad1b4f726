package model

import "time"

// Lot is the unit of truth for incoming stock: one row per
// (warehouse, sku, lot name). QuantityImported is immutable once created.
// QuantityRemaining is stored independently and reconciled against the
// allocation ledger by the reconciliation job.
type Lot struct {
	ID                string    `db:"id" json:"id"`
	WarehouseID       string    `db:"warehouse_id" json:"warehouse_id"`
	SkuID             string    `db:"sku_id" json:"sku_id"`
	LotName           string    `db:"lot_name" json:"lot_name"`
	QuantityImported  int64     `db:"quantity_imported" json:"quantity_imported"`
	QuantitySold      int64     `db:"quantity_sold" json:"quantity_sold"`
	QuantityRemaining int64     `db:"quantity_remaining" json:"quantity_remaining"`
	PriceImported     float64   `db:"price_imported" json:"price_imported"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// SoldAdjustment is a per-lot quantity_sold delta applied when an order is
// delivered (positive) or a delivery is reversed (negative).
type SoldAdjustment struct {
	LotID string
	Delta int64
}

// SoldAdjustmentResult reports whether the adjustment had to be clamped at the
// lot's bounds instead of applied in full.
type SoldAdjustmentResult struct {
	LotID        string `json:"lot_id"`
	QuantitySold int64  `json:"quantity_sold"`
	Clamped      bool   `json:"clamped"`
}

// ReconcileResult is the per-lot outcome of a remaining-quantity recomputation.
type ReconcileResult struct {
	LotID             string `json:"id"`
	QuantityRemaining int64  `json:"quantity_remaining"`
	Changed           bool   `json:"changed"`
}
