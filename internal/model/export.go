package model

import "time"

type ExportType string

const (
	ExportTypeTransfer ExportType = "transfer"
	ExportTypeOrder    ExportType = "order"
)

// Export groups the allocations created for a single business reason: a
// warehouse-to-warehouse transfer or an order export. OrderID is set (and
// unique) only for order exports.
type Export struct {
	ID                string       `db:"id" json:"id"`
	ExportType        ExportType   `db:"export_type" json:"export_type"`
	WarehouseID       string       `db:"warehouse_id" json:"warehouse_id"`
	OrderID           *string      `db:"order_id" json:"order_id"`
	ImportWarehouseID *string      `db:"import_warehouse_id" json:"import_warehouse_id"`
	RequestID         *string      `db:"request_id" json:"request_id"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	Details           []Allocation `db:"-" json:"details"`
}

// Allocation records that a given export consumed Quantity units from a given
// lot. SkuID and WarehouseID are denormalized and must match the lot's row.
type Allocation struct {
	ID          string    `db:"id" json:"id"`
	ExportID    string    `db:"export_id" json:"export_id"`
	LotID       string    `db:"lot_id" json:"lot_id"`
	SkuID       string    `db:"sku_id" json:"sku_id"`
	WarehouseID string    `db:"warehouse_id" json:"warehouse_id"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AllocationDelta is a per-lot remaining-quantity change computed when an
// export is edited. Positive Delta consumes more stock from the lot, negative
// releases it back.
type AllocationDelta struct {
	AllocationID string
	LotID        string
	Delta        int64
	NewQuantity  int64
	Remove       bool
}
