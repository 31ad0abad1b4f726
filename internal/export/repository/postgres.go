package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export"
	lotrepo "github.com/fekuna/omnipos-fulfillment-service/internal/lot/repository"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

// Unique constraints on the exports table. order_id uniqueness prevents
// double-export of an order; request_id uniqueness is the idempotency token.
const (
	constraintExportOrder   = "exports_order_id_key"
	constraintExportRequest = "exports_request_id_key"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateWithAllocations(ctx context.Context, exp *model.Export, transferLots []model.Lot) error {
	return postgres.WithTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		for _, d := range exp.Details {
			if err := lotrepo.DecrementRemaining(ctx, tx, d.LotID, d.Quantity); err != nil {
				return err
			}
		}

		insertExport := `
            INSERT INTO exports (
                id, export_type, warehouse_id, order_id, import_warehouse_id,
                request_id, created_at
            )
            VALUES (
                :id, :export_type, :warehouse_id, :order_id, :import_warehouse_id,
                :request_id, :created_at
            )
        `
		if _, err := tx.NamedExecContext(ctx, insertExport, exp); err != nil {
			switch apperr.UniqueConstraint(err) {
			case constraintExportOrder:
				return fmt.Errorf("order already exported: %w", apperr.ErrIllegalTransition)
			case constraintExportRequest:
				return export.ErrDuplicateRequest
			}
			return fmt.Errorf("failed to insert export: %w", err)
		}

		insertDetail := `
            INSERT INTO export_details (
                id, export_id, lot_id, sku_id, warehouse_id, quantity, created_at
            )
            VALUES (
                :id, :export_id, :lot_id, :sku_id, :warehouse_id, :quantity, :created_at
            )
        `
		for _, d := range exp.Details {
			if _, err := tx.NamedExecContext(ctx, insertDetail, d); err != nil {
				return fmt.Errorf("failed to insert export detail: %w", err)
			}
		}

		insertLot := `
            INSERT INTO lots (
                id, warehouse_id, sku_id, lot_name,
                quantity_imported, quantity_sold, quantity_remaining,
                price_imported, created_at
            )
            VALUES (
                :id, :warehouse_id, :sku_id, :lot_name,
                :quantity_imported, :quantity_sold, :quantity_remaining,
                :price_imported, :created_at
            )
        `
		for i := range transferLots {
			if _, err := tx.NamedExecContext(ctx, insertLot, &transferLots[i]); err != nil {
				if apperr.IsUniqueViolation(err) {
					return fmt.Errorf("transfer import lot %q: %w", transferLots[i].LotName, apperr.ErrDuplicateLot)
				}
				return fmt.Errorf("failed to insert transfer import lot: %w", err)
			}
		}

		if exp.OrderID != nil {
			res, err := tx.ExecContext(ctx, `
                UPDATE orders
                SET status = $1, export_id = $2, updated_at = now()
                WHERE id = $3 AND status = $4
            `, model.OrderStatusExported, exp.ID, *exp.OrderID, model.OrderStatusConfirmed)
			if err != nil {
				return fmt.Errorf("failed to update order status: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("order %s is not CONFIRMED: %w", *exp.OrderID, apperr.ErrIllegalTransition)
			}
		}

		return nil
	})
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Export, error) {
	var exp model.Export
	err := r.DB.GetContext(ctx, &exp, `SELECT * FROM exports WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("export %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}

	details, err := r.ListDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	exp.Details = details
	return &exp, nil
}

func (r *PGRepository) GetByRequestID(ctx context.Context, requestID string) (*model.Export, error) {
	var exp model.Export
	err := r.DB.GetContext(ctx, &exp, `SELECT * FROM exports WHERE request_id = $1 LIMIT 1`, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("export request %s: %w", requestID, apperr.ErrNotFound)
		}
		return nil, err
	}

	details, err := r.ListDetails(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	exp.Details = details
	return &exp, nil
}

func (r *PGRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Export, error) {
	var exp model.Export
	err := r.DB.GetContext(ctx, &exp, `SELECT * FROM exports WHERE order_id = $1 LIMIT 1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("export for order %s: %w", orderID, apperr.ErrNotFound)
		}
		return nil, err
	}

	details, err := r.ListDetails(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	exp.Details = details
	return &exp, nil
}

func (r *PGRepository) ListDetails(ctx context.Context, exportID string) ([]model.Allocation, error) {
	var details []model.Allocation
	err := r.DB.SelectContext(ctx, &details, `
        SELECT * FROM export_details WHERE export_id = $1 ORDER BY created_at ASC
    `, exportID)
	return details, err
}

func (r *PGRepository) ApplyAllocationChanges(ctx context.Context, exportID string, changes []model.AllocationDelta, added []model.Allocation) error {
	return postgres.WithTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		for _, ch := range changes {
			switch {
			case ch.Delta > 0:
				if err := lotrepo.DecrementRemaining(ctx, tx, ch.LotID, ch.Delta); err != nil {
					return err
				}
			case ch.Delta < 0:
				if err := lotrepo.IncrementRemaining(ctx, tx, ch.LotID, -ch.Delta); err != nil {
					return err
				}
			}

			if ch.Remove {
				if _, err := tx.ExecContext(ctx, `DELETE FROM export_details WHERE id = $1`, ch.AllocationID); err != nil {
					return fmt.Errorf("failed to delete allocation: %w", err)
				}
				continue
			}
			// The row quantity can change even when the lot delta is zero,
			// e.g. when duplicate rows for a lot are consolidated onto one.
			if _, err := tx.ExecContext(ctx, `
                UPDATE export_details SET quantity = $1 WHERE id = $2
            `, ch.NewQuantity, ch.AllocationID); err != nil {
				return fmt.Errorf("failed to update allocation: %w", err)
			}
		}

		insertDetail := `
            INSERT INTO export_details (
                id, export_id, lot_id, sku_id, warehouse_id, quantity, created_at
            )
            VALUES (
                :id, :export_id, :lot_id, :sku_id, :warehouse_id, :quantity, :created_at
            )
        `
		for i := range added {
			if err := lotrepo.DecrementRemaining(ctx, tx, added[i].LotID, added[i].Quantity); err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, insertDetail, &added[i]); err != nil {
				return fmt.Errorf("failed to insert allocation: %w", err)
			}
		}

		return nil
	})
}
