package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, lot *model.Lot) error {
	query := `
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
	_, err := r.DB.NamedExecContext(ctx, query, lot)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return fmt.Errorf("lot %q in warehouse %s: %w", lot.LotName, lot.WarehouseID, apperr.ErrDuplicateLot)
		}
		if apperr.IsForeignKeyViolation(err) {
			return fmt.Errorf("warehouse or sku: %w", apperr.ErrNotFound)
		}
		return err
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Lot, error) {
	var lot model.Lot
	query := `SELECT * FROM lots WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &lot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lot %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &lot, nil
}

func (r *PGRepository) ListBySKU(ctx context.Context, skuID string) ([]model.Lot, error) {
	var lots []model.Lot
	query := `SELECT * FROM lots WHERE sku_id = $1 ORDER BY created_at ASC`
	err := r.DB.SelectContext(ctx, &lots, query, skuID)
	return lots, err
}

func (r *PGRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Lot, error) {
	if len(ids) == 0 {
		return []model.Lot{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM lots WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var lots []model.Lot
	err = r.DB.SelectContext(ctx, &lots, query, args...)
	return lots, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.LotFilters) ([]model.Lot, int, error) {
	var lots []model.Lot
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.WarehouseID != "" {
		conditions = append(conditions, "warehouse_id = :warehouse_id")
		args["warehouse_id"] = f.WarehouseID
	}
	if f.SkuID != "" {
		conditions = append(conditions, "sku_id = :sku_id")
		args["sku_id"] = f.SkuID
	}
	if f.InStockOnly {
		conditions = append(conditions, "quantity_remaining > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM lots" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT * FROM lots" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &lots, args)
	return lots, count, err
}

func (r *PGRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.DB.SelectContext(ctx, &ids, `SELECT id FROM lots ORDER BY created_at ASC`)
	return ids, err
}

// ReconcileRemaining recomputes quantity_remaining from the allocation ledger
// for each lot: imported minus the sum of its allocations, clamped to the
// [0, imported] range. Per-lot failures are collected, not fatal, so one bad
// row cannot halt the sweep.
func (r *PGRepository) ReconcileRemaining(ctx context.Context, lotIDs []string) ([]model.ReconcileResult, error) {
	// The self-join reads the pre-update row, so old and new remaining come
	// back from one atomic statement; a separate before-read could misreport
	// "changed" under concurrent allocation traffic.
	results := make([]model.ReconcileResult, 0, len(lotIDs))
	var errs []error
	for _, id := range lotIDs {
		var before, after int64
		row := r.DB.QueryRowxContext(ctx, `
            UPDATE lots l
            SET quantity_remaining = GREATEST(0, LEAST(l.quantity_imported,
                l.quantity_imported - COALESCE((
                    SELECT SUM(d.quantity) FROM export_details d WHERE d.lot_id = l.id
                ), 0)))
            FROM lots prev
            WHERE l.id = $1 AND prev.id = l.id
            RETURNING l.quantity_remaining, prev.quantity_remaining
        `, id)
		if err := row.Scan(&after, &before); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				errs = append(errs, fmt.Errorf("lot %s: %w", id, apperr.ErrNotFound))
				continue
			}
			errs = append(errs, fmt.Errorf("lot %s: %w", id, err))
			continue
		}

		results = append(results, model.ReconcileResult{
			LotID:             id,
			QuantityRemaining: after,
			Changed:           after != before,
		})
	}
	return results, errors.Join(errs...)
}

// The ledger mutations below run on the caller's transaction (or any
// ExtContext) and never commit on their own. Enforcement is the atomic
// conditional UPDATE with an affected-row check, not an advisory read.

// DecrementRemaining subtracts qty from a lot's remaining quantity, failing
// with ErrInsufficientStock when the lot does not hold enough.
func DecrementRemaining(ctx context.Context, ext sqlx.ExtContext, lotID string, qty int64) error {
	res, err := ext.ExecContext(ctx, ext.Rebind(`
        UPDATE lots
        SET quantity_remaining = quantity_remaining - ?
        WHERE id = ? AND quantity_remaining >= ?
    `), qty, lotID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("lot %s: requested %d: %w", lotID, qty, apperr.ErrInsufficientStock)
	}
	return nil
}

// IncrementRemaining returns qty units to a lot as compensation for a removed
// allocation. Exceeding quantity_imported signals a logic bug upstream.
func IncrementRemaining(ctx context.Context, ext sqlx.ExtContext, lotID string, qty int64) error {
	res, err := ext.ExecContext(ctx, ext.Rebind(`
        UPDATE lots
        SET quantity_remaining = quantity_remaining + ?
        WHERE id = ? AND quantity_remaining + ? <= quantity_imported
    `), qty, lotID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("lot %s: compensation of %d would exceed imported quantity: %w", lotID, qty, apperr.ErrInvariantViolation)
	}
	return nil
}

// AdjustSold applies a quantity_sold delta, clamping at the lot's bounds and
// reporting the clamp explicitly so callers can log it instead of failing.
func AdjustSold(ctx context.Context, ext sqlx.ExtContext, lotID string, delta int64) (model.SoldAdjustmentResult, error) {
	var sold, imported int64
	row := ext.QueryRowxContext(ctx, ext.Rebind(`
        SELECT quantity_sold, quantity_imported FROM lots WHERE id = ? FOR UPDATE
    `), lotID)
	if err := row.Scan(&sold, &imported); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SoldAdjustmentResult{}, fmt.Errorf("lot %s: %w", lotID, apperr.ErrNotFound)
		}
		return model.SoldAdjustmentResult{}, err
	}

	newSold := sold + delta
	clamped := false
	if newSold < 0 {
		newSold = 0
		clamped = true
	}
	if newSold > imported {
		newSold = imported
		clamped = true
	}

	if _, err := ext.ExecContext(ctx, ext.Rebind(`
        UPDATE lots SET quantity_sold = ? WHERE id = ?
    `), newSold, lotID); err != nil {
		return model.SoldAdjustmentResult{}, err
	}

	return model.SoldAdjustmentResult{LotID: lotID, QuantitySold: newSold, Clamped: clamped}, nil
}
