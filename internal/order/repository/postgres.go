package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	lotrepo "github.com/fekuna/omnipos-fulfillment-service/internal/lot/repository"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	return postgres.WithTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		insertOrder := `
            INSERT INTO orders (
                id, customer_id, status, payment_status, payment_method,
                total_price, export_id, delivery_time, note, created_at, updated_at
            )
            VALUES (
                :id, :customer_id, :status, :payment_status, :payment_method,
                :total_price, :export_id, :delivery_time, :note, :created_at, :updated_at
            )
        `
		if _, err := tx.NamedExecContext(ctx, insertOrder, o); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		insertLine := `
            INSERT INTO order_lines (id, order_id, sku_id, quantity, price)
            VALUES (:id, :order_id, :sku_id, :quantity, :price)
        `
		for i := range o.Lines {
			if _, err := tx.NamedExecContext(ctx, insertLine, &o.Lines[i]); err != nil {
				if apperr.IsForeignKeyViolation(err) {
					return fmt.Errorf("sku %s: %w", o.Lines[i].SkuID, apperr.ErrNotFound)
				}
				return fmt.Errorf("failed to insert order line: %w", err)
			}
		}
		return nil
	})
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}

	var lines []model.OrderLine
	err = r.DB.SelectContext(ctx, &lines, `SELECT * FROM order_lines WHERE order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = :payment_status")
		args["payment_status"] = f.PaymentStatus
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM orders" + whereClause
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

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) Transition(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus, set dto.StatusUpdate, sold []model.SoldAdjustment) ([]model.SoldAdjustmentResult, error) {
	var results []model.SoldAdjustmentResult

	err := postgres.WithTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		sets := []string{"status = $1", "updated_at = now()"}
		queryArgs := []interface{}{string(to)}
		argn := 2

		if set.DeliveryTime != nil {
			sets = append(sets, fmt.Sprintf("delivery_time = $%d", argn))
			queryArgs = append(queryArgs, *set.DeliveryTime)
			argn++
		}
		if set.Note != nil {
			sets = append(sets, fmt.Sprintf("note = $%d", argn))
			queryArgs = append(queryArgs, *set.Note)
			argn++
		}
		if set.MarkPaid {
			sets = append(sets, fmt.Sprintf("payment_status = $%d", argn))
			queryArgs = append(queryArgs, string(model.PaymentStatusPaid))
			argn++
		}

		fromStatuses := make([]string, len(from))
		for i, s := range from {
			fromStatuses[i] = string(s)
		}

		query := fmt.Sprintf(
			"UPDATE orders SET %s WHERE id = $%d AND status = ANY($%d)",
			strings.Join(sets, ", "), argn, argn+1,
		)
		queryArgs = append(queryArgs, orderID, pq.Array(fromStatuses))

		res, err := tx.ExecContext(ctx, query, queryArgs...)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var current string
			if err := tx.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = $1`, orderID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
				}
				return err
			}
			return fmt.Errorf("order %s is %s, cannot move to %s: %w", orderID, current, to, apperr.ErrIllegalTransition)
		}

		for _, adj := range sold {
			result, err := lotrepo.AdjustSold(ctx, tx, adj.LotID, adj.Delta)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *PGRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE orders SET payment_status = $1, updated_at = now() WHERE id = $2
    `, string(status), orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, orderID string) error {
	res, err := r.DB.ExecContext(ctx, `
        DELETE FROM orders WHERE id = $1 AND status = $2
    `, orderID, string(model.OrderStatusPending))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current string
		err := r.DB.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = $1`, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("order %s is %s, only PENDING orders can be deleted: %w", orderID, current, apperr.ErrIllegalTransition)
	}
	return nil
}
