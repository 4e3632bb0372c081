package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"table-service/internal/domain"
)

type OrdersPG struct{ pg *PG }

var _ OrderRepository = (*OrdersPG)(nil)

const orderColumns = `id, code, table_id, status, customer_note, payment_method, created_at,
	submitted_at, in_progress_at, ready_at, served_at, paid_at, cancelled_at, version`

func (r *OrdersPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	q := r.pg.q(ctx)
	var (
		o      domain.Order
		status string
	)
	err := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id).Scan(
		&o.ID, &o.Code, &o.TableID, &status, &o.CustomerNote, &o.PaymentMethod, &o.CreatedAt,
		&o.SubmittedAt, &o.InProgressAt, &o.ReadyAt, &o.ServedAt, &o.PaidAt, &o.CancelledAt, &o.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orderNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("select order %s: %w", id, err)
	}
	if o.Status, err = DecodeOrderStatus(status); err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT line_id, menu_item_id, name, unit_price::text, currency, quantity, note
		FROM order_items WHERE order_id=$1 ORDER BY line_id`, id)
	if err != nil {
		return nil, fmt.Errorf("select order items %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it       domain.OrderItem
			price    string
			currency string
			qty      int
		)
		if err := rows.Scan(&it.ID, &it.MenuItemID, &it.Name, &price, &currency, &qty, &it.Note); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		amount, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse unit price %q: %w", price, err)
		}
		if it.UnitPrice, err = domain.NewMoney(amount, currency); err != nil {
			return nil, err
		}
		if it.Quantity, err = domain.NewQuantity(qty); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrdersPG) Add(ctx context.Context, o *domain.Order) error {
	return r.pg.WithinTx(ctx, func(ctx context.Context) error {
		_, err := r.pg.q(ctx).Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1)`,
			o.ID, o.Code, o.TableID, EncodeOrderStatus(o.Status), o.CustomerNote, o.PaymentMethod, o.CreatedAt,
			o.SubmittedAt, o.InProgressAt, o.ReadyAt, o.ServedAt, o.PaidAt, o.CancelledAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		o.Version = 1
		return r.replaceItems(ctx, o)
	})
}

func (r *OrdersPG) Update(ctx context.Context, o *domain.Order) error {
	return r.pg.WithinTx(ctx, func(ctx context.Context) error {
		tag, err := r.pg.q(ctx).Exec(ctx, `
			UPDATE orders SET status=$2, customer_note=$3, payment_method=$4,
				submitted_at=$5, in_progress_at=$6, ready_at=$7, served_at=$8, paid_at=$9, cancelled_at=$10,
				version=version+1, updated_at=now()
			WHERE id=$1 AND version=$11`,
			o.ID, EncodeOrderStatus(o.Status), o.CustomerNote, o.PaymentMethod,
			o.SubmittedAt, o.InProgressAt, o.ReadyAt, o.ServedAt, o.PaidAt, o.CancelledAt, o.Version,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return concurrentUpdate(o.ID)
		}
		o.Version++
		return r.replaceItems(ctx, o)
	})
}

func (r *OrdersPG) replaceItems(ctx context.Context, o *domain.Order) error {
	q := r.pg.q(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	for _, it := range o.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (order_id, line_id, menu_item_id, name, unit_price, currency, quantity, note)
			VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8)`,
			o.ID, it.ID, it.MenuItemID, it.Name, it.UnitPrice.Amount().StringFixed(2), it.UnitPrice.Currency(),
			it.Quantity.Value(), it.Note,
		)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", it.Name, err)
		}
	}
	return nil
}

func (r *OrdersPG) NextSequence(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.pg.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`,
		startOfDay(day), startOfDay(day).Add(24*time.Hour),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get order count: %w", err)
	}
	return count + 1, nil
}

func (r *OrdersPG) HasOpenOrders(ctx context.Context, tableID int64, except uuid.UUID) (bool, error) {
	var open bool
	err := r.pg.q(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE table_id=$1 AND id<>$2 AND status NOT IN ($3,$4))`,
		tableID, except, EncodeOrderStatus(domain.OrderStatusPaid), EncodeOrderStatus(domain.OrderStatusCancelled),
	).Scan(&open)
	if err != nil {
		return false, fmt.Errorf("check open orders for table %d: %w", tableID, err)
	}
	return open, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
