package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"table-service/internal/domain"
)

type TicketsPG struct{ pg *PG }

var _ TicketRepository = (*TicketsPG)(nil)

const ticketColumns = `id, order_id, order_item_id, item_name, quantity, note, status,
	created_at, started_at, ready_at, served_at, cancelled_at, cancel_reason`

func scanTicket(row pgx.Row) (*domain.KitchenTicket, error) {
	var (
		t      domain.KitchenTicket
		status string
	)
	if err := row.Scan(&t.ID, &t.OrderID, &t.OrderItemID, &t.ItemName, &t.Quantity, &t.Note, &status,
		&t.CreatedAt, &t.StartedAt, &t.ReadyAt, &t.ServedAt, &t.CancelledAt, &t.CancelReason); err != nil {
		return nil, err
	}
	s, err := DecodeTicketStatus(status)
	if err != nil {
		return nil, err
	}
	t.Status = s
	return &t, nil
}

func (r *TicketsPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.KitchenTicket, error) {
	t, err := scanTicket(r.pg.q(ctx).QueryRow(ctx, `SELECT `+ticketColumns+` FROM kitchen_tickets WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ticketNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("select ticket %s: %w", id, err)
	}
	return t, nil
}

func (r *TicketsPG) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.KitchenTicket, error) {
	rows, err := r.pg.q(ctx).Query(ctx,
		`SELECT `+ticketColumns+` FROM kitchen_tickets WHERE order_id=$1 ORDER BY created_at, order_item_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select tickets of order %s: %w", orderID, err)
	}
	defer rows.Close()

	var out []*domain.KitchenTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TicketsPG) AddBatch(ctx context.Context, tickets []*domain.KitchenTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(`INSERT INTO kitchen_tickets (`+ticketColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			t.ID, t.OrderID, t.OrderItemID, t.ItemName, t.Quantity, t.Note, EncodeTicketStatus(t.Status),
			t.CreatedAt, t.StartedAt, t.ReadyAt, t.ServedAt, t.CancelledAt, t.CancelReason)
	}
	return r.pg.WithinTx(ctx, func(ctx context.Context) error {
		tx := ctx.Value(txKey{}).(pgx.Tx)
		br := tx.SendBatch(ctx, batch)
		for range tickets {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert ticket: %w", err)
			}
		}
		return br.Close()
	})
}

func (r *TicketsPG) Update(ctx context.Context, t *domain.KitchenTicket) error {
	tag, err := r.pg.q(ctx).Exec(ctx, `
		UPDATE kitchen_tickets SET status=$2, started_at=$3, ready_at=$4, served_at=$5,
			cancelled_at=$6, cancel_reason=$7
		WHERE id=$1`,
		t.ID, EncodeTicketStatus(t.Status), t.StartedAt, t.ReadyAt, t.ServedAt, t.CancelledAt, t.CancelReason)
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ticketNotFound(t.ID)
	}
	return nil
}
