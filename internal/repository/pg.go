package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// PG is the PostgreSQL backend. The current transaction travels in the context.
type PG struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

// NewPGStore wires every repository of the PostgreSQL backend.
func NewPGStore(pool *pgxpool.Pool) Store {
	pg := NewPG(pool)
	return Store{
		Orders:   &OrdersPG{pg: pg},
		Tickets:  &TicketsPG{pg: pg},
		Tables:   &TablesPG{pg: pg},
		Timeline: &TimelinePG{pg: pg},
		Tx:       pg,
		Locker:   pg,
	}
}

func (p *PG) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.pool
}

func (p *PG) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// WithOrderLock holds a row lock on the order for the duration of fn.
func (p *PG) WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error {
	return p.WithinTx(ctx, func(ctx context.Context) error {
		var id uuid.UUID
		err := p.q(ctx).QueryRow(ctx, `SELECT id FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return orderNotFound(orderID)
		}
		if err != nil {
			return fmt.Errorf("lock order %s: %w", orderID, err)
		}
		return fn(ctx)
	})
}
