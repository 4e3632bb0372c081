package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"table-service/internal/common/apperr"
	"table-service/internal/domain"
)

// OrderRepository persists Order aggregates with their items.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Add(ctx context.Context, o *domain.Order) error
	// Update fails with CONCURRENT_UPDATE when o.Version is stale; on success it bumps o.Version.
	Update(ctx context.Context, o *domain.Order) error
	// NextSequence returns the next per-day order number used in order codes.
	NextSequence(ctx context.Context, day time.Time) (int, error)
	// HasOpenOrders reports whether any order other than except still occupies the table.
	HasOpenOrders(ctx context.Context, tableID int64, except uuid.UUID) (bool, error)
}

// TicketRepository persists kitchen tickets.
type TicketRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.KitchenTicket, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.KitchenTicket, error)
	AddBatch(ctx context.Context, tickets []*domain.KitchenTicket) error
	Update(ctx context.Context, t *domain.KitchenTicket) error
}

// Table is the read model of a dining table used for display codes and occupancy.
type Table struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Occupied bool   `json:"occupied"`
}

type TableRepository interface {
	GetByID(ctx context.Context, id int64) (Table, error)
	SetOccupied(ctx context.Context, id int64, occupied bool) error
}

// TimelineEvent is one entry of an order's history.
type TimelineEvent struct {
	OrderID    uuid.UUID      `json:"order_id"`
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type TimelineRepository interface {
	AppendEvent(ctx context.Context, e TimelineEvent) error
	GetTimeline(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]TimelineEvent, error)
}

// TxManager runs fn inside one transaction. Nested calls join the outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderLocker serializes work on one order graph (the order and its tickets).
type OrderLocker interface {
	WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Orders   OrderRepository
	Tickets  TicketRepository
	Tables   TableRepository
	Timeline TimelineRepository
	Tx       TxManager
	Locker   OrderLocker
}

func orderNotFound(id uuid.UUID) error {
	return apperr.WithMetadata(apperr.CodeOrderNotFound, "order not found", map[string]string{"order_id": id.String()})
}

func ticketNotFound(id uuid.UUID) error {
	return apperr.WithMetadata(apperr.CodeTicketNotFound, "ticket not found", map[string]string{"ticket_id": id.String()})
}

func tableNotFound(id int64) error {
	return apperr.WithMetadata(apperr.CodeTableNotFound, "table not found", map[string]string{"table_id": itoa(id)})
}

func concurrentUpdate(id uuid.UUID) error {
	return apperr.WithMetadata(apperr.CodeConcurrentUpdate, "order was modified concurrently",
		map[string]string{"order_id": id.String()})
}
