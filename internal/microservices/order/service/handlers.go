package service

import (
	"context"

	"table-service/internal/common/logger"
	"table-service/internal/domain"
	"table-service/internal/events"
	"table-service/internal/microservices/notificator"
	"table-service/internal/repository"
)

// Handlers react to order events with customer notifications and table occupancy changes.
type Handlers struct {
	notifier notificator.CustomerNotifier
	orders   repository.OrderRepository
	tables   repository.TableRepository
	log      *logger.Logger
}

func NewHandlers(notifier notificator.CustomerNotifier, orders repository.OrderRepository,
	tables repository.TableRepository, log *logger.Logger) *Handlers {
	return &Handlers{notifier: notifier, orders: orders, tables: tables, log: log}
}

func (h *Handlers) Register(d *events.Dispatcher) {
	for _, name := range []string{
		domain.EventOrderSubmitted,
		domain.EventOrderInProgress,
		domain.EventOrderReady,
		domain.EventOrderServed,
		domain.EventOrderCancelled,
		domain.EventOrderCashPaymentRequested,
	} {
		d.Subscribe(name, "customer.status_changed", h.NotifyStatus)
	}
	d.Subscribe(domain.EventOrderPaid, "customer.paid", events.On(h.NotifyPaid))
	d.Subscribe(domain.EventOrderPaid, "table.release", h.ReleaseTable)
	d.Subscribe(domain.EventOrderCancelled, "table.release", h.ReleaseTable)
}

func (h *Handlers) NotifyStatus(ctx context.Context, e domain.Event) error {
	status, ok := domain.StatusOf(e)
	if !ok {
		return nil
	}
	return h.notifier.OrderStatusChanged(ctx, e.AggregateID(), status)
}

func (h *Handlers) NotifyPaid(ctx context.Context, e domain.OrderPaid) error {
	return h.notifier.OrderPaid(ctx, e.OrderID, e.Amount, e.Currency, e.Method, e.At)
}

// ReleaseTable frees the table of a closed order unless another open order still sits on it.
func (h *Handlers) ReleaseTable(ctx context.Context, e domain.Event) error {
	var tableID int64
	switch ev := e.(type) {
	case domain.OrderPaid:
		tableID = ev.TableID
	case domain.OrderCancelled:
		tableID = ev.TableID
	default:
		return nil
	}
	busy, err := h.orders.HasOpenOrders(ctx, tableID, e.AggregateID())
	if err != nil {
		return err
	}
	if busy {
		h.log.Debug("table_still_occupied", map[string]any{"table_id": tableID, "order_id": e.AggregateID().String()})
		return nil
	}
	if err := h.tables.SetOccupied(ctx, tableID, false); err != nil {
		return err
	}
	h.log.Info("table_released", map[string]any{"table_id": tableID, "order_id": e.AggregateID().String()})
	return nil
}
