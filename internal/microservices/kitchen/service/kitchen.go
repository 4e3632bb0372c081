package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"table-service/internal/common/apperr"
	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/domain"
	"table-service/internal/events"
	"table-service/internal/microservices/notificator"
	"table-service/internal/repository"
)

// CancelReasonOrderCancelled is recorded on tickets closed because their order was cancelled.
const CancelReasonOrderCancelled = "order cancelled"

type KitchenServiceInterface interface {
	ChangeTicketStatus(ctx context.Context, ticketID uuid.UUID, action, reason string) (domain.TicketDTO, error)
	ListTickets(ctx context.Context, orderID uuid.UUID) ([]domain.TicketDTO, error)
}

// KitchenService cuts tickets for submitted orders and reconciles order status from ticket changes.
type KitchenService struct {
	store    repository.Store
	events   events.Publisher
	notifier notificator.KitchenTicketNotifier
	locks    *keyedMutex
	log      *logger.Logger
	m        *metrics.Metrics
}

var _ KitchenServiceInterface = (*KitchenService)(nil)

func NewKitchenService(store repository.Store, pub events.Publisher, notifier notificator.KitchenTicketNotifier,
	log *logger.Logger, m *metrics.Metrics) *KitchenService {
	return &KitchenService{
		store:    store,
		events:   pub,
		notifier: notifier,
		locks:    newKeyedMutex(),
		log:      log,
		m:        m,
	}
}

// Register subscribes the kitchen handlers.
func (s *KitchenService) Register(d *events.Dispatcher) {
	d.Subscribe(domain.EventOrderSubmitted, "kitchen.fan_out", events.On(s.HandleOrderSubmitted))
	d.Subscribe(domain.EventOrderCancelled, "kitchen.cancel_tickets", events.On(s.HandleOrderCancelled))
}

// HandleOrderSubmitted creates one ticket per order line and announces them as a single batch.
// An order that already has tickets, or that left Submitted before the fan-out ran, is left alone.
func (s *KitchenService) HandleOrderSubmitted(ctx context.Context, e domain.OrderSubmitted) error {
	unlock := s.locks.Lock(e.OrderID)
	defer unlock()

	var (
		order   *domain.Order
		created []*domain.KitchenTicket
	)
	err := s.store.Locker.WithOrderLock(ctx, e.OrderID, func(ctx context.Context) error {
		return s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			if order, err = s.store.Orders.GetByID(ctx, e.OrderID); err != nil {
				return err
			}
			if order.Status != domain.OrderStatusSubmitted {
				s.log.Warn("fan_out_skipped", map[string]any{"order_id": order.ID.String(), "status": order.Status.String()})
				return nil
			}
			existing, err := s.store.Tickets.ListByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				s.log.Warn("tickets_already_created", map[string]any{"order_id": order.ID.String(), "tickets": len(existing)})
				return nil
			}
			for _, it := range order.Items {
				if it.Quantity.Value() <= 0 {
					s.log.Warn("ticket_skipped", map[string]any{
						"order_id": order.ID.String(),
						"item_id":  it.ID,
						"quantity": it.Quantity.Value(),
					})
					continue
				}
				created = append(created, domain.NewKitchenTicket(order.ID, it))
			}
			return s.store.Tickets.AddBatch(ctx, created)
		})
	})
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return nil
	}

	s.m.TicketsCreated(len(created))
	s.log.Info("tickets_created", map[string]any{"order_id": order.ID.String(), "order_code": order.Code, "tickets": len(created)})

	table := s.tableOf(ctx, order.TableID)
	batch := make([]domain.TicketDTO, 0, len(created))
	for _, t := range created {
		batch = append(batch, domain.NewTicketDTO(t, order, table.Code, table.Name))
	}
	return s.notifier.TicketBatchCreated(ctx, batch)
}

// HandleOrderCancelled cancels the tickets the kitchen has not served yet.
func (s *KitchenService) HandleOrderCancelled(ctx context.Context, e domain.OrderCancelled) error {
	unlock := s.locks.Lock(e.OrderID)
	defer unlock()

	var (
		order     *domain.Order
		cancelled []*domain.KitchenTicket
	)
	err := s.store.Locker.WithOrderLock(ctx, e.OrderID, func(ctx context.Context) error {
		return s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			if order, err = s.store.Orders.GetByID(ctx, e.OrderID); err != nil {
				return err
			}
			tickets, err := s.store.Tickets.ListByOrder(ctx, e.OrderID)
			if err != nil {
				return err
			}
			for _, t := range tickets {
				if !t.IsOpen() {
					continue
				}
				if err := t.Cancel(CancelReasonOrderCancelled); err != nil {
					return err
				}
				if err := s.store.Tickets.Update(ctx, t); err != nil {
					return err
				}
				cancelled = append(cancelled, t)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	table := s.tableOf(ctx, order.TableID)
	for _, t := range cancelled {
		s.m.TicketTransition(domain.ActionCancel.String())
		if err := s.notifier.TicketChanged(ctx, domain.NewTicketDTO(t, order, table.Code, table.Name)); err != nil {
			return err
		}
	}
	if len(cancelled) > 0 {
		s.log.Info("tickets_cancelled", map[string]any{"order_id": e.OrderID.String(), "tickets": len(cancelled)})
	}
	return nil
}

// ChangeTicketStatus applies a kitchen action to a ticket and moves the order along with its tickets.
// Work on one order is serialized, so concurrent updates of sibling tickets cannot lose an escalation.
func (s *KitchenService) ChangeTicketStatus(ctx context.Context, ticketID uuid.UUID, token, reason string) (domain.TicketDTO, error) {
	started := time.Now()
	action, err := domain.ParseTicketAction(token)
	if err != nil {
		return domain.TicketDTO{}, err
	}

	lookup, err := s.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domain.TicketDTO{}, err
	}
	unlock := s.locks.Lock(lookup.OrderID)
	defer unlock()

	var (
		ticket *domain.KitchenTicket
		order  *domain.Order
		raised []domain.Event
	)
	err = s.store.Locker.WithOrderLock(ctx, lookup.OrderID, func(ctx context.Context) error {
		return s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			if ticket, err = s.store.Tickets.GetByID(ctx, ticketID); err != nil {
				return err
			}
			if err := ticket.Apply(action, reason); err != nil {
				return err
			}
			if err := s.store.Tickets.Update(ctx, ticket); err != nil {
				return err
			}

			siblings, err := s.store.Tickets.ListByOrder(ctx, ticket.OrderID)
			if err != nil {
				return err
			}
			if order, err = s.store.Orders.GetByID(ctx, ticket.OrderID); err != nil {
				return err
			}
			target, ok := domain.DeriveOrderStatus(domain.TicketStatuses(siblings))
			if !ok {
				return nil
			}
			from := order.Status
			changed, err := order.EscalateTo(target)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			if err := s.store.Orders.Update(ctx, order); err != nil {
				return err
			}
			raised = order.PullEvents()
			s.log.Info("order_escalated", map[string]any{
				"order_id": order.ID.String(),
				"from":     from.String(),
				"to":       order.Status.String(),
				"ticket":   ticket.ID.String(),
			})
			return nil
		})
	})
	if err != nil {
		return domain.TicketDTO{}, err
	}

	s.m.TicketTransition(action.String())
	if len(raised) > 0 {
		s.m.Escalated(order.Status.String())
	}
	if err := s.events.Dispatch(ctx, raised...); err != nil {
		return domain.TicketDTO{}, err
	}

	table := s.tableOf(ctx, order.TableID)
	dto := domain.NewTicketDTO(ticket, order, table.Code, table.Name)
	if err := s.notifier.TicketChanged(ctx, dto); err != nil {
		s.log.Error("ticket_changed_notify_failed", err, map[string]any{"ticket_id": ticket.ID.String()})
	}
	s.m.ObserveReconcile(time.Since(started).Seconds())
	return dto, nil
}

// ListTickets returns the tickets of an order in creation order.
func (s *KitchenService) ListTickets(ctx context.Context, orderID uuid.UUID) ([]domain.TicketDTO, error) {
	order, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.store.Tickets.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	table := s.tableOf(ctx, order.TableID)
	out := make([]domain.TicketDTO, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, domain.NewTicketDTO(t, order, table.Code, table.Name))
	}
	return out, nil
}

// tableOf resolves display fields. A missing table leaves them empty rather than failing the command.
func (s *KitchenService) tableOf(ctx context.Context, id int64) repository.Table {
	t, err := s.store.Tables.GetByID(ctx, id)
	if apperr.HasCode(err, apperr.CodeTableNotFound) {
		s.log.Warn("table_not_found", map[string]any{"table_id": id})
		return repository.Table{ID: id}
	}
	if err != nil {
		s.log.Error("table_lookup_failed", err, map[string]any{"table_id": id})
		return repository.Table{ID: id}
	}
	return t
}
