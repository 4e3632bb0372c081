package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/domain"
	"table-service/internal/events"
	"table-service/internal/repository"
)

// AddItemRequest describes a menu item added to a draft order. Name and price are snapshots.
type AddItemRequest struct {
	MenuItemID int64
	Name       string
	UnitPrice  decimal.Decimal
	Currency   string // defaults to the service currency
	Quantity   int
	Note       string
}

type OrderServiceInterface interface {
	StartOrder(ctx context.Context, tableID int64, customerNote string) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Total(ctx context.Context, id uuid.UUID) (domain.Money, error)

	AddItem(ctx context.Context, id uuid.UUID, req AddItemRequest) (int64, *domain.Order, error)
	RemoveItem(ctx context.Context, id uuid.UUID, itemID int64) (*domain.Order, error)
	ChangeItemQuantity(ctx context.Context, id uuid.UUID, itemID int64, qty int) (*domain.Order, error)
	SetItemNote(ctx context.Context, id uuid.UUID, itemID int64, note string) (*domain.Order, error)
	SetCustomerNote(ctx context.Context, id uuid.UUID, note string) (*domain.Order, error)
	ClearItems(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	Submit(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	MarkInProgress(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	MarkReady(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	MarkServed(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	Pay(ctx context.Context, id uuid.UUID, amount decimal.Decimal, currency, method string) (*domain.Order, error)
	RequestCashPayment(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	MarkPaidByTransfer(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// OrderService runs the order commands: load, mutate, save, then dispatch the raised events.
type OrderService struct {
	store    repository.Store
	events   events.Publisher
	currency string
	log      *logger.Logger
	m        *metrics.Metrics
}

var _ OrderServiceInterface = (*OrderService)(nil)

func NewOrderService(store repository.Store, pub events.Publisher, currency string, log *logger.Logger, m *metrics.Metrics) *OrderService {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &OrderService{store: store, events: pub, currency: strings.ToUpper(currency), log: log, m: m}
}

// StartOrder opens a draft order for a table and marks the table occupied.
// Codes follow ORD_YYYYMMDD_NNN with a per-day sequence.
func (s *OrderService) StartOrder(ctx context.Context, tableID int64, customerNote string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Tables.GetByID(ctx, tableID); err != nil {
			return err
		}
		now := domain.Now()
		seq, err := s.store.Orders.NextSequence(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to get order sequence: %w", err)
		}
		code := fmt.Sprintf("ORD_%s_%03d", now.Format("20060102"), seq)

		if order, err = domain.Start(uuid.New(), tableID, code); err != nil {
			return err
		}
		if err := order.SetCustomerNote(customerNote); err != nil {
			return err
		}
		if err := s.store.Orders.Add(ctx, order); err != nil {
			return err
		}
		return s.store.Tables.SetOccupied(ctx, tableID, true)
	})
	s.m.OrderCommand("start", err)
	if err != nil {
		return nil, err
	}
	s.log.Info("order_started", map[string]any{"order_id": order.ID.String(), "order_code": order.Code, "table_id": tableID})
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.store.Orders.GetByID(ctx, id)
}

func (s *OrderService) Total(ctx context.Context, id uuid.UUID) (domain.Money, error) {
	o, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return domain.Money{}, err
	}
	return o.Total(), nil
}

func (s *OrderService) AddItem(ctx context.Context, id uuid.UUID, req AddItemRequest) (int64, *domain.Order, error) {
	currency := req.Currency
	if strings.TrimSpace(currency) == "" {
		currency = s.currency
	}
	price, err := domain.NewMoney(req.UnitPrice, currency)
	if err != nil {
		return 0, nil, err
	}
	qty, err := domain.NewQuantity(req.Quantity)
	if err != nil {
		return 0, nil, err
	}

	var itemID int64
	o, err := s.mutate(ctx, "add_item", id, func(o *domain.Order) error {
		var err error
		if itemID, err = o.AddItem(req.MenuItemID, req.Name, price, qty); err != nil {
			return err
		}
		if req.Note != "" {
			return o.SetItemNote(itemID, req.Note)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return itemID, o, nil
}

func (s *OrderService) RemoveItem(ctx context.Context, id uuid.UUID, itemID int64) (*domain.Order, error) {
	return s.mutate(ctx, "remove_item", id, func(o *domain.Order) error { return o.RemoveItem(itemID) })
}

func (s *OrderService) ChangeItemQuantity(ctx context.Context, id uuid.UUID, itemID int64, qty int) (*domain.Order, error) {
	return s.mutate(ctx, "change_quantity", id, func(o *domain.Order) error { return o.ChangeItemQuantity(itemID, qty) })
}

func (s *OrderService) SetItemNote(ctx context.Context, id uuid.UUID, itemID int64, note string) (*domain.Order, error) {
	return s.mutate(ctx, "set_item_note", id, func(o *domain.Order) error { return o.SetItemNote(itemID, note) })
}

func (s *OrderService) SetCustomerNote(ctx context.Context, id uuid.UUID, note string) (*domain.Order, error) {
	return s.mutate(ctx, "set_customer_note", id, func(o *domain.Order) error { return o.SetCustomerNote(note) })
}

func (s *OrderService) ClearItems(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "clear_items", id, (*domain.Order).ClearItems)
}

func (s *OrderService) Submit(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "submit", id, (*domain.Order).Submit)
}

func (s *OrderService) MarkInProgress(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "mark_in_progress", id, (*domain.Order).MarkInProgress)
}

func (s *OrderService) MarkReady(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "mark_ready", id, (*domain.Order).MarkReady)
}

func (s *OrderService) MarkServed(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "mark_served", id, (*domain.Order).MarkServed)
}

func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "cancel", id, (*domain.Order).Cancel)
}

func (s *OrderService) Pay(ctx context.Context, id uuid.UUID, amount decimal.Decimal, currency, method string) (*domain.Order, error) {
	if strings.TrimSpace(currency) == "" {
		currency = s.currency
	}
	money, err := domain.NewMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "pay", id, func(o *domain.Order) error { return o.Pay(money, method) })
}

func (s *OrderService) RequestCashPayment(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "request_cash_payment", id, (*domain.Order).RequestCashPayment)
}

func (s *OrderService) MarkPaidByTransfer(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.mutate(ctx, "pay_by_transfer", id, (*domain.Order).MarkPaidByTransfer)
}

// mutate runs fn against the stored order under the order lock and saves the result.
// Raised events are dispatched after the save has committed.
func (s *OrderService) mutate(ctx context.Context, command string, id uuid.UUID, fn func(o *domain.Order) error) (*domain.Order, error) {
	var (
		order  *domain.Order
		raised []domain.Event
	)
	err := s.store.Locker.WithOrderLock(ctx, id, func(ctx context.Context) error {
		return s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			if order, err = s.store.Orders.GetByID(ctx, id); err != nil {
				return err
			}
			if err := fn(order); err != nil {
				return err
			}
			if err := s.store.Orders.Update(ctx, order); err != nil {
				return err
			}
			raised = order.PullEvents()
			return nil
		})
	})
	s.m.OrderCommand(command, err)
	if err != nil {
		s.log.Debug("order_command_rejected", map[string]any{"command": command, "order_id": id.String(), "error": err.Error()})
		return nil, err
	}
	s.log.Info("order_command_applied", map[string]any{
		"command":  command,
		"order_id": id.String(),
		"status":   order.Status.String(),
		"events":   len(raised),
	})
	if err := s.events.Dispatch(ctx, raised...); err != nil {
		return order, err
	}
	return order, nil
}
