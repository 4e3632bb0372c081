package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event names, also used as dispatcher keys and timeline event types.
const (
	EventOrderSubmitted            = "order.submitted"
	EventOrderInProgress           = "order.in_progress"
	EventOrderReady                = "order.ready"
	EventOrderServed               = "order.served"
	EventOrderCancelled            = "order.cancelled"
	EventOrderPaid                 = "order.paid"
	EventOrderCashPaymentRequested = "order.cash_payment_requested"
)

// Event is an immutable fact raised by an aggregate method.
type Event interface {
	EventName() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// OrderEvent carries the fields shared by all order events.
type OrderEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	Code    string    `json:"order_code"`
	TableID int64     `json:"table_id"`
	At      time.Time `json:"occurred_at"`
}

func (e OrderEvent) AggregateID() uuid.UUID { return e.OrderID }
func (e OrderEvent) OccurredAt() time.Time  { return e.At }

type OrderSubmitted struct{ OrderEvent }

func (OrderSubmitted) EventName() string { return EventOrderSubmitted }

type OrderInProgress struct{ OrderEvent }

func (OrderInProgress) EventName() string { return EventOrderInProgress }

type OrderReady struct{ OrderEvent }

func (OrderReady) EventName() string { return EventOrderReady }

type OrderServed struct{ OrderEvent }

func (OrderServed) EventName() string { return EventOrderServed }

type OrderCancelled struct{ OrderEvent }

func (OrderCancelled) EventName() string { return EventOrderCancelled }

type OrderCashPaymentRequested struct{ OrderEvent }

func (OrderCashPaymentRequested) EventName() string { return EventOrderCashPaymentRequested }

type OrderPaid struct {
	OrderEvent
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   string          `json:"method"`
}

func (OrderPaid) EventName() string { return EventOrderPaid }

// StatusOf maps a status-change event to the order status it announces.
func StatusOf(e Event) (OrderStatus, bool) {
	switch e.(type) {
	case OrderSubmitted:
		return OrderStatusSubmitted, true
	case OrderInProgress:
		return OrderStatusInProgress, true
	case OrderReady:
		return OrderStatusReady, true
	case OrderServed:
		return OrderStatusServed, true
	case OrderCancelled:
		return OrderStatusCancelled, true
	case OrderCashPaymentRequested:
		return OrderStatusWaitingForPayment, true
	case OrderPaid:
		return OrderStatusPaid, true
	}
	return 0, false
}
