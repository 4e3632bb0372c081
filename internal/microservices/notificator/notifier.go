package notificator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"table-service/internal/domain"
)

// Routing keys on the notifications exchange. The first segment names the websocket channel.
const (
	KeyOrderStatus   = "customer.order.status"
	KeyOrderPaid     = "customer.order.paid"
	KeyTicketCreated = "kitchen.ticket.created"
	KeyTicketChanged = "kitchen.ticket.changed"

	ChannelCustomer = "customer"
	ChannelKitchen  = "kitchen"
)

// CustomerNotifier tells customer-facing screens about their order.
type CustomerNotifier interface {
	OrderStatusChanged(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
	OrderPaid(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency, method string, paidAt time.Time) error
}

// KitchenTicketNotifier tells the kitchen display about ticket changes.
type KitchenTicketNotifier interface {
	TicketBatchCreated(ctx context.Context, tickets []domain.TicketDTO) error
	TicketChanged(ctx context.Context, ticket domain.TicketDTO) error
}

// Message is the envelope of every published notification.
type Message struct {
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"order_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type StatusChanged struct {
	OrderID uuid.UUID          `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
}

type Paid struct {
	OrderID  uuid.UUID `json:"order_id"`
	Amount   string    `json:"amount"`
	Currency string    `json:"currency"`
	Method   string    `json:"method"`
	PaidAt   time.Time `json:"paid_at"`
}

// ChannelOf returns the websocket channel a routing key belongs to.
func ChannelOf(routingKey string) string {
	ch, _, _ := strings.Cut(routingKey, ".")
	return ch
}

func newMessage(key string, orderID uuid.UUID, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: key, OrderID: orderID, OccurredAt: domain.Now(), Data: raw}, nil
}
