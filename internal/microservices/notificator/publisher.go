package notificator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/connections/rabbitmq"
	"table-service/internal/domain"
)

// Broker is the part of the rabbitmq client the publisher needs.
type Broker interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, contentType string, persistent bool) error
}

// Publisher implements CustomerNotifier and KitchenTicketNotifier on top of the notifications exchange.
type Publisher struct {
	broker   Broker
	exchange string
	timeout  time.Duration
	log      *logger.Logger
	m        *metrics.Metrics
}

var (
	_ CustomerNotifier      = (*Publisher)(nil)
	_ KitchenTicketNotifier = (*Publisher)(nil)
)

func NewPublisher(broker Broker, log *logger.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		broker:   broker,
		exchange: rabbitmq.NotificationsExchange,
		timeout:  5 * time.Second,
		log:      log,
		m:        m,
	}
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	return p.publish(ctx, KeyOrderStatus, orderID, StatusChanged{OrderID: orderID, Status: status})
}

func (p *Publisher) OrderPaid(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency, method string, paidAt time.Time) error {
	return p.publish(ctx, KeyOrderPaid, orderID, Paid{
		OrderID:  orderID,
		Amount:   amount.StringFixed(2),
		Currency: currency,
		Method:   method,
		PaidAt:   paidAt,
	})
}

func (p *Publisher) TicketBatchCreated(ctx context.Context, tickets []domain.TicketDTO) error {
	if len(tickets) == 0 {
		return nil
	}
	return p.publish(ctx, KeyTicketCreated, tickets[0].OrderID, tickets)
}

func (p *Publisher) TicketChanged(ctx context.Context, ticket domain.TicketDTO) error {
	return p.publish(ctx, KeyTicketChanged, ticket.OrderID, ticket)
}

func (p *Publisher) publish(ctx context.Context, key string, orderID uuid.UUID, data any) error {
	msg, err := newMessage(key, orderID, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.broker.Publish(pctx, p.exchange, key, body, amqp.Table{"order_id": orderID.String()}, "application/json", true)
	p.m.Published(key, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	p.log.Debug("notification_published", map[string]any{"routing_key": key, "order_id": orderID.String()})
	return nil
}
