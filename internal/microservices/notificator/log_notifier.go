package notificator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"table-service/internal/common/logger"
	"table-service/internal/domain"
)

// LogNotifier only logs. It backs the memory storage mode where no broker runs.
type LogNotifier struct{ log *logger.Logger }

var (
	_ CustomerNotifier      = (*LogNotifier)(nil)
	_ KitchenTicketNotifier = (*LogNotifier)(nil)
)

func NewLogNotifier(log *logger.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) OrderStatusChanged(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	n.log.Info("order_status_changed", map[string]any{"order_id": orderID.String(), "status": status.String()})
	return nil
}

func (n *LogNotifier) OrderPaid(_ context.Context, orderID uuid.UUID, amount decimal.Decimal, currency, method string, paidAt time.Time) error {
	n.log.Info("order_paid", map[string]any{
		"order_id": orderID.String(),
		"amount":   amount.StringFixed(2),
		"currency": currency,
		"method":   method,
		"paid_at":  paidAt,
	})
	return nil
}

func (n *LogNotifier) TicketBatchCreated(_ context.Context, tickets []domain.TicketDTO) error {
	for _, t := range tickets {
		n.log.Info("ticket_created", map[string]any{
			"ticket_id":  t.TicketID.String(),
			"order_code": t.OrderCode,
			"table_code": t.TableCode,
			"item":       t.ItemName,
			"quantity":   t.Quantity,
		})
	}
	return nil
}

func (n *LogNotifier) TicketChanged(_ context.Context, t domain.TicketDTO) error {
	n.log.Info("ticket_changed", map[string]any{
		"ticket_id":     t.TicketID.String(),
		"order_code":    t.OrderCode,
		"ticket_status": t.TicketStatus.String(),
		"order_status":  t.OrderStatus.String(),
	})
	return nil
}
