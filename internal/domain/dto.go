package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketDTO is the kitchen-facing view of a ticket, enriched with its order and table.
type TicketDTO struct {
	TicketID     uuid.UUID    `json:"ticket_id"`
	OrderID      uuid.UUID    `json:"order_id"`
	OrderCode    string       `json:"order_code"`
	TableCode    string       `json:"table_code"`
	TableName    string       `json:"table_name"`
	OrderStatus  OrderStatus  `json:"order_status"`
	TicketStatus TicketStatus `json:"ticket_status"`
	OrderItemID  int64        `json:"order_item_id"`
	ItemName     string       `json:"item_name"`
	Quantity     int          `json:"quantity"`
	Note         string       `json:"note,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	ReadyAt      *time.Time   `json:"ready_at,omitempty"`
	ServedAt     *time.Time   `json:"served_at,omitempty"`
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`
	CancelReason string       `json:"cancel_reason,omitempty"`
}

func NewTicketDTO(t *KitchenTicket, o *Order, tableCode, tableName string) TicketDTO {
	return TicketDTO{
		TicketID:     t.ID,
		OrderID:      o.ID,
		OrderCode:    o.Code,
		TableCode:    tableCode,
		TableName:    tableName,
		OrderStatus:  o.Status,
		TicketStatus: t.Status,
		OrderItemID:  t.OrderItemID,
		ItemName:     t.ItemName,
		Quantity:     t.Quantity,
		Note:         t.Note,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		ReadyAt:      t.ReadyAt,
		ServedAt:     t.ServedAt,
		CancelledAt:  t.CancelledAt,
		CancelReason: t.CancelReason,
	}
}

type OrderItemDTO struct {
	ID         int64  `json:"id"`
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	Currency   string `json:"currency"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
	LineTotal  string `json:"line_total"`
}

type OrderDTO struct {
	ID            uuid.UUID      `json:"id"`
	Code          string         `json:"code"`
	TableID       int64          `json:"table_id"`
	Status        OrderStatus    `json:"status"`
	Items         []OrderItemDTO `json:"items"`
	CustomerNote  string         `json:"customer_note,omitempty"`
	Total         string         `json:"total"`
	Currency      string         `json:"currency"`
	PaymentMethod string         `json:"payment_method,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	InProgressAt  *time.Time     `json:"in_progress_at,omitempty"`
	ReadyAt       *time.Time     `json:"ready_at,omitempty"`
	ServedAt      *time.Time     `json:"served_at,omitempty"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
	Version       int64          `json:"version"`
}

func NewOrderDTO(o *Order) OrderDTO {
	total := o.Total()
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice.Amount().StringFixed(2),
			Currency:   it.UnitPrice.Currency(),
			Quantity:   it.Quantity.Value(),
			Note:       it.Note,
			LineTotal:  it.LineTotal().Amount().StringFixed(2),
		})
	}
	return OrderDTO{
		ID:            o.ID,
		Code:          o.Code,
		TableID:       o.TableID,
		Status:        o.Status,
		Items:         items,
		CustomerNote:  o.CustomerNote,
		Total:         total.Amount().StringFixed(2),
		Currency:      total.Currency(),
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		SubmittedAt:   o.SubmittedAt,
		InProgressAt:  o.InProgressAt,
		ReadyAt:       o.ReadyAt,
		ServedAt:      o.ServedAt,
		PaidAt:        o.PaidAt,
		CancelledAt:   o.CancelledAt,
		Version:       o.Version,
	}
}
