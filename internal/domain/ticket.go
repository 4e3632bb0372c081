package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"table-service/internal/common/apperr"
)

// KitchenTicket is the fulfilment record for one order line. It is created when the order is
// submitted and follows its own lifecycle, independent of the line it was cut from.
type KitchenTicket struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	OrderItemID  int64
	ItemName     string
	Quantity     int
	Note         string
	Status       TicketStatus
	CreatedAt    time.Time
	StartedAt    *time.Time
	ReadyAt      *time.Time
	ServedAt     *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewKitchenTicket cuts a New ticket for an order line.
func NewKitchenTicket(orderID uuid.UUID, item OrderItem) *KitchenTicket {
	return &KitchenTicket{
		ID:          uuid.New(),
		OrderID:     orderID,
		OrderItemID: item.ID,
		ItemName:    item.Name,
		Quantity:    item.Quantity.Value(),
		Note:        item.Note,
		Status:      TicketStatusNew,
		CreatedAt:   Now(),
	}
}

func (t *KitchenTicket) move(from, to TicketStatus) (time.Time, error) {
	if t.Status != from {
		return time.Time{}, apperr.WithMetadata(apperr.CodeTicketInvalidTransition, "illegal ticket status transition",
			map[string]string{"ticket_id": t.ID.String(), "from": t.Status.String(), "to": to.String()})
	}
	t.Status = to
	return Now(), nil
}

func (t *KitchenTicket) Start() error {
	now, err := t.move(TicketStatusNew, TicketStatusInProgress)
	if err != nil {
		return err
	}
	t.StartedAt = &now
	return nil
}

func (t *KitchenTicket) MarkReady() error {
	now, err := t.move(TicketStatusInProgress, TicketStatusReady)
	if err != nil {
		return err
	}
	t.ReadyAt = &now
	return nil
}

func (t *KitchenTicket) MarkServed() error {
	now, err := t.move(TicketStatusReady, TicketStatusServed)
	if err != nil {
		return err
	}
	t.ServedAt = &now
	return nil
}

// Cancel is allowed from New, InProgress and Ready. The reason is optional and stored trimmed.
func (t *KitchenTicket) Cancel(reason string) error {
	switch t.Status {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusReady:
	default:
		return apperr.WithMetadata(apperr.CodeTicketInvalidTransition, "ticket cannot be cancelled",
			map[string]string{"ticket_id": t.ID.String(), "from": t.Status.String()})
	}
	now := Now()
	t.Status = TicketStatusCancelled
	t.CancelledAt = &now
	t.CancelReason = strings.TrimSpace(reason)
	return nil
}

// Apply runs the transition matching a parsed action.
func (t *KitchenTicket) Apply(a TicketAction, reason string) error {
	switch a {
	case ActionStart:
		return t.Start()
	case ActionReady:
		return t.MarkReady()
	case ActionServe:
		return t.MarkServed()
	case ActionCancel:
		return t.Cancel(reason)
	}
	return apperr.New(apperr.CodeInvalidAction, "invalid action")
}

// IsOpen reports whether the kitchen still has work to do on the ticket.
func (t *KitchenTicket) IsOpen() bool {
	return t.Status == TicketStatusNew || t.Status == TicketStatusInProgress || t.Status == TicketStatusReady
}
