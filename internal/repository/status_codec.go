package repository

import (
	"fmt"
	"strconv"

	"table-service/internal/domain"
)

// Storage names for statuses. These strings are persisted: add new ones, never rename.
var (
	orderStatusToDB = map[domain.OrderStatus]string{
		domain.OrderStatusDraft:             "draft",
		domain.OrderStatusSubmitted:         "submitted",
		domain.OrderStatusInProgress:        "in_progress",
		domain.OrderStatusReady:             "ready",
		domain.OrderStatusServed:            "served",
		domain.OrderStatusWaitingForPayment: "waiting_for_payment",
		domain.OrderStatusPaid:              "paid",
		domain.OrderStatusCancelled:         "cancelled",
	}
	ticketStatusToDB = map[domain.TicketStatus]string{
		domain.TicketStatusNew:        "new",
		domain.TicketStatusInProgress: "in_progress",
		domain.TicketStatusReady:      "ready",
		domain.TicketStatusServed:     "served",
		domain.TicketStatusCancelled:  "cancelled",
	}
	orderStatusFromDB  = invert(orderStatusToDB)
	ticketStatusFromDB = invert(ticketStatusToDB)
)

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func EncodeOrderStatus(s domain.OrderStatus) string { return orderStatusToDB[s] }

func DecodeOrderStatus(v string) (domain.OrderStatus, error) {
	s, ok := orderStatusFromDB[v]
	if !ok {
		return 0, fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}

func EncodeTicketStatus(s domain.TicketStatus) string { return ticketStatusToDB[s] }

func DecodeTicketStatus(v string) (domain.TicketStatus, error) {
	s, ok := ticketStatusFromDB[v]
	if !ok {
		return 0, fmt.Errorf("unknown ticket status %q", v)
	}
	return s, nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
