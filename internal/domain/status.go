package domain

// OrderStatus is the lifecycle state of an Order.
// The zero value is Draft. Storage representation lives in the repository package.
type OrderStatus int

const (
	OrderStatusDraft OrderStatus = iota
	OrderStatusSubmitted
	OrderStatusInProgress
	OrderStatusReady
	OrderStatusServed
	OrderStatusWaitingForPayment
	OrderStatusPaid
	OrderStatusCancelled
)

var orderStatusNames = [...]string{"Draft", "Submitted", "InProgress", "Ready", "Served", "WaitingForPayment", "Paid", "Cancelled"}

func (s OrderStatus) String() string {
	if s < 0 || int(s) >= len(orderStatusNames) {
		return "Unknown"
	}
	return orderStatusNames[s]
}

func (s OrderStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// fulfilmentRank orders the kitchen-driven part of the lifecycle.
// Statuses outside Submitted..Served report ok=false.
func (s OrderStatus) fulfilmentRank() (int, bool) {
	switch s {
	case OrderStatusSubmitted:
		return 1, true
	case OrderStatusInProgress:
		return 2, true
	case OrderStatusReady:
		return 3, true
	case OrderStatusServed:
		return 4, true
	}
	return 0, false
}

// TicketStatus is the lifecycle state of a KitchenTicket.
type TicketStatus int

const (
	TicketStatusNew TicketStatus = iota
	TicketStatusInProgress
	TicketStatusReady
	TicketStatusServed
	TicketStatusCancelled
)

var ticketStatusNames = [...]string{"New", "InProgress", "Ready", "Served", "Cancelled"}

func (s TicketStatus) String() string {
	if s < 0 || int(s) >= len(ticketStatusNames) {
		return "Unknown"
	}
	return ticketStatusNames[s]
}

func (s TicketStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
