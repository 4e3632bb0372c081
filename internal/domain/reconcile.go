package domain

// DeriveOrderStatus computes the order status implied by its tickets. The first matching rule wins:
//
//	every ticket Served or Cancelled          -> Served
//	every ticket Ready, Served or Cancelled   -> Ready
//	any ticket InProgress or Ready            -> InProgress
//	otherwise (all New, or no tickets)        -> no candidate
//
// The order therefore tracks its slowest line.
func DeriveOrderStatus(statuses []TicketStatus) (OrderStatus, bool) {
	if len(statuses) == 0 {
		return 0, false
	}
	allDone, allReady, anyStarted := true, true, false
	for _, s := range statuses {
		switch s {
		case TicketStatusServed, TicketStatusCancelled:
		case TicketStatusReady:
			allDone = false
			anyStarted = true
		case TicketStatusInProgress:
			allDone, allReady = false, false
			anyStarted = true
		default:
			allDone, allReady = false, false
		}
	}
	switch {
	case allDone:
		return OrderStatusServed, true
	case allReady:
		return OrderStatusReady, true
	case anyStarted:
		return OrderStatusInProgress, true
	}
	return 0, false
}

// TicketStatuses collects the statuses of a ticket set.
func TicketStatuses(tickets []*KitchenTicket) []TicketStatus {
	out := make([]TicketStatus, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.Status)
	}
	return out
}
