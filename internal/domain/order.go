package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"table-service/internal/common/apperr"
)

// Now is the clock used to stamp transitions. Tests may replace it.
var Now = func() time.Time { return time.Now().UTC() }

// Payment methods recorded on OrderPaid.
const (
	PaymentCash     = "Cash"
	PaymentCard     = "Card"
	PaymentTransfer = "Transfer"
)

// OrderItem is one priced, quantified line of an Order. Name and price are snapshots taken at add time.
type OrderItem struct {
	ID         int64
	MenuItemID int64
	Name       string
	UnitPrice  Money
	Quantity   Quantity
	Note       string
}

// LineTotal is UnitPrice × Quantity.
func (it OrderItem) LineTotal() Money { return it.UnitPrice.Mul(it.Quantity) }

// Order is the aggregate root for one table's bill. Fields are exported for the persistence
// adapters; state changes go through the methods, which enforce the lifecycle and raise events.
type Order struct {
	ID           uuid.UUID
	Code         string
	TableID      int64
	Status       OrderStatus
	Items        []OrderItem
	CustomerNote string

	CreatedAt    time.Time
	SubmittedAt  *time.Time
	InProgressAt *time.Time
	ReadyAt      *time.Time
	ServedAt     *time.Time
	PaidAt       *time.Time
	CancelledAt  *time.Time

	PaymentMethod string

	// Version is the optimistic concurrency token maintained by the repository.
	Version int64

	events []Event
}

// Start opens a Draft order for a table.
func Start(id uuid.UUID, tableID int64, code string) (*Order, error) {
	code = strings.TrimSpace(code)
	if id == uuid.Nil || tableID <= 0 || code == "" {
		return nil, apperr.WithMetadata(apperr.CodeInvalidOrder, "order requires id, table and code",
			map[string]string{"table_id": strconv.FormatInt(tableID, 10), "code": code})
	}
	return &Order{
		ID:        id,
		Code:      code,
		TableID:   tableID,
		Status:    OrderStatusDraft,
		CreatedAt: Now(),
	}, nil
}

// PullEvents returns the raised events in order and clears the queue.
func (o *Order) PullEvents() []Event {
	ev := o.events
	o.events = nil
	return ev
}

// PendingEvents returns the raised events without clearing them.
func (o *Order) PendingEvents() []Event {
	return append([]Event(nil), o.events...)
}

// Clone returns a copy with its own item slice and no pending events.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.events = nil
	return &c
}

func (o *Order) raise(e Event) { o.events = append(o.events, e) }

func (o *Order) base(at time.Time) OrderEvent {
	return OrderEvent{OrderID: o.ID, Code: o.Code, TableID: o.TableID, At: at}
}

func (o *Order) ensureDraft() error {
	if o.Status != OrderStatusDraft {
		return apperr.WithMetadata(apperr.CodeOrderNotDraft, "order items can only change while the order is a draft",
			map[string]string{"status": o.Status.String()})
	}
	return nil
}

func (o *Order) itemIndex(itemID int64) (int, error) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return i, nil
		}
	}
	return -1, apperr.WithMetadata(apperr.CodeOrderItemNotFound, "order item not found",
		map[string]string{"order_item_id": strconv.FormatInt(itemID, 10)})
}

func (o *Order) nextItemID() int64 {
	var max int64
	for _, it := range o.Items {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

// AddItem appends a line, or merges into an existing line for the same menu item and currency.
// It returns the id of the affected line.
func (o *Order) AddItem(menuItemID int64, name string, price Money, qty Quantity) (int64, error) {
	if err := o.ensureDraft(); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if menuItemID <= 0 || name == "" || price.Currency() == "" || qty.Value() <= 0 {
		return 0, apperr.WithMetadata(apperr.CodeInvalidOrderItem, "order item requires menu item, name, price and quantity",
			map[string]string{"menu_item_id": strconv.FormatInt(menuItemID, 10)})
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.MenuItemID == menuItemID && it.UnitPrice.Currency() == price.Currency() {
			sum, err := it.Quantity.Add(qty)
			if err != nil {
				return 0, err
			}
			it.Quantity = sum
			return it.ID, nil
		}
	}
	id := o.nextItemID()
	o.Items = append(o.Items, OrderItem{
		ID:         id,
		MenuItemID: menuItemID,
		Name:       name,
		UnitPrice:  price,
		Quantity:   qty,
	})
	return id, nil
}

func (o *Order) RemoveItem(itemID int64) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	i, err := o.itemIndex(itemID)
	if err != nil {
		return err
	}
	o.Items = append(o.Items[:i], o.Items[i+1:]...)
	return nil
}

// ChangeItemQuantity sets a line's quantity; zero removes the line.
func (o *Order) ChangeItemQuantity(itemID int64, newQty int) error {
	if newQty < 0 {
		return apperr.WithMetadata(apperr.CodeInvalidQuantity, "quantity must not be negative",
			map[string]string{"quantity": strconv.Itoa(newQty)})
	}
	if err := o.ensureDraft(); err != nil {
		return err
	}
	i, err := o.itemIndex(itemID)
	if err != nil {
		return err
	}
	if newQty == 0 {
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		return nil
	}
	q, err := NewQuantity(newQty)
	if err != nil {
		return err
	}
	o.Items[i].Quantity = q
	return nil
}

func (o *Order) SetItemNote(itemID int64, note string) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	i, err := o.itemIndex(itemID)
	if err != nil {
		return err
	}
	o.Items[i].Note = strings.TrimSpace(note)
	return nil
}

func (o *Order) SetCustomerNote(note string) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	o.CustomerNote = strings.TrimSpace(note)
	return nil
}

func (o *Order) ClearItems() error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	o.Items = nil
	return nil
}

func (o *Order) Submit() error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return apperr.New(apperr.CodeOrderEmpty, "cannot submit an order without items")
	}
	now := Now()
	o.Status = OrderStatusSubmitted
	o.SubmittedAt = &now
	o.raise(OrderSubmitted{o.base(now)})
	return nil
}

func (o *Order) transition(from, to OrderStatus) (time.Time, error) {
	if o.Status != from {
		return time.Time{}, apperr.WithMetadata(apperr.CodeOrderInvalidTransition, "illegal order status transition",
			map[string]string{"from": o.Status.String(), "to": to.String(), "expected": from.String()})
	}
	now := Now()
	o.Status = to
	return now, nil
}

func (o *Order) MarkInProgress() error {
	now, err := o.transition(OrderStatusSubmitted, OrderStatusInProgress)
	if err != nil {
		return err
	}
	o.InProgressAt = &now
	o.raise(OrderInProgress{o.base(now)})
	return nil
}

func (o *Order) MarkReady() error {
	now, err := o.transition(OrderStatusInProgress, OrderStatusReady)
	if err != nil {
		return err
	}
	o.ReadyAt = &now
	o.raise(OrderReady{o.base(now)})
	return nil
}

func (o *Order) MarkServed() error {
	now, err := o.transition(OrderStatusReady, OrderStatusServed)
	if err != nil {
		return err
	}
	o.ServedAt = &now
	o.raise(OrderServed{o.base(now)})
	return nil
}

// Cancel is a no-op on an already cancelled order and always fails on a paid one.
func (o *Order) Cancel() error {
	switch o.Status {
	case OrderStatusCancelled:
		return nil
	case OrderStatusPaid:
		return apperr.New(apperr.CodeOrderAlreadyPaid, "a paid order cannot be cancelled")
	}
	now := Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.raise(OrderCancelled{o.base(now)})
	return nil
}

// ensurePayable rejects the states in which no payment intent makes sense.
func (o *Order) ensurePayable() error {
	switch o.Status {
	case OrderStatusDraft:
		return apperr.New(apperr.CodeOrderNotReadyToPay, "order has not been submitted")
	case OrderStatusPaid:
		return apperr.New(apperr.CodeOrderAlreadyPaid, "order is already paid")
	case OrderStatusCancelled:
		return apperr.New(apperr.CodeOrderCancelled, "order is cancelled")
	}
	return nil
}

// Pay records an exact payment of Total().
func (o *Order) Pay(amount Money, method string) error {
	if err := o.ensurePayable(); err != nil {
		return err
	}
	switch o.Status {
	case OrderStatusSubmitted, OrderStatusReady, OrderStatusServed, OrderStatusWaitingForPayment:
	default:
		return apperr.WithMetadata(apperr.CodeOrderNotReadyToPay, "order cannot be paid in its current status",
			map[string]string{"status": o.Status.String()})
	}
	total := o.Total()
	if amount.Currency() != total.Currency() {
		return apperr.WithMetadata(apperr.CodePaymentCurrency, "payment currency does not match order total",
			map[string]string{"expected": total.Currency(), "actual": amount.Currency()})
	}
	if !amount.Amount().Equal(total.Amount()) {
		return apperr.WithMetadata(apperr.CodePaymentAmountMismatch, "payment amount must equal the order total",
			map[string]string{"expected": total.Amount().StringFixed(2), "actual": amount.Amount().StringFixed(2)})
	}
	o.markPaid(total, NormalizePaymentMethod(method))
	return nil
}

func (o *Order) markPaid(amount Money, method string) {
	now := Now()
	o.Status = OrderStatusPaid
	o.PaidAt = &now
	o.PaymentMethod = method
	o.raise(OrderPaid{
		OrderEvent: o.base(now),
		Amount:     amount.Amount(),
		Currency:   amount.Currency(),
		Method:     method,
	})
}

// RequestCashPayment moves the order to the awaiting-cashier branch.
func (o *Order) RequestCashPayment() error {
	if err := o.ensurePayable(); err != nil {
		return err
	}
	if o.Status == OrderStatusWaitingForPayment {
		return nil
	}
	now := Now()
	o.Status = OrderStatusWaitingForPayment
	o.raise(OrderCashPaymentRequested{o.base(now)})
	return nil
}

// MarkPaidByTransfer records a bank transfer of the full total.
func (o *Order) MarkPaidByTransfer() error {
	if err := o.ensurePayable(); err != nil {
		return err
	}
	o.markPaid(o.Total(), PaymentTransfer)
	return nil
}

// CalculateSubTotal sums UnitPrice × Quantity over all lines. The currency is the first line's,
// or DefaultCurrency for an empty order.
func (o *Order) CalculateSubTotal() Money {
	if len(o.Items) == 0 {
		return ZeroMoney(DefaultCurrency)
	}
	cur := o.Items[0].UnitPrice.Currency()
	sum := ZeroMoney(cur).amount
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal().amount)
	}
	return Money{amount: sum.Round(2), currency: cur}
}

// Total is the amount due. No surcharges apply, so it equals the subtotal.
func (o *Order) Total() Money { return o.CalculateSubTotal() }

// EscalateTo advances the order one legal step at a time until it reaches target.
// It reports changed=false when target does not rank above the current status or the
// order has left the kitchen-driven part of its lifecycle.
func (o *Order) EscalateTo(target OrderStatus) (bool, error) {
	cur, ok := o.Status.fulfilmentRank()
	if !ok {
		return false, nil
	}
	want, ok := target.fulfilmentRank()
	if !ok || want <= cur {
		return false, nil
	}
	for o.Status != target {
		var err error
		switch o.Status {
		case OrderStatusSubmitted:
			err = o.MarkInProgress()
		case OrderStatusInProgress:
			err = o.MarkReady()
		case OrderStatusReady:
			err = o.MarkServed()
		default:
			err = apperr.WithMetadata(apperr.CodeOrderInvalidTransition, "cannot escalate order",
				map[string]string{"from": o.Status.String(), "to": target.String()})
		}
		if err != nil {
			return true, err
		}
	}
	return true, nil
}

// IsOpen reports whether the order still occupies its table.
func (o *Order) IsOpen() bool {
	return o.Status != OrderStatusPaid && o.Status != OrderStatusCancelled
}

// NormalizePaymentMethod maps free-form method names onto the canonical ones; unknown names are kept.
func NormalizePaymentMethod(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "", "cash":
		return PaymentCash
	case "card", "credit", "debit":
		return PaymentCard
	case "transfer", "bank", "bank_transfer", "bank-transfer":
		return PaymentTransfer
	}
	return strings.TrimSpace(m)
}
