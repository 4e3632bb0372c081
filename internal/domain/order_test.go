package domain

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-service/internal/common/apperr"
)

func newDraft(t *testing.T) *Order {
	t.Helper()
	o, err := Start(uuid.New(), 1, "ORD_20260101_001")
	require.NoError(t, err)
	return o
}

func addItem(t *testing.T, o *Order, menuID int64, price float64, qty int) int64 {
	t.Helper()
	q, err := NewQuantity(qty)
	require.NoError(t, err)
	id, err := o.AddItem(menuID, "item", MustMoney(price, "VND"), q)
	require.NoError(t, err)
	return id
}

func eventNames(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.EventName())
	}
	return out
}

func TestStart(t *testing.T) {
	o := newDraft(t)
	assert.Equal(t, OrderStatusDraft, o.Status)
	assert.Empty(t, o.Items)
	assert.Equal(t, "0.00 VND", o.Total().String())
	assert.Empty(t, o.PendingEvents())

	_, err := Start(uuid.Nil, 1, "X")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrder))
	_, err = Start(uuid.New(), 0, "X")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrder))
	_, err = Start(uuid.New(), 1, "  ")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrder))
}

func TestAddItemMergesSameMenuItem(t *testing.T) {
	o := newDraft(t)
	first := addItem(t, o, 10, 50000, 1)
	second := addItem(t, o, 11, 20000, 2)
	merged := addItem(t, o, 10, 50000, 2)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, first, merged)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 3, o.Items[0].Quantity.Value())
	assert.Equal(t, "190000.00 VND", o.Total().String())
}

func TestAddItemValidation(t *testing.T) {
	o := newDraft(t)
	q, _ := NewQuantity(1)

	_, err := o.AddItem(0, "x", MustMoney(1, "VND"), q)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrderItem))
	_, err = o.AddItem(1, " ", MustMoney(1, "VND"), q)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrderItem))
	_, err = o.AddItem(1, "x", MustMoney(1, "VND"), Quantity{})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrderItem))
}

func TestAddItemMergeOverflowIsRejected(t *testing.T) {
	o := newDraft(t)
	id := addItem(t, o, 1, 50000, math.MaxInt)

	one, err := NewQuantity(1)
	require.NoError(t, err)
	_, err = o.AddItem(1, "Pho", MustMoney(50000, "VND"), one)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidQuantity))

	require.Len(t, o.Items, 1)
	assert.Equal(t, id, o.Items[0].ID)
	assert.Equal(t, math.MaxInt, o.Items[0].Quantity.Value())
	assert.False(t, o.Total().Amount().IsNegative())
}

func TestTotalIsSumOfLines(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 12.5, 3)
	addItem(t, o, 2, 0.1, 7)
	addItem(t, o, 3, 99999.99, 1)

	want := MustMoney(12.5*3+0.7+99999.99, "VND")
	assert.True(t, o.Total().Equal(want), "got %s", o.Total())
	assert.True(t, o.Total().Equal(o.CalculateSubTotal()))
}

func TestLineEditsRequireDraft(t *testing.T) {
	o := newDraft(t)
	id := addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	o.PullEvents()

	q, _ := NewQuantity(1)
	_, err := o.AddItem(2, "x", MustMoney(1, "VND"), q)
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderNotDraft))
	assert.True(t, apperr.HasCode(o.RemoveItem(id), apperr.CodeOrderNotDraft))
	assert.True(t, apperr.HasCode(o.ChangeItemQuantity(id, 2), apperr.CodeOrderNotDraft))
	assert.True(t, apperr.HasCode(o.SetItemNote(id, "x"), apperr.CodeOrderNotDraft))
	assert.True(t, apperr.HasCode(o.SetCustomerNote("x"), apperr.CodeOrderNotDraft))
	assert.True(t, apperr.HasCode(o.ClearItems(), apperr.CodeOrderNotDraft))
	assert.Len(t, o.Items, 1)
	assert.Empty(t, o.PendingEvents())
}

func TestChangeItemQuantity(t *testing.T) {
	o := newDraft(t)
	id := addItem(t, o, 1, 100, 1)

	require.NoError(t, o.ChangeItemQuantity(id, 4))
	assert.Equal(t, 4, o.Items[0].Quantity.Value())

	err := o.ChangeItemQuantity(id, -1)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidQuantity))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, 4, o.Items[0].Quantity.Value())

	require.NoError(t, o.ChangeItemQuantity(id, 0))
	assert.Empty(t, o.Items)

	assert.True(t, apperr.HasCode(o.ChangeItemQuantity(id, 1), apperr.CodeOrderItemNotFound))
}

func TestRemoveUnknownItem(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)

	err := o.RemoveItem(999)
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderItemNotFound))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Len(t, o.Items, 1)
}

func TestNotes(t *testing.T) {
	o := newDraft(t)
	id := addItem(t, o, 1, 100, 1)

	require.NoError(t, o.SetItemNote(id, "  no onions "))
	require.NoError(t, o.SetCustomerNote(" window seat"))
	assert.Equal(t, "no onions", o.Items[0].Note)
	assert.Equal(t, "window seat", o.CustomerNote)

	require.NoError(t, o.ClearItems())
	assert.Empty(t, o.Items)
}

func TestSubmit(t *testing.T) {
	o := newDraft(t)
	assert.True(t, apperr.HasCode(o.Submit(), apperr.CodeOrderEmpty))

	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	assert.Equal(t, OrderStatusSubmitted, o.Status)
	assert.NotNil(t, o.SubmittedAt)

	assert.True(t, apperr.HasCode(o.Submit(), apperr.CodeOrderNotDraft))
	assert.Equal(t, []string{EventOrderSubmitted}, eventNames(o.PullEvents()))
	assert.Empty(t, o.PullEvents())
}

func TestFulfilmentTransitions(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)

	assert.True(t, apperr.HasCode(o.MarkInProgress(), apperr.CodeOrderInvalidTransition))
	require.NoError(t, o.Submit())
	assert.True(t, apperr.HasCode(o.MarkReady(), apperr.CodeOrderInvalidTransition))
	require.NoError(t, o.MarkInProgress())
	assert.True(t, apperr.HasCode(o.MarkServed(), apperr.CodeOrderInvalidTransition))
	require.NoError(t, o.MarkReady())
	require.NoError(t, o.MarkServed())

	assert.Equal(t, OrderStatusServed, o.Status)
	assert.Equal(t, []string{EventOrderSubmitted, EventOrderInProgress, EventOrderReady, EventOrderServed},
		eventNames(o.PullEvents()))
}

func TestCancel(t *testing.T) {
	o := newDraft(t)
	require.NoError(t, o.Cancel())
	require.NoError(t, o.Cancel())
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, []string{EventOrderCancelled}, eventNames(o.PullEvents()))
	assert.False(t, o.IsOpen())

	paid := newDraft(t)
	addItem(t, paid, 1, 100, 1)
	require.NoError(t, paid.Submit())
	require.NoError(t, paid.MarkPaidByTransfer())
	err := paid.Cancel()
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderAlreadyPaid))
	assert.Equal(t, OrderStatusPaid, paid.Status)
}

func TestPay(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 50000, 2)

	err := o.Pay(MustMoney(100000, "VND"), "cash")
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderNotReadyToPay))

	require.NoError(t, o.Submit())
	o.PullEvents()

	err = o.Pay(MustMoney(99999, "VND"), "cash")
	assert.True(t, apperr.HasCode(err, apperr.CodePaymentAmountMismatch))
	assert.Equal(t, OrderStatusSubmitted, o.Status)

	err = o.Pay(MustMoney(100000, "USD"), "cash")
	assert.True(t, apperr.HasCode(err, apperr.CodePaymentCurrency))
	assert.Empty(t, o.PendingEvents())

	require.NoError(t, o.Pay(MustMoney(100000, "VND"), "credit"))
	assert.Equal(t, OrderStatusPaid, o.Status)
	assert.Equal(t, PaymentCard, o.PaymentMethod)
	assert.NotNil(t, o.PaidAt)

	evs := o.PullEvents()
	require.Len(t, evs, 1)
	paid, ok := evs[0].(OrderPaid)
	require.True(t, ok)
	assert.Equal(t, "100000.00", paid.Amount.StringFixed(2))
	assert.Equal(t, "VND", paid.Currency)

	assert.True(t, apperr.HasCode(o.Pay(MustMoney(100000, "VND"), "cash"), apperr.CodeOrderAlreadyPaid))
}

func TestCashPaymentBranch(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)
	assert.True(t, apperr.HasCode(o.RequestCashPayment(), apperr.CodeOrderNotReadyToPay))

	require.NoError(t, o.Submit())
	require.NoError(t, o.RequestCashPayment())
	require.NoError(t, o.RequestCashPayment())
	assert.Equal(t, OrderStatusWaitingForPayment, o.Status)

	require.NoError(t, o.Pay(MustMoney(100, "VND"), ""))
	assert.Equal(t, PaymentCash, o.PaymentMethod)
	assert.Equal(t, []string{EventOrderSubmitted, EventOrderCashPaymentRequested, EventOrderPaid},
		eventNames(o.PullEvents()))
}

func TestMarkPaidByTransfer(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	require.NoError(t, o.Cancel())
	assert.True(t, apperr.HasCode(o.MarkPaidByTransfer(), apperr.CodeOrderCancelled))

	o = newDraft(t)
	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	require.NoError(t, o.MarkPaidByTransfer())
	assert.Equal(t, PaymentTransfer, o.PaymentMethod)
}

func TestClone(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())

	c := o.Clone()
	assert.Empty(t, c.PendingEvents())
	assert.Len(t, o.PendingEvents(), 1)

	c.Items[0].Note = "changed"
	assert.Empty(t, o.Items[0].Note)
}

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"":              PaymentCash,
		"CASH":          PaymentCash,
		"debit":         PaymentCard,
		"bank_transfer": PaymentTransfer,
		" Voucher ":     "Voucher",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePaymentMethod(in), "method %q", in)
	}
}
