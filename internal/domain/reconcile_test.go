package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveOrderStatus(t *testing.T) {
	const (
		n  = TicketStatusNew
		ip = TicketStatusInProgress
		r  = TicketStatusReady
		s  = TicketStatusServed
		c  = TicketStatusCancelled
	)
	tests := []struct {
		name     string
		statuses []TicketStatus
		want     OrderStatus
		ok       bool
	}{
		{"no tickets", nil, 0, false},
		{"all new", []TicketStatus{n, n}, 0, false},
		{"one started", []TicketStatus{ip, n}, OrderStatusInProgress, true},
		{"one ready one new", []TicketStatus{r, n}, OrderStatusInProgress, true},
		{"ready and in progress", []TicketStatus{r, ip}, OrderStatusInProgress, true},
		{"all ready", []TicketStatus{r, r}, OrderStatusReady, true},
		{"ready and served", []TicketStatus{r, s}, OrderStatusReady, true},
		{"ready and cancelled", []TicketStatus{r, c}, OrderStatusReady, true},
		{"served and new", []TicketStatus{s, n}, 0, false},
		{"served and cancelled", []TicketStatus{s, c}, OrderStatusServed, true},
		{"all cancelled", []TicketStatus{c, c}, OrderStatusServed, true},
		{"all served", []TicketStatus{s}, OrderStatusServed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveOrderStatus(tt.statuses)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEscalateToStepsThroughEachStatus(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	o.PullEvents()

	changed, err := o.EscalateTo(OrderStatusServed)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, OrderStatusServed, o.Status)
	assert.NotNil(t, o.InProgressAt)
	assert.NotNil(t, o.ReadyAt)
	assert.NotNil(t, o.ServedAt)
	assert.Equal(t, []string{EventOrderInProgress, EventOrderReady, EventOrderServed}, eventNames(o.PullEvents()))
}

func TestEscalateToNeverRegresses(t *testing.T) {
	o := newDraft(t)
	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	_, err := o.EscalateTo(OrderStatusReady)
	require.NoError(t, err)
	o.PullEvents()

	for _, target := range []OrderStatus{OrderStatusSubmitted, OrderStatusInProgress, OrderStatusReady} {
		changed, err := o.EscalateTo(target)
		require.NoError(t, err)
		assert.False(t, changed, target.String())
	}
	assert.Equal(t, OrderStatusReady, o.Status)
	assert.Empty(t, o.PendingEvents())
}

func TestEscalateToIgnoresClosedOrders(t *testing.T) {
	draft := newDraft(t)
	changed, err := draft.EscalateTo(OrderStatusInProgress)
	require.NoError(t, err)
	assert.False(t, changed)

	o := newDraft(t)
	addItem(t, o, 1, 100, 1)
	require.NoError(t, o.Submit())
	require.NoError(t, o.Cancel())
	o.PullEvents()

	changed, err = o.EscalateTo(OrderStatusServed)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Empty(t, o.PendingEvents())
}
