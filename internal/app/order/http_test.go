package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/config"
	"table-service/internal/microservices/notificator"
	"table-service/internal/repository"
	"table-service/internal/repository/memory"
)

type client struct {
	t       *testing.T
	handler http.Handler
	store   repository.Store
}

func newClient(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := memory.NewStore()
	mem.AddTable(repository.Table{ID: 1, Code: "T01", Name: "Table 1"})
	store := mem.Repositories()
	log := logger.Discard()
	srv := Wire(config.Default(), store, notificator.NewLogNotifier(log), nil, log, metrics.New())
	return &client{t: t, handler: srv.Engine(), store: store}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (c *client) startWithItems(t *testing.T) string {
	t.Helper()
	code, order := c.do(http.MethodPost, "/api/v1/orders", map[string]any{"table_id": 1})
	require.Equal(t, http.StatusCreated, code)
	id := order["id"].(string)

	for _, item := range []map[string]any{
		{"menu_item_id": 1, "name": "Pho", "unit_price": "50000", "quantity": 1},
		{"menu_item_id": 2, "name": "Iced coffee", "unit_price": "25000", "quantity": 2},
	} {
		code, _ = c.do(http.MethodPost, "/api/v1/orders/"+id+"/items", item)
		require.Equal(t, http.StatusCreated, code)
	}
	return id
}

func ticketIDs(t *testing.T, body map[string]any) []string {
	t.Helper()
	list := body["tickets"].([]any)
	out := make([]string, 0, len(list))
	for _, it := range list {
		out = append(out, it.(map[string]any)["ticket_id"].(string))
	}
	return out
}

func TestOrderFlowOverHTTP(t *testing.T) {
	c := newClient(t)
	id := c.startWithItems(t)

	code, total := c.do(http.MethodGet, "/api/v1/orders/"+id+"/total", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "100000.00", total["total"])
	assert.Equal(t, "VND", total["currency"])

	code, order := c.do(http.MethodPost, "/api/v1/orders/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Submitted", order["status"])

	code, body := c.do(http.MethodGet, "/api/v1/orders/"+id+"/tickets", nil)
	require.Equal(t, http.StatusOK, code)
	tickets := ticketIDs(t, body)
	require.Len(t, tickets, 2)

	for _, action := range []string{"start", "ready", "served"} {
		code, _ = c.do(http.MethodPost, "/api/v1/tickets/"+tickets[0]+"/status", map[string]any{"action": action})
		require.Equal(t, http.StatusOK, code, action)
	}
	code, ticket := c.do(http.MethodPost, "/api/v1/tickets/"+tickets[1]+"/status",
		map[string]any{"action": "cancel", "reason": "out of ice"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Cancelled", ticket["ticket_status"])
	assert.Equal(t, "Served", ticket["order_status"])

	code, status := c.do(http.MethodGet, "/api/v1/orders/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Served", status["status"])

	code, problem := c.do(http.MethodPost, "/api/v1/orders/"+id+"/pay", map[string]any{"amount": "99999", "currency": "VND"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "PAYMENT_AMOUNT_MISMATCH", problem["type"])

	code, order = c.do(http.MethodPost, "/api/v1/orders/"+id+"/pay", map[string]any{"amount": "100000", "method": "card"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Paid", order["status"])
	assert.Equal(t, "Card", order["payment_method"])

	code, timeline := c.do(http.MethodGet, "/api/v1/orders/"+id+"/timeline", nil)
	require.Equal(t, http.StatusOK, code)
	var types []string
	for _, e := range timeline["events"].([]any) {
		types = append(types, e.(map[string]any)["event_type"].(string))
	}
	assert.Equal(t, []string{"order.submitted", "order.in_progress", "order.ready", "order.served", "order.paid"}, types)

	table, err := c.store.Tables.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, table.Occupied)
}

func TestItemEditsOverHTTP(t *testing.T) {
	c := newClient(t)
	id := c.startWithItems(t)

	code, order := c.do(http.MethodPatch, "/api/v1/orders/"+id+"/items/2", map[string]any{"quantity": 1, "note": "no ice"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "75000.00", order["total"])

	code, _ = c.do(http.MethodPatch, "/api/v1/orders/"+id+"/items/2", map[string]any{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, problem := c.do(http.MethodDelete, "/api/v1/orders/"+id+"/items/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ORDER_ITEM_NOT_FOUND", problem["type"])

	code, order = c.do(http.MethodDelete, "/api/v1/orders/"+id+"/items/1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, order["items"], 1)

	code, order = c.do(http.MethodDelete, "/api/v1/orders/"+id+"/items", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, order["items"])

	code, problem = c.do(http.MethodPost, "/api/v1/orders/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ORDER_EMPTY", problem["type"])
}

func TestRequestValidationOverHTTP(t *testing.T) {
	c := newClient(t)

	code, problem := c.do(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", problem["type"])

	code, _ = c.do(http.MethodGet, "/api/v1/orders/7f9c1a52-3a39-4d52-9d49-0b4f5d8e1a11", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodPost, "/api/v1/orders", map[string]any{"table_id": 42})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodPost, "/api/v1/orders", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	id := c.startWithItems(t)
	code, problem = c.do(http.MethodGet, "/api/v1/orders/"+id+"/timeline?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PAGINATION", problem["type"])
	for _, q := range []string{"limit=abc", "offset=x", "limit=10&offset=1.5"} {
		code, problem = c.do(http.MethodGet, "/api/v1/orders/"+id+"/timeline?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, code, q)
		assert.Equal(t, "INVALID_PAGINATION", problem["type"], q)
	}

	code, problem = c.do(http.MethodPost, "/api/v1/tickets/7f9c1a52-3a39-4d52-9d49-0b4f5d8e1a11/status", map[string]any{"action": "fry"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ACTION", problem["type"])
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	mem := memory.NewStore()
	srv := Wire(config.Default(), mem.Repositories(), notificator.NewLogNotifier(log),
		func() error { return errors.New("broker unreachable") }, log, nil)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "broker unreachable")
}
