package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"table-service/internal/domain"
	order "table-service/internal/microservices/order/service"
)

type startOrderReq struct {
	TableID      int64  `json:"table_id"`
	CustomerNote string `json:"customer_note"`
}

func (s *Server) startOrder(c *gin.Context) {
	var req startOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.TableID <= 0 {
		badRequest(c, "table_id is required")
		return
	}
	o, err := s.orders.StartOrder(c.Request.Context(), req.TableID, req.CustomerNote)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.NewOrderDTO(o))
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, err := s.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.NewOrderDTO(o))
}

func (s *Server) getTotal(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	total, err := s.orders.Total(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": id,
		"total":    total.Amount().StringFixed(2),
		"currency": total.Currency(),
	})
}

type noteReq struct {
	Note string `json:"note"`
}

func (s *Server) setCustomerNote(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req noteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	s.respondOrder(c)(s.orders.SetCustomerNote(c.Request.Context(), id, req.Note))
}

type addItemReq struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Currency   string          `json:"currency"`
	Quantity   int             `json:"quantity"`
	Note       string          `json:"note"`
}

func (s *Server) addItem(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	itemID, o, err := s.orders.AddItem(c.Request.Context(), id, order.AddItemRequest{
		MenuItemID: req.MenuItemID,
		Name:       req.Name,
		UnitPrice:  req.UnitPrice,
		Currency:   req.Currency,
		Quantity:   req.Quantity,
		Note:       req.Note,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item_id": itemID, "order": domain.NewOrderDTO(o)})
}

// updateItemReq changes the quantity, the note, or both. Quantity 0 removes the line.
type updateItemReq struct {
	Quantity *int    `json:"quantity"`
	Note     *string `json:"note"`
}

func (s *Server) updateItem(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.Quantity == nil && req.Note == nil {
		badRequest(c, "quantity or note is required")
		return
	}
	var (
		o   *domain.Order
		err error
	)
	if req.Note != nil {
		if o, err = s.orders.SetItemNote(c.Request.Context(), id, itemID, *req.Note); err != nil {
			s.fail(c, err)
			return
		}
	}
	if req.Quantity != nil {
		if o, err = s.orders.ChangeItemQuantity(c.Request.Context(), id, itemID, *req.Quantity); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, domain.NewOrderDTO(o))
}

func (s *Server) removeItem(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	s.respondOrder(c)(s.orders.RemoveItem(c.Request.Context(), id, itemID))
}

func (s *Server) clearItems(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	s.respondOrder(c)(s.orders.ClearItems(c.Request.Context(), id))
}

// transition adapts an argument-less order command.
func (s *Server) transition(cmd func(ctx context.Context, id uuid.UUID) (*domain.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		s.respondOrder(c)(cmd(c.Request.Context(), id))
	}
}

type payReq struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   string          `json:"method"`
}

func (s *Server) pay(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req payReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	s.respondOrder(c)(s.orders.Pay(c.Request.Context(), id, req.Amount, req.Currency, req.Method))
}

func (s *Server) respondOrder(c *gin.Context) func(*domain.Order, error) {
	return func(o *domain.Order, err error) {
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, domain.NewOrderDTO(o))
	}
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid order id")
		return uuid.Nil, false
	}
	return id, true
}

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid item id")
		return 0, false
	}
	return id, true
}
