package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"table-service/internal/common/apperr"
)

type changeTicketStatusReq struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (s *Server) changeTicketStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid ticket id")
		return
	}
	var req changeTicketStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	dto, err := s.kitchen.ChangeTicketStatus(c.Request.Context(), id, req.Action, req.Reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (s *Server) listTickets(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	tickets, err := s.kitchen.ListTickets(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "tickets": tickets})
}

func (s *Server) getStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	v, err := s.tracker.GetOrderView(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) getTimeline(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	limit, err := pageParam(c, "limit")
	if err != nil {
		s.fail(c, err)
		return
	}
	offset, err := pageParam(c, "offset")
	if err != nil {
		s.fail(c, err)
		return
	}
	events, err := s.tracker.GetOrderTimeline(c.Request.Context(), id, limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "events": events})
}

// pageParam reads an optional integer query parameter. Absent means zero.
func pageParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.WithMetadata(apperr.CodeInvalidPagination, name+" must be an integer",
			map[string]string{name: raw})
	}
	return n, nil
}
