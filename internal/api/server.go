package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	kitchen "table-service/internal/microservices/kitchen/service"
	order "table-service/internal/microservices/order/service"
	tracker "table-service/internal/microservices/tracker/service"
)

// HealthFunc reports whether a dependency is usable.
type HealthFunc func() error

type Server struct {
	engine  *gin.Engine
	orders  order.OrderServiceInterface
	kitchen kitchen.KitchenServiceInterface
	tracker tracker.TrackerServiceInterface
	metrics *metrics.Metrics
	health  HealthFunc
	log     *logger.Logger
}

func NewServer(orders order.OrderServiceInterface, kitchen kitchen.KitchenServiceInterface,
	tracker tracker.TrackerServiceInterface, m *metrics.Metrics, health HealthFunc, log *logger.Logger) *Server {
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())
	s := &Server{engine: r, orders: orders, kitchen: kitchen, tracker: tracker, metrics: m, health: health, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.engine.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		orders.POST("", s.startOrder)
		orders.GET(":id", s.getOrder)
		orders.GET(":id/total", s.getTotal)
		orders.PUT(":id/note", s.setCustomerNote)

		orders.POST(":id/items", s.addItem)
		orders.DELETE(":id/items", s.clearItems)
		orders.PATCH(":id/items/:itemId", s.updateItem)
		orders.DELETE(":id/items/:itemId", s.removeItem)

		orders.POST(":id/submit", s.transition(s.orders.Submit))
		orders.POST(":id/in-progress", s.transition(s.orders.MarkInProgress))
		orders.POST(":id/ready", s.transition(s.orders.MarkReady))
		orders.POST(":id/served", s.transition(s.orders.MarkServed))
		orders.POST(":id/cancel", s.transition(s.orders.Cancel))
		orders.POST(":id/cash-request", s.transition(s.orders.RequestCashPayment))
		orders.POST(":id/transfer", s.transition(s.orders.MarkPaidByTransfer))
		orders.POST(":id/pay", s.pay)

		orders.GET(":id/tickets", s.listTickets)
		orders.GET(":id/status", s.getStatus)
		orders.GET(":id/timeline", s.getTimeline)

		tickets := v1.Group("/tickets")
		tickets.POST(":id/status", s.changeTicketStatus)
	}
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(); err != nil {
			writeProblem(c, http.StatusServiceUnavailable, "unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Debug("http_request", map[string]any{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(started).Milliseconds(),
		})
	}
}
