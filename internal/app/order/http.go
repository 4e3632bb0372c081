// Package order assembles the order service: storage, event handlers, notifiers and the HTTP API.
package order

import (
	"context"
	"fmt"

	"table-service/internal/api"
	"table-service/internal/common/httpx"
	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/config"
	"table-service/internal/connections/database"
	"table-service/internal/connections/rabbitmq"
	"table-service/internal/events"
	kitchen "table-service/internal/microservices/kitchen/service"
	"table-service/internal/microservices/notificator"
	ordersvc "table-service/internal/microservices/order/service"
	tracker "table-service/internal/microservices/tracker/service"
	"table-service/internal/repository"
	"table-service/internal/repository/memory"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Notifier is implemented by both the broker publisher and the log notifier.
type Notifier interface {
	notificator.CustomerNotifier
	notificator.KitchenTicketNotifier
}

// Wire builds the services on top of store and registers the event handlers in delivery order:
// timeline, kitchen, customer notifications, table release.
func Wire(cfg *config.Config, store repository.Store, notifier Notifier, health api.HealthFunc,
	log *logger.Logger, m *metrics.Metrics) *api.Server {
	d := events.NewDispatcher(log.With(map[string]any{"component": "dispatcher"}),
		events.WithStrict(cfg.Dispatch.Strict), events.WithMetrics(m))

	trackerSvc := tracker.NewTrackerService(store.Orders, store.Timeline, log)
	kitchenSvc := kitchen.NewKitchenService(store, d, notifier, log.With(map[string]any{"component": "kitchen"}), m)
	orderSvc := ordersvc.NewOrderService(store, d, cfg.Order.Currency, log, m)
	handlers := ordersvc.NewHandlers(notifier, store.Orders, store.Tables, log)

	trackerSvc.Register(d)
	kitchenSvc.Register(d)
	handlers.Register(d)

	return api.NewServer(orderSvc, kitchenSvc, trackerSvc, m, health, log)
}

// Run serves the order API until ctx is done.
func Run(ctx context.Context, cfg *config.Config, storage string, port int) error {
	log := logger.New("order-service")
	m := metrics.New()

	var (
		store    repository.Store
		notifier Notifier
		health   api.HealthFunc
	)
	switch storage {
	case StorageMemory:
		mem := memory.NewStore()
		for _, t := range cfg.Tables {
			mem.AddTable(repository.Table{ID: t.ID, Code: t.Code, Name: t.Name})
		}
		store = mem.Repositories()
		notifier = notificator.NewLogNotifier(log.With(map[string]any{"component": "notifier"}))
	case StoragePostgres:
		pool, err := database.ConnectDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Database})
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}
			if err := database.SeedTables(ctx, pool, cfg.Tables); err != nil {
				return err
			}
		}
		store = repository.NewPGStore(pool)

		rmq, err := rabbitmq.Dial(ctx, cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer rmq.Close()
		if err := rmq.DeclareTopology(); err != nil {
			return err
		}
		log.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "exchange": rabbitmq.NotificationsExchange})
		notifier = notificator.NewPublisher(rmq, log.With(map[string]any{"component": "publisher"}), m)
		health = func() error {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			return rmq.Ping()
		}
	default:
		return fmt.Errorf("unknown storage %q: memory | postgres", storage)
	}

	srv := Wire(cfg, store, notifier, health, log, m)
	log.Info("service_started", map[string]any{"port": port, "storage": storage})
	return httpx.New(port, srv.Engine()).Run(ctx)
}
