package notificator

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"table-service/internal/common/httpx"
	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/config"
	"table-service/internal/connections/rabbitmq"
)

// Start runs the notification subscriber: the queue consumer and the websocket endpoints
// /ws/customer and /ws/kitchen.
func Start(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) error {
	client, err := rabbitmq.Dial(ctx, cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.DeclareTopology(); err != nil {
		return err
	}
	deliveries, err := client.Consume(rabbitmq.NotificationsQueue, "notification-subscriber", cfg.Notify.Prefetch)
	if err != nil {
		return fmt.Errorf("consume %s: %w", rabbitmq.NotificationsQueue, err)
	}

	hub := NewHub(log)
	defer hub.Close()
	sub := NewSubscriber(hub, log, m)

	mux := http.NewServeMux()
	mux.Handle("/ws/"+ChannelCustomer, hub.Handler(ChannelCustomer))
	mux.Handle("/ws/"+ChannelKitchen, hub.Handler(ChannelKitchen))
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := client.Ping(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sub.Run(gctx, deliveries) })
	g.Go(func() error { return httpx.New(cfg.Notify.Port, mux).Run(gctx) })

	log.Info("notification_subscriber_started", map[string]any{"port": cfg.Notify.Port, "queue": rabbitmq.NotificationsQueue})
	return g.Wait()
}
