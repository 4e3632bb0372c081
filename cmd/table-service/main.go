package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"table-service/internal/app/order"
	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/config"
	"table-service/internal/microservices/notificator"
)

func main() {
	mode := flag.String("mode", "", "order-service | notification-subscriber")
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml if present)")
	port := flag.Int("port", 0, "order-service: http port")
	storage := flag.String("storage", order.StorageMemory, "order-service: memory | postgres")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		found, err := config.FindConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			lg.Error("config_lookup_failed", err, nil)
			os.Exit(1)
		}
		path = found
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}
	gin.SetMode(gin.ReleaseMode)

	switch *mode {
	case "order-service":
		if *port != 0 {
			cfg.HTTP.Port = *port
		}
		if err := cfg.Validate(*storage, *storage == order.StoragePostgres); err != nil {
			lg.Error("config_invalid", err, nil)
			os.Exit(2)
		}
		if err := order.Run(ctx, cfg, *storage, cfg.HTTP.Port); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if *port != 0 {
			cfg.Notify.Port = *port
		}
		if err := cfg.Validate("", true); err != nil {
			lg.Error("config_invalid", err, nil)
			os.Exit(2)
		}
		lg.Info("service_started", map[string]any{"service": "notification-subscriber", "port": cfg.Notify.Port})
		if err := notificator.Start(ctx, cfg, logger.New("notification-subscriber"), metrics.New()); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: order-service | notification-subscriber")
		os.Exit(2)
	}
}
