package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rl1809/store-inventory/internal/adapter/handler"
	"github.com/rl1809/store-inventory/internal/adapter/storage"
	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/logger"
	"github.com/rl1809/store-inventory/internal/metrics"
	"github.com/rl1809/store-inventory/internal/server"
)

const serviceName = "store-service"

var defaultPorts = config.Ports{HTTP: "8080", GRPC: "50051"}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(defaultPorts)
	if err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).Error(context.Background(), "config.load.failed", err)
		os.Exit(1)
	}

	logg := logger.ForService(serviceName, cfg.App.LogLevel, cfg.App.LogFormat)

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "server.stopped", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "server.stopped")
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()
	logg.Info(logg.WithField(ctx, "driver", cfg.DB.Driver), "db.connected")

	adapter, err := storage.NewAdapter(cfg.DB.Driver, db)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, cfg.DB.Name))
	rec := metrics.New(reg, serviceName)

	storeHandler := handler.NewStoreHandler(service.NewStoreService(adapter), logg, rec)

	return server.Run(ctx, server.Options{
		Name:       serviceName,
		App:        cfg.App,
		Dispatcher: storeHandler,
		DB:         adapter,
		Registry:   reg,
		Logger:     logg,
	})
}
