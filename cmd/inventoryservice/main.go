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
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/store-inventory/internal/adapter/handler"
	"github.com/rl1809/store-inventory/internal/adapter/storage"
	"github.com/rl1809/store-inventory/internal/adapter/storeclient"
	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/logger"
	"github.com/rl1809/store-inventory/internal/metrics"
	"github.com/rl1809/store-inventory/internal/port"
	"github.com/rl1809/store-inventory/internal/server"
)

const serviceName = "inventory-service"

// Next to the store service's, so both can run on one host.
var defaultPorts = config.Ports{HTTP: "8081", GRPC: "50052"}

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

	if cfg.StoreService.URL == "" {
		// every addItemToStore will be rejected until this is set
		logg.Warn(ctx, "store_service.url.missing")
	}

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

	var idem port.IdempotencyRepository
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		redisAdapter := storage.NewRedisAdapter(rdb, cfg.Redis.IdempotencyTTL)
		if err := redisAdapter.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logg.Info(logg.WithField(ctx, "addr", cfg.Redis.Addr), "redis.connected")
		idem = redisAdapter
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, cfg.DB.Name))
	rec := metrics.New(reg, serviceName)

	stores := storeclient.New(cfg.StoreService, logg, rec)
	inventoryService := service.NewInventoryService(adapter, stores, idem, service.InventoryOptions{
		StrictValidation: cfg.StoreService.Strict,
	})
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logg, rec)

	return server.Run(ctx, server.Options{
		Name:       serviceName,
		App:        cfg.App,
		Dispatcher: inventoryHandler,
		DB:         adapter,
		Registry:   reg,
		Logger:     logg,
	})
}
