// Package server runs the HTTP and gRPC listeners shared by both services.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/store-inventory/internal/adapter/handler"
	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/logger"
)

const (
	shutdownTimeout = 5 * time.Second
	probeInterval   = 15 * time.Second
)

type Options struct {
	Name       string
	App        config.AppConfig
	Dispatcher handler.Dispatcher
	DB         handler.Pinger
	Registry   *prometheus.Registry
	Logger     *logger.Logger
}

// Run serves HTTP and gRPC health until ctx is cancelled or a listener
// fails, then stops both.
func Run(ctx context.Context, opts Options) error {
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	httpServer := &http.Server{
		Addr:              ":" + opts.App.HTTPPort,
		Handler:           handler.NewHTTPHandler(opts.Dispatcher, opts.DB, logg).Router(opts.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	health := handler.NewHealthReporter(opts.Name, opts.DB, logg)
	health.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+opts.App.GRPCPort)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info(logg.WithField(ctx, "addr", httpServer.Addr), "http.server.listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logg.Info(logg.WithField(ctx, "addr", lis.Addr().String()), "grpc.server.listening")
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		health.Run(ctx, probeInterval)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logg.Info(context.Background(), "server.shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	return g.Wait()
}
