package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/store-inventory/internal/logger"
)

// HealthReporter serves the standard gRPC health protocol and keeps the
// status in step with the datastore.
type HealthReporter struct {
	server  *health.Server
	service string
	db      Pinger
	logg    *logger.Logger
}

func NewHealthReporter(service string, db Pinger, logg *logger.Logger) *HealthReporter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &HealthReporter{server: health.NewServer(), service: service, db: db, logg: logg}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Probe pings the datastore once and publishes the result under both the
// empty service name and the reporter's own.
func (h *HealthReporter) Probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.db.Ping(pingCtx)
		cancel()
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			h.logg.Error(ctx, "health.probe.failed", err)
		}
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(h.service, status)
}

// Run probes on every tick until ctx is done, then marks everything as not
// serving.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Probe(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

func (h *HealthReporter) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
