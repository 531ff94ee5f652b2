package server

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported by the gRPC health service in addition to
// the overall "" entry.
const ServiceName = "we-share"

// ProbeInterval is how often the store is checked.
const ProbeInterval = 15 * time.Second

// Probe checks a dependency and returns nil while it is usable.
type Probe func(ctx context.Context) error

// AllHealthy combines checks into one that reports the first failure.
func AllHealthy(checks ...Probe) Probe {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// HealthServer exposes grpc.health.v1 and keeps its status in line with the
// graph store.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	probe      Probe
	interval   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	serving bool
}

func NewHealthServer(probe Probe, interval time.Duration, logger *zap.Logger) *HealthServer {
	h := &HealthServer{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		probe:      probe,
		interval:   interval,
		logger:     logger.Named("health"),
	}
	healthpb.RegisterHealthServer(h.grpcServer, h.health)
	reflection.Register(h.grpcServer)
	h.set(false)
	return h
}

func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	return h.grpcServer.Serve(lis)
}

// Run probes immediately and then every interval until ctx is done.
func (h *HealthServer) Run(ctx context.Context) {
	h.check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

func (h *HealthServer) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()
	err := h.probe(probeCtx)
	if err != nil && ctx.Err() == nil {
		h.logger.Warn("health probe failed", zap.Error(err))
	}
	h.set(err == nil)
}

func (h *HealthServer) set(serving bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.serving != serving {
		h.logger.Info("health status changed", zap.Bool("serving", serving))
	}
	h.serving = serving

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Serving reports the result of the last probe.
func (h *HealthServer) Serving() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.serving
}

// Stop marks the service as not serving and stops the gRPC server.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpcServer.GracefulStop()
}
