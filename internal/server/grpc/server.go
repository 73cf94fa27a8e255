// Package grpc exposes the standard gRPC health service. Its status follows
// the storage probe: SERVING while the database answers pings, NOT_SERVING
// otherwise.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the empty (whole server) service name.
const ServiceName = "todokeeper"

// DefaultProbeInterval is used when NewHealthServer gets a non-positive one.
const DefaultProbeInterval = 5 * time.Second

// Pinger reports storage liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthServer struct {
	address  string
	logger   logging.Logger
	pinger   Pinger
	interval time.Duration
	health   *health.Server
}

func NewHealthServer(address string, l logging.Logger, p Pinger, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &HealthServer{
		address:  address,
		logger:   l.With("module", "grpc_health"),
		pinger:   p,
		interval: interval,
		health:   health.NewServer(),
	}
}

// Probe pings storage once and publishes the result.
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "storage probe failed", "error", err.Error())
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Check answers a health request the way a remote client would see it.
func (s *HealthServer) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func (s *HealthServer) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if st := s.Probe(ctx); st != last {
				s.logger.Info(ctx, "health status changed", "status", st.String())
				last = st
			}
		}
	}
}

// Run serves the health service until ctx is cancelled.
func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	// registers service
	healthpb.RegisterHealthServer(srv, s.health)

	probeCtx, stopProbe := context.WithCancel(ctx)
	defer stopProbe()
	go s.probeLoop(probeCtx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
