package rpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"ricks/native/vault"
)

// HealthService is the service name reported for the vault as a whole.
const HealthService = "ricks.vault"

const healthRefresh = 5 * time.Second

var healthModules = []string{vault.ModuleAuction, vault.ModuleStaking, vault.ModuleBuyout}

// refreshHealth publishes one status per module. A paused module reports
// NOT_SERVING.
func (s *Server) refreshHealth(hs *health.Server) {
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	for _, module := range healthModules {
		status := healthpb.HealthCheckResponse_SERVING
		if s.vault.Paused(module) {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus(HealthService+"."+module, status)
	}
}

// ServeHealth runs the standard gRPC health service on lis until ctx is
// cancelled.
func (s *Server) ServeHealth(ctx context.Context, lis net.Listener) error {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(otelgrpc.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(otelgrpc.StreamServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	s.refreshHealth(hs)

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("health listening", "addr", lis.Addr().String())
		serverErr <- grpcServer.Serve(lis)
	}()

	ticker := time.NewTicker(healthRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshHealth(hs)
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("rpc: serve health: %w", err)
			}
			return nil
		case <-ctx.Done():
			hs.Shutdown()
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				grpcServer.Stop()
			}
			return nil
		}
	}
}
