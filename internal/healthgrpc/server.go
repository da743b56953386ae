// Package healthgrpc exposes the recommender's readiness, as last seen by the
// dashboard, through the standard gRPC health checking protocol.
package healthgrpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"skillscope/dashboard/internal/model"
)

// ServiceName is the health service key that follows recommender readiness.
const ServiceName = "skillscope.Recommender"

// Server wraps a grpc.Server carrying only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New creates a Server. ServiceName reports NOT_SERVING until Update is called.
func New(opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Update maps st onto the serving status of ServiceName.
func (s *Server) Update(st model.ServiceStatus) {
	s.health.SetServingStatus(ServiceName, toServingStatus(st))
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("grpc health listening", "component", "healthgrpc", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains open RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func toServingStatus(st model.ServiceStatus) healthpb.HealthCheckResponse_ServingStatus {
	if st.Ready() {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
