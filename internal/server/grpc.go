package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the service name whose status the gRPC health server reports.
const HealthServiceName = "farmgate.v1.Navigation"

// RegisterServices registers the gRPC services with s and returns the health server whose
// status the caller keeps current (see health.Checker.Watch).
func RegisterServices(s grpc.ServiceRegistrar) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

// NewGRPCServer returns a gRPC server instrumented with otelgrpc and the registered health
// service. Statuses start NOT_SERVING until the first readiness check.
func NewGRPCServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	return s, RegisterServices(s)
}
