package grpc

import (
	"context"

	"github.com/cadencehq/beacon/pkg/internal/database"
	health "google.golang.org/grpc/health/grpc_health_v1"
)

func (v *Server) Check(ctx context.Context, _ *health.HealthCheckRequest) (*health.HealthCheckResponse, error) {
	status := health.HealthCheckResponse_SERVING
	if db, err := database.C.DB(); err != nil || db.PingContext(ctx) != nil {
		status = health.HealthCheckResponse_NOT_SERVING
	}

	return &health.HealthCheckResponse{Status: status}, nil
}

func (v *Server) Watch(in *health.HealthCheckRequest, srv health.Health_WatchServer) error {
	res, err := v.Check(srv.Context(), in)
	if err != nil {
		return err
	}
	return srv.Send(res)
}
