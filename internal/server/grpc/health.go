package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// WatchHealth pings storage every interval and publishes the result as the
// server-wide health status until ctx is done.
func (s *GRPCServer) WatchHealth(ctx context.Context) error {
	s.checkHealth(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.checkHealth(ctx)
		}
	}
}

func (s *GRPCServer) checkHealth(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(pingCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		if ctx.Err() == nil {
			s.logger.Warn(ctx, "storage ping failed", "error", err)
		}
	}

	if prev := s.status(ctx); prev != status {
		s.logger.Info(ctx, "health status changed", "from", prev.String(), "to", status.String())
	}
	s.health.SetServingStatus("", status)
}

func (s *GRPCServer) status(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.GetStatus()
}
