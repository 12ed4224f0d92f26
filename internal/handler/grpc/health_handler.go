package grpc

import (
	"context"
	"log/slog"
	"time"

	"product-catalog/internal/logger"
	"product-catalog/internal/service"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthChecker is satisfied by service.HealthService.
type HealthChecker interface {
	Check(ctx context.Context) service.HealthStatus
}

// HealthHandler mirrors the HTTP health check onto the standard
// grpc.health.v1 service for the overall server and for serviceName.
type HealthHandler struct {
	*health.Server
	checker     HealthChecker
	serviceName string
}

var GrpcHealthHandlerTracer = otel.Tracer("GrpcHealthHandler")

func NewHealthHandler(checker HealthChecker, serviceName string) *HealthHandler {
	return &HealthHandler{
		Server:      health.NewServer(),
		checker:     checker,
		serviceName: serviceName,
	}
}

// Refresh runs one check and publishes the result.
func (h *HealthHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, span := GrpcHealthHandlerTracer.Start(ctx, "GrpcHealthHandler.Refresh")
	defer span.End()

	status := healthpb.HealthCheckResponse_SERVING
	if st := h.checker.Check(ctx); !st.Up() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn(ctx, "Dependency down",
			slog.String("mongodb", st.Mongo),
			slog.String("redis", st.Redis),
			slog.String("rabbitmq", st.RabbitMQ),
		)
	}

	h.SetServingStatus("", status)
	h.SetServingStatus(h.serviceName, status)
	return status
}

// Watch refreshes every interval until ctx is done, then marks the server
// as shutting down.
func (h *HealthHandler) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}
