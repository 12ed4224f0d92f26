package service

import (
	"context"
	"time"

	"product-catalog/internal/logger"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// Pinger is satisfied by the mongo client wrapper and the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthService struct {
	mongo  Pinger
	redis  Pinger
	broker interface{ Healthy() bool }
}

type HealthStatus struct {
	Mongo    string
	Redis    string
	RabbitMQ string
}

// Up is false when any enabled dependency is down.
func (h HealthStatus) Up() bool {
	return h.Mongo != StatusDown && h.Redis != StatusDown && h.RabbitMQ != StatusDown
}

var HealthServiceTracer = otel.Tracer("HealthService")

// NewHealthService checks mongo always; redis and broker only when non-nil.
func NewHealthService(mongo Pinger, redis Pinger, broker interface{ Healthy() bool }) *HealthService {
	return &HealthService{
		mongo:  mongo,
		redis:  redis,
		broker: broker,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()
	logger.Debug(ctx, "Service")

	status := HealthStatus{Mongo: ping(ctx, s.mongo)}
	if s.redis != nil {
		status.Redis = ping(ctx, s.redis)
	}
	if s.broker != nil {
		status.RabbitMQ = StatusUp
		if !s.broker.Healthy() {
			status.RabbitMQ = StatusDown
		}
	}

	return status
}

func ping(ctx context.Context, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return StatusDown
	}
	return StatusUp
}
