package http

import (
	"net/http"

	"product-catalog/internal/logger"
	"product-catalog/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthHandler struct {
	service *service.HealthService
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Debug(ctx, "HttpHealthHandler")

	status := h.service.Check(ctx)

	data := map[string]string{"mongodb": status.Mongo}
	if status.Redis != "" {
		data["redis"] = status.Redis
	}
	if status.RabbitMQ != "" {
		data["rabbitmq"] = status.RabbitMQ
	}

	overall, code := service.StatusUp, http.StatusOK
	if !status.Up() {
		overall, code = service.StatusDown, http.StatusInternalServerError
	}

	writeJSON(ctx, w, code, map[string]any{
		"status": overall,
		"data":   data,
	})
}
