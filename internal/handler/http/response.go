package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"product-catalog/internal/logger"
	"product-catalog/internal/service"
)

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(ctx, "Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, map[string]string{"error": message})
}

// writeServiceError maps service error kinds to 400/404/500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case service.KindNotFound:
		writeError(ctx, w, http.StatusNotFound, err.Error())
	default:
		logger.Error(ctx, "Upstream failure", slog.String("error", err.Error()))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
	}
}
