package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-catalog/internal/client"
	"product-catalog/internal/config"
	"product-catalog/internal/discovery"
	"product-catalog/internal/logger"
	"product-catalog/internal/tracer"
	"product-catalog/internal/version"

	"github.com/go-faster/errors"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.LoadClient()
	if err := cfg.RequireHTTPTarget(); err != nil {
		logger.Error(globalCtx, "Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Configure(cfg.LogLevel, cfg.RemoteLogHttpURI, cfg.AppName)

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdown, err := tracer.Init(globalCtx, tracer.Config{
		AppName:     cfg.AppName,
		Version:     version.Version,
		TraceRpcURI: cfg.RemoteTraceRpcURI,
	})
	if err != nil {
		logger.Error(globalCtx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdown()

	baseURL, err := resolveTarget(cfg)
	if err != nil {
		logger.Error(globalCtx, "Failed to resolve catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info(globalCtx, "HTTP client started",
		slog.String("target", baseURL),
		slog.Int64("delay_ms", cfg.ClientDelayMs),
	)

	catalog := client.NewCatalogClient(baseURL, 5*time.Second)
	catalog.SetDefaultHeader("User-Agent", cfg.AppName+"/"+version.Version)
	delay := time.Duration(cfg.ClientDelayMs) * time.Millisecond

	page := 1
	for {
		select {
		case <-globalCtx.Done():
			logger.Info(globalCtx, "Received shutdown signal, exiting")
			return
		case <-time.After(delay):
		}
		page = poll(globalCtx, catalog, page)
	}
}

// poll fetches one listing page and returns the next page to request,
// wrapping to 1 after the last page.
func poll(ctx context.Context, catalog *client.CatalogClient, page int) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := catalog.List(ctx, page, "", "")
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			logger.Warn(ctx, "Catalog returned error",
				slog.Int("status", apiErr.StatusCode),
				slog.String("message", apiErr.Message),
			)
		} else {
			logger.Error(ctx, "Failed to request", slog.String("error", err.Error()))
		}
		return 1
	}

	logger.Info(ctx, "Received products",
		slog.Int("page", res.Pagination.CurrentPage),
		slog.Int("count", len(res.Products)),
		slog.Int64("total", res.Pagination.TotalItems),
	)
	if page >= res.Pagination.TotalPages {
		return 1
	}
	return page + 1
}

func resolveTarget(cfg *config.ClientConfig) (string, error) {
	if cfg.CatalogURL != "" {
		return cfg.CatalogURL, nil
	}
	consul, err := discovery.NewConsulClient(cfg.ConsulAddr)
	if err != nil {
		return "", err
	}
	return consul.ServiceURL(cfg.CatalogService)
}
