package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"product-catalog/internal/config"
	"product-catalog/internal/logger"
	"product-catalog/internal/telemetry"
	"product-catalog/internal/tracer"
	"product-catalog/internal/version"

	"go.opentelemetry.io/otel"
)

// grpc-client probes the catalog's grpc.health.v1 endpoint on an interval
// and logs the serving status together with the server's trace id.
func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadClient()
	if err := cfg.RequireGrpcTarget(); err != nil {
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

	conn, err := grpc.NewClient(
		cfg.CatalogGrpc,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy":"round_robin"}`),
	)
	if err != nil {
		logger.Error(globalCtx, "Failed to connect to gRPC server",
			slog.String("error", err.Error()),
			slog.String("target", cfg.CatalogGrpc),
		)
		os.Exit(1)
	}
	defer func() {
		logger.Info(globalCtx, "Closing gRPC connection")
		_ = conn.Close()
	}()

	client := healthpb.NewHealthClient(conn)
	delay := time.Duration(cfg.ClientDelayMs) * time.Millisecond

	logger.Info(globalCtx, "gRPC client started",
		slog.String("target", cfg.CatalogGrpc),
		slog.String("service", cfg.CatalogService),
		slog.Int64("delay_ms", cfg.ClientDelayMs),
	)

	for {
		select {
		case <-globalCtx.Done():
			logger.Info(globalCtx, "Shutting down gRPC client")
			return
		case <-time.After(delay):
			probe(globalCtx, client, cfg.CatalogService)
		}
	}
}

var probeTracer = otel.Tracer("GrpcHealthProbe")

func probe(ctx context.Context, client healthpb.HealthClient, service string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ctx, span := probeTracer.Start(ctx, "GrpcHealthProbe.Check")
	defer span.End()

	md := metadata.MD{}
	otel.GetTextMapPropagator().Inject(ctx, telemetry.MetadataTextMapCarrier(md))
	ctx = metadata.NewOutgoingContext(ctx, md)

	var trailer metadata.MD
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service}, grpc.Trailer(&trailer))

	traceID := "empty"
	if ids := trailer.Get("x-trace-id"); len(ids) > 0 {
		traceID = ids[0]
	}

	if err != nil {
		logger.Error(ctx, "Health check failed",
			slog.String("error", err.Error()),
			slog.String("trace_id", traceID),
		)
		return
	}
	logger.Info(ctx, "Health check",
		slog.String("status", resp.GetStatus().String()),
		slog.String("trace_id", traceID),
	)
}
