package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"product-catalog/internal/cache"
	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/discovery"
	grpcHandler "product-catalog/internal/handler/grpc"
	handler "product-catalog/internal/handler/http"
	"product-catalog/internal/logger"
	"product-catalog/internal/media"
	"product-catalog/internal/messaging"
	middleware_grpc "product-catalog/internal/middleware/grpc"
	middleware_http "product-catalog/internal/middleware/http"
	"product-catalog/internal/publisher"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
	"product-catalog/internal/tracer"
	"product-catalog/internal/upload"
	"product-catalog/internal/utils"
	"product-catalog/internal/version"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(globalCtx, "Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Configure(cfg.LogLevel, cfg.RemoteLogHttpURI, cfg.AppName)
	config.LogLoaded(cfg)

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
		slog.Bool("gracefulShutdown", cfg.IsProduction()),
	)

	shutdownTelemetry, err := tracer.Init(globalCtx, tracer.Config{
		AppName:      cfg.AppName,
		Env:          cfg.Env,
		Version:      version.Version,
		TraceRpcURI:  cfg.RemoteTraceRpcURI,
		ProfilingURI: cfg.RemoteProfilingHttpURI,
	})
	if err != nil {
		logger.Error(globalCtx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTelemetry()

	db, err := database.Connect(globalCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Error(globalCtx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.WithoutCancel(globalCtx)); err != nil {
			logger.Error(globalCtx, "Failed to disconnect MongoDB", slog.String("error", err.Error()))
		}
	}()

	cloud, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.MediaFolder)
	if err != nil {
		logger.Error(globalCtx, "Failed to configure media host", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Optional dependencies stay as untyped nil interfaces when disabled.
	var (
		store       repository.ProductStore = repository.NewProductRepository(db.Database)
		events      service.EventPublisher
		redisPinger service.Pinger
		brokerCheck interface{ Healthy() bool }
	)

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(globalCtx, cfg.RedisAddr, time.Duration(cfg.RedisTTLSeconds)*time.Second)
		if err != nil {
			logger.Error(globalCtx, "Failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rc.Close()
		store = repository.NewCachedProductRepository(store, rc)
		redisPinger = rc
	}

	if cfg.AmqpURL != "" {
		mq, err := messaging.NewRabbitMQ(cfg.AmqpURL)
		if err != nil {
			logger.Error(globalCtx, "Failed to connect to RabbitMQ", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer mq.Close()
		pub, err := publisher.NewProductPublisher(mq)
		if err != nil {
			logger.Error(globalCtx, "Failed to declare event queue", slog.String("error", err.Error()))
			os.Exit(1)
		}
		events = pub
		brokerCheck = mq
	}

	// Wiring
	productService := service.NewProductService(store, cloud, events)
	productHandler := handler.NewProductHandler(productService, upload.NewStager(cfg.UploadDir, cfg.MaxUploadBytes))

	healthService := service.NewHealthService(db, redisPinger, brokerCheck)
	healthHandler := handler.NewHealthHandler(healthService)

	router := handler.NewRouter(handler.RouterConfig{
		CorsOrigins: cfg.CorsOrigins,
		Middlewares: []func(http.Handler) http.Handler{
			middleware_http.RequestID(),
			middleware_http.TraceMiddleware(),
		},
	}, productHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(globalCtx, "Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GrpcPort != "" {
		grpcServer = grpc.NewServer(
			grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()),
		)
		grpcHealth := grpcHandler.NewHealthHandler(healthService, cfg.AppName)
		healthpb.RegisterHealthServer(grpcServer, grpcHealth.Server)
		reflection.Register(grpcServer)
		go grpcHealth.Watch(globalCtx, 10*time.Second)

		lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
		if err != nil {
			logger.Error(globalCtx, "failed to listen", slog.String("error", err.Error()))
			os.Exit(1)
		}
		go func() {
			logger.Info(globalCtx, "gRPC health server running", slog.String("port", cfg.GrpcPort))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error(globalCtx, "failed to serve", slog.String("error", err.Error()))
			}
		}()
	}

	serviceID := cfg.AppName + "-" + utils.GetHost() + "-" + cfg.AppPort
	var consul *discovery.ConsulClient
	if cfg.ConsulAddr != "" {
		port, _ := strconv.Atoi(cfg.AppPort)
		consul, err = discovery.NewConsulClient(cfg.ConsulAddr)
		if err == nil {
			err = consul.Register(discovery.ServiceConfig{
				Name:    cfg.AppName,
				ID:      serviceID,
				Address: utils.GetHost(),
				Port:    port,
				Tags:    []string{"http", "catalog", cfg.Env},
			})
		}
		if err != nil {
			logger.Warn(globalCtx, "Service registration skipped", slog.String("error", err.Error()))
			consul = nil
		}
	}

	// Wait for shutdown signal
	<-globalCtx.Done()

	if consul != nil {
		if err := consul.Deregister(serviceID); err != nil {
			logger.Warn(globalCtx, "Failed to deregister service", slog.String("error", err.Error()))
		}
	}

	if !cfg.IsProduction() {
		logger.Info(globalCtx, "Received shutdown signal, exiting immediately")
		return
	}

	logger.Info(globalCtx, "Shutting down servers")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(globalCtx, "HTTP shutdown failed", slog.String("error", err.Error()))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info(globalCtx, "Servers exited cleanly")
}
