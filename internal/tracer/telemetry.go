package tracer

import (
	"context"
	"log/slog"
	"os"

	"product-catalog/internal/logger"

	"github.com/go-faster/errors"
	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config selects the telemetry backends. Empty URIs fall back to stdout
// traces and no profiling.
type Config struct {
	AppName      string
	Env          string
	Version      string
	TraceRpcURI  string
	ProfilingURI string
}

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}()

func newExporter(ctx context.Context, cfg Config) (trace.SpanExporter, error) {
	if cfg.TraceRpcURI == "" {
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	}
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.TraceRpcURI),
		otlptracegrpc.WithCompressor("gzip"),
	)
}

// Init installs the global tracer provider and propagators and starts the
// profiler. The returned func flushes and stops both.
func Init(ctx context.Context, cfg Config) (func(), error) {
	log := logger.Instance()

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return func() {}, errors.Wrap(err, "create span exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			semconv.ServiceVersionKey.String(cfg.Version),
			attribute.String("env", cfg.Env),
		),
	)
	if err != nil {
		return func() {}, errors.Wrap(err, "create resource")
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry Tracer initialized", slog.Bool("otlp", cfg.TraceRpcURI != ""))

	var profiler *pyroscope.Profiler
	if cfg.ProfilingURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.ProfilingURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"env": cfg.Env},
		})
		if err != nil {
			log.Error("Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			log.Info("Pyroscope started successfully")
		}
	}

	return func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error("Error shutting down tracer provider", slog.String("error", err.Error()))
		}
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", slog.String("error", err.Error()))
			}
		}
	}, nil
}
