package middleware_grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"product-catalog/internal/logger"
	"product-catalog/internal/telemetry"
)

var tracer = otel.Tracer("GrpcMiddleware")

// UnaryTracingInterceptor continues the caller's trace from incoming
// metadata, opens a span named after the full method and logs the call.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.GetTextMapPropagator().Extract(ctx, telemetry.MetadataTextMapCarrier(md.Copy()))

		ctx, span := tracer.Start(ctx, info.FullMethod)
		defer span.End()
		_ = grpc.SetTrailer(ctx, metadata.Pairs("x-trace-id", span.SpanContext().TraceID().String()))

		var remoteAddr string
		if p, ok := peer.FromContext(ctx); ok {
			remoteAddr = p.Addr.String()
		}

		logger.Debug(ctx, "GrpcMiddleware", logger.LogGRPCRequest(info.FullMethod, remoteAddr, md, req)...)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}

		logger.Debug(ctx, "GrpcMiddleware", logger.LogGRPCResponse(info.FullMethod, code, resp, time.Since(start))...)
		return resp, err
	}
}
