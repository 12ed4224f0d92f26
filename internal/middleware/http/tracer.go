package middleware_http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"product-catalog/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("HttpMiddleware")

// recorder remembers the status code and keeps the first
// logger.MaxBodyLogged bytes of the response body.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if room := logger.MaxBodyLogged - rec.body.Len(); room > 0 {
		rec.body.Write(b[:min(room, len(b))])
	}
	return rec.ResponseWriter.Write(b)
}

func spanStatus(code int) (codes.Code, string) {
	if code >= http.StatusBadRequest {
		return codes.Error, http.StatusText(code)
	}
	return codes.Ok, ""
}

// TraceMiddleware opens a server span per request, continuing an incoming
// W3C trace if present. The trace id is echoed in X-Trace-ID and request
// and response are logged. Span names use the chi route pattern once routed.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			defer func() {
				if v := recover(); v != nil {
					span.RecordError(fmt.Errorf("panic: %v", v))
					span.SetStatus(codes.Error, "panic")
					panic(v)
				}
			}()

			logger.Info(ctx, "HTTP", logger.LogHTTPRequest(ctx, r, "incoming::request")...)

			rec := newRecorder(w)
			rec.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())
			start := time.Now()

			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(r.Method + " " + pattern)
					span.SetAttributes(attribute.String("http.route", pattern))
				}
			}
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", rec.status),
			)
			span.SetStatus(spanStatus(rec.status))

			logger.Info(ctx, "HTTP", logger.LogHTTPResponse(ctx, r, rec.Header(), rec.status, &rec.body,
				time.Since(start).Milliseconds(), "incoming::response")...)
		})
	}
}
