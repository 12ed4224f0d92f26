package logger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var allowedMetadata = map[string]bool{
	"content-type":  true,
	"user-agent":    true,
	"x-trace-id":    true,
	"x-request-id":  true,
	"traceparent":   true,
	"authorization": true, // redacted
}

// MetadataAttrs converts gRPC metadata into []slog.Attr (grpc.header.*).
func MetadataAttrs(md metadata.MD) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(md))
	for k, vs := range md {
		lower := strings.ToLower(k)
		if !allowedMetadata[lower] {
			continue
		}
		v := strings.Join(vs, ", ")
		if lower == "authorization" {
			v = "***"
		}
		attrs = append(attrs, slog.String("grpc.header."+lower, v))
	}
	return attrs
}

// messageAttrs flattens a protobuf message into attrs under prefix.
// Non-proto values are stringified.
func messageAttrs(prefix string, m any) []slog.Attr {
	if m == nil {
		return nil
	}
	if pm, ok := m.(proto.Message); ok {
		if b, err := protojson.Marshal(pm); err == nil {
			if attrs, err := jsonAttrs(b); err == nil {
				return renamePrefix(attrs, "http.body", prefix)
			}
		}
	}
	return []slog.Attr{slog.String(prefix, redact(prefix, fmt.Sprintf("%v", m)))}
}

func renamePrefix(attrs []slog.Attr, from, to string) []slog.Attr {
	for i := range attrs {
		attrs[i].Key = to + strings.TrimPrefix(attrs[i].Key, from)
	}
	return attrs
}

// LogGRPCRequest builds attributes for a unary call; fullMethod is "/package.Service/Method".
func LogGRPCRequest(fullMethod, remote string, md metadata.MD, req any) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", "incoming::request"),
		slog.String("grpc.method", fullMethod),
		slog.String("grpc.remote", remote),
	}
	attrs = append(attrs, MetadataAttrs(md)...)
	attrs = append(attrs, messageAttrs("grpc.request", req)...)
	return attrs
}

// LogGRPCResponse builds attributes for the outcome of a unary call.
func LogGRPCResponse(fullMethod string, code codes.Code, resp any, duration time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", "incoming::response"),
		slog.String("grpc.method", fullMethod),
		slog.String("grpc.code", code.String()),
		slog.Int64("grpc.duration_ms", duration.Milliseconds()),
	}
	attrs = append(attrs, messageAttrs("grpc.response", resp)...)
	return attrs
}
