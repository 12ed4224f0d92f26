package logger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// MaxBodyLogged caps how much of a body is read for logging (1 MiB).
const MaxBodyLogged = 1 << 20

// binarySample is how many bytes of an opaque body are logged.
const binarySample = 256

const masked = "***"

// header name -> masked
var loggedHeaders = map[string]bool{
	"content-type":   false,
	"content-length": false,
	"user-agent":     false,
	"origin":         false,
	"x-trace-id":     false,
	"x-request-id":   false,
	"traceparent":    false,
	"authorization":  true,
	"set-cookie":     true,
}

var sensitiveWords = []string{"password", "secret", "token", "api_key", "apikey"}

// redact masks value when either the key or the value mentions a credential.
func redact(key, value string) string {
	k, v := strings.ToLower(key), strings.ToLower(value)
	for _, w := range sensitiveWords {
		if strings.Contains(k, w) || strings.Contains(v, w) {
			return masked
		}
	}
	return value
}

// CaptureBody peeks at most MaxBodyLogged bytes of r.Body and hands the
// full, unconsumed stream back to r.Body.
func CaptureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyLogged))
	if err != nil {
		return nil, err
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head, nil
}

// HeaderAttrs keeps the allow-listed headers as http.header.<name>.
func HeaderAttrs(hdr http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(loggedHeaders))
	for name, values := range hdr {
		key := strings.ToLower(name)
		mask, ok := loggedHeaders[key]
		if !ok {
			continue
		}
		v := strings.Join(values, ", ")
		if mask {
			v = masked
		}
		attrs = append(attrs, slog.String("http.header."+key, v))
	}
	return attrs
}

// QueryAttrs flattens url.Values into http.query.<key>.
func QueryAttrs(q url.Values) []slog.Attr {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		if vs := q[k]; len(vs) > 0 {
			attrs = append(attrs, slog.String("http.query."+k, redact(k, strings.Join(vs, ","))))
		}
	}
	return attrs
}

type bodyDecoder func(body []byte) ([]slog.Attr, error)

var bodyDecoders = map[string]bodyDecoder{
	"application/json":                  jsonAttrs,
	"application/x-www-form-urlencoded": formAttrs,
}

// DecodeBody turns a captured body into attrs according to its content type.
// Unknown types are logged as a base64 sample.
func DecodeBody(contentType string, body []byte) ([]slog.Attr, error) {
	if len(body) == 0 {
		return nil, nil
	}
	ct, _, _ := mime.ParseMediaType(contentType)
	if decode, ok := bodyDecoders[ct]; ok {
		return decode(body)
	}
	return binaryAttrs(body), nil
}

func jsonAttrs(b []byte) ([]slog.Attr, error) {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String("http.body", string(b))}, nil
	}
	var attrs []slog.Attr
	flattenJSON("http.body", data, &attrs)
	return attrs, nil
}

// flattenJSON emits one attr per scalar leaf. Arrays contribute only their
// first and last element.
func flattenJSON(prefix string, v any, dst *[]slog.Attr) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flattenJSON(prefix+"."+k, child, dst)
		}
	case []any:
		if len(t) == 0 {
			return
		}
		flattenJSON(prefix+".0", t[0], dst)
		if last := len(t) - 1; last > 0 {
			flattenJSON(prefix+"."+strconv.Itoa(last), t[last], dst)
		}
	case string:
		*dst = append(*dst, slog.String(prefix, redact(prefix, t)))
	case float64:
		*dst = append(*dst, slog.Float64(prefix, t))
	case bool:
		*dst = append(*dst, slog.Bool(prefix, t))
	case nil:
	default:
		*dst = append(*dst, slog.String(prefix, fmt.Sprint(t)))
	}
}

func formAttrs(b []byte) ([]slog.Attr, error) {
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, err
	}
	attrs := make([]slog.Attr, 0, len(vals))
	for k, v := range vals {
		attrs = append(attrs, slog.String("http.body."+k, redact(k, strings.Join(v, ", "))))
	}
	return attrs, nil
}

func binaryAttrs(b []byte) []slog.Attr {
	if len(b) <= binarySample {
		return []slog.Attr{slog.String("http.body.base64", base64.StdEncoding.EncodeToString(b))}
	}
	return []slog.Attr{
		slog.Int("http.body.size_bytes", len(b)),
		slog.String("http.body.sample_base64", base64.StdEncoding.EncodeToString(b[:binarySample])),
	}
}

func isMultipart(contentType string) bool {
	ct, _, _ := mime.ParseMediaType(contentType)
	return strings.HasPrefix(ct, "multipart/")
}

func baseAttrs(r *http.Request, direction string) []slog.Attr {
	return []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}
}

func appendBody(attrs []slog.Attr, contentType string, body []byte) []slog.Attr {
	decoded, err := DecodeBody(contentType, body)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	return append(attrs, decoded...)
}

// LogHTTPRequest describes an incoming request. Multipart bodies (image
// uploads) are not read; only their declared size is recorded.
func LogHTTPRequest(_ context.Context, r *http.Request, direction string) []slog.Attr {
	attrs := baseAttrs(r, direction)
	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)

	ct := r.Header.Get("Content-Type")
	if isMultipart(ct) {
		return append(attrs, slog.Int64("http.body.size_bytes", r.ContentLength))
	}
	if body, err := CaptureBody(r); err == nil && len(body) > 0 {
		attrs = appendBody(attrs, ct, body)
	}
	return attrs
}

// LogHTTPResponse describes the response written for req.
func LogHTTPResponse(_ context.Context, req *http.Request, responseHeader http.Header, responseStatus int, responseBody io.Reader, durationMs int64, direction string) []slog.Attr {
	attrs := baseAttrs(req, direction)
	attrs = append(attrs,
		slog.Int("http.status", responseStatus),
		slog.Int64("duration_ms", durationMs),
	)
	attrs = append(attrs, HeaderAttrs(responseHeader)...)

	if responseBody == nil {
		return attrs
	}
	body, err := io.ReadAll(responseBody)
	if err == nil && len(body) > 0 {
		attrs = appendBody(attrs, responseHeader.Get("Content-Type"), body)
	}
	return attrs
}
