package middleware_http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"product-catalog/internal/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithRequestID(t *testing.T, incoming string) (header, inContext string) {
	t.Helper()

	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/product/get", nil)
	if incoming != "" {
		req.Header.Set(RequestIDHeader, incoming)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec.Header().Get(RequestIDHeader), seen
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	header, seen := serveWithRequestID(t, "abc-123")

	assert.Equal(t, "abc-123", header)
	assert.Equal(t, "abc-123", seen)
}

func TestRequestID_GeneratesWhenMissingOrInvalid(t *testing.T) {
	for _, incoming := range []string{"", strings.Repeat("x", 129), "bad\x01id"} {
		header, seen := serveWithRequestID(t, incoming)

		_, err := uuid.Parse(header)
		require.NoError(t, err)
		assert.Equal(t, header, seen)
	}
}
