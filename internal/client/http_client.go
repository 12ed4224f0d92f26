package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"product-catalog/internal/logger"
	"product-catalog/internal/model"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// APIError is a non-2xx answer from the catalog.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog responded %d: %s", e.StatusCode, e.Message)
}

// CatalogClient talks to the product catalog HTTP API and propagates the
// caller's trace context.
type CatalogClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

type PageResult struct {
	Message    string           `json:"message"`
	Products   []model.Product  `json:"products"`
	Pagination model.Pagination `json:"pagination"`
}

type ProductResult struct {
	Message string         `json:"message"`
	Product *model.Product `json:"product"`
}

type CategoriesResult struct {
	Message    string   `json:"message"`
	Categories []string `json:"categories"`
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

func (c *CatalogClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// List fetches one page of /product/get. Zero values are omitted.
func (c *CatalogClient) List(ctx context.Context, page int, search, category string) (*PageResult, error) {
	q := url.Values{}
	setPage(q, page)
	setNonEmpty(q, "search", search)
	setNonEmpty(q, "category", category)

	var out PageResult
	if err := c.do(ctx, http.MethodGet, "/product/get", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CatalogClient) Search(ctx context.Context, query string, page int) (*PageResult, error) {
	q := url.Values{"query": {query}}
	setPage(q, page)

	var out PageResult
	if err := c.do(ctx, http.MethodGet, "/product/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CatalogClient) Get(ctx context.Context, id string) (*model.Product, error) {
	var out ProductResult
	if err := c.do(ctx, http.MethodGet, "/product/get/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *CatalogClient) Categories(ctx context.Context) ([]string, error) {
	var out CategoriesResult
	if err := c.do(ctx, http.MethodGet, "/product", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func setPage(q url.Values, page int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
}

func setNonEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func (c *CatalogClient) do(ctx context.Context, method, path string, query url.Values, result any) error {
	ctx, span := HttpClientTracer.Start(ctx, "HttpClient."+method+" "+path)
	defer span.End()

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	// Inject standard otel headers
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	req.Header.Set("X-Trace-ID", span.SpanContext().TraceID().String())
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	logger.Debug(ctx, "HttpClient request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(rawBody))
		if json.Unmarshal(rawBody, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(rawBody) > 0 {
		if err := json.Unmarshal(rawBody, result); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
