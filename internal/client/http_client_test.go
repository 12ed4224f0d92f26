package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogClient_List(t *testing.T) {
	var gotPath, gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAgent = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"message": "Products fetched successfully",
			"products": [{"_id": "665f1c2b9d1e8a0012345678", "title": "Phone", "price": 10}],
			"pagination": {"currentPage": 2, "totalPages": 3, "totalItems": 20, "itemsPerPage": 8}
		}`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL+"/", time.Second)
	c.SetDefaultHeader("User-Agent", "probe/1")

	res, err := c.List(context.Background(), 2, "", "Electronics")
	require.NoError(t, err)

	assert.Equal(t, "/product/get", gotPath)
	assert.Equal(t, "category=Electronics&page=2", gotQuery)
	assert.Equal(t, "probe/1", gotAgent)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "665f1c2b9d1e8a0012345678", res.Products[0].ID.Hex())
	assert.Equal(t, 3, res.Pagination.TotalPages)
}

func TestCatalogClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"No product found"}`))
	}))
	defer srv.Close()

	_, err := NewCatalogClient(srv.URL, time.Second).Get(context.Background(), "abc")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "No product found", apiErr.Message)
}

func TestCatalogClient_Categories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"ok","categories":["Books","Toys"]}`))
	}))
	defer srv.Close()

	categories, err := NewCatalogClient(srv.URL, time.Second).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Toys"}, categories)
}
