package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"product-catalog/internal/model"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
	"product-catalog/internal/upload"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mock implementations ---

type mockProductService struct {
	createIn    model.ProductInput
	createImage string
	imageSeen   bool
	updateIn    model.ProductInput
	updateImage string
	listQuery   repository.ListQuery
	searchRaw   string
	err         error
	page        *model.ProductPage
	product     *model.Product
}

func (m *mockProductService) Create(_ context.Context, in model.ProductInput, imagePath string) (*model.Product, error) {
	m.createIn, m.createImage = in, imagePath
	if imagePath != "" {
		_, statErr := os.Stat(imagePath)
		m.imageSeen = statErr == nil
	}
	return m.product, m.err
}

func (m *mockProductService) List(_ context.Context, q repository.ListQuery) (*model.ProductPage, error) {
	m.listQuery = q
	return m.page, m.err
}

func (m *mockProductService) Search(_ context.Context, raw string, base repository.ListQuery) (*model.ProductPage, error) {
	m.searchRaw, m.listQuery = raw, base
	return m.page, m.err
}

func (m *mockProductService) GetByID(context.Context, string) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockProductService) Update(_ context.Context, _ string, in model.ProductInput, imagePath string) (*model.Product, error) {
	m.updateIn, m.updateImage = in, imagePath
	return m.product, m.err
}

func (m *mockProductService) Delete(context.Context, string) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockProductService) Categories(context.Context) ([]string, error) {
	return []string{"Books"}, m.err
}

// --- Helpers ---

func newTestRouter(t *testing.T, svc *mockProductService) http.Handler {
	t.Helper()
	stager := upload.NewStager(t.TempDir(), 1<<20)
	return NewRouter(RouterConfig{CorsOrigins: []string{"*"}}, NewProductHandler(svc, stager), nil)
}

func productForm(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

var sampleProduct = &model.Product{
	ID:       primitive.NewObjectID(),
	Title:    "Phone",
	Price:    199.99,
	Category: "Electronics",
	Image:    "https://res.example/phone.png",
}

// --- Create ---

func TestCreate_Multipart(t *testing.T) {
	svc := &mockProductService{product: sampleProduct}
	h := newTestRouter(t, svc)

	body, ct := productForm(t, map[string]string{
		"title": "Phone", "price": "199.99", "category": "Electronics", "description": "d",
	}, "phone.png")
	req := httptest.NewRequest(http.MethodPost, "/product/add", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Product created successfully", out["message"])
	assert.Equal(t, "Phone", out["product"].(map[string]any)["title"])

	assert.Equal(t, "199.99", svc.createIn.Price)
	assert.True(t, svc.imageSeen, "staged file exists while the service runs")
	_, err := os.Stat(svc.createImage)
	assert.True(t, os.IsNotExist(err), "staged file is removed afterwards")
}

func TestCreate_MissingImageReachesService(t *testing.T) {
	svc := &mockProductService{err: &service.Error{Kind: service.KindValidation, Msg: "Image file is required"}}
	h := newTestRouter(t, svc)

	body, ct := productForm(t, map[string]string{"title": "Phone"}, "")
	req := httptest.NewRequest(http.MethodPost, "/product/add", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Image file is required", decode(t, rec)["error"])
	assert.Empty(t, svc.createImage)
}

func TestCreate_RejectsNonImage(t *testing.T) {
	svc := &mockProductService{}
	h := newTestRouter(t, svc)

	body, ct := productForm(t, map[string]string{"title": "Phone"}, "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/product/add", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, upload.ErrNotImage.Error(), decode(t, rec)["error"])
}

func TestCreate_UpstreamFailure(t *testing.T) {
	svc := &mockProductService{err: errors.New("media host unavailable")}
	h := newTestRouter(t, svc)

	body, ct := productForm(t, map[string]string{"title": "Phone"}, "phone.jpg")
	req := httptest.NewRequest(http.MethodPost, "/product/add", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(h, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "media host unavailable")
}

// --- List / Search ---

func TestList_PassesQueryAndWrapsPage(t *testing.T) {
	svc := &mockProductService{page: &model.ProductPage{
		Products:   []model.Product{*sampleProduct},
		Pagination: model.Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 20, ItemsPerPage: 8},
	}}
	h := newTestRouter(t, svc)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/product/get?page=2&search=pho&category=Electronics,Books", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.ListQuery{Page: 2, Search: "pho", Categories: []string{"Electronics", "Books"}}, svc.listQuery)

	out := decode(t, rec)
	assert.Len(t, out["products"], 1)
	pagination := out["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pagination["currentPage"])
	assert.EqualValues(t, 3, pagination["totalPages"])
	assert.EqualValues(t, 20, pagination["totalItems"])
	assert.EqualValues(t, 8, pagination["itemsPerPage"])
}

func TestList_NotFound(t *testing.T) {
	svc := &mockProductService{err: &service.Error{Kind: service.KindNotFound, Msg: "No products found"}}
	rec := serve(newTestRouter(t, svc), httptest.NewRequest(http.MethodGet, "/product/get", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No products found", decode(t, rec)["error"])
}

func TestSearch_ForwardsRawQuery(t *testing.T) {
	svc := &mockProductService{page: &model.ProductPage{Products: []model.Product{*sampleProduct}}}
	rec := serve(newTestRouter(t, svc), httptest.NewRequest(http.MethodGet, "/product/search?query=phone,books&page=1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "phone,books", svc.searchRaw)
	assert.Equal(t, 1, svc.listQuery.Page)
}

func TestSearch_MissingQuery(t *testing.T) {
	svc := &mockProductService{err: &service.Error{Kind: service.KindValidation, Msg: "Search query is required"}}
	rec := serve(newTestRouter(t, svc), httptest.NewRequest(http.MethodGet, "/product/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Single product ---

func TestGetByID(t *testing.T) {
	svc := &mockProductService{product: sampleProduct}
	rec := serve(newTestRouter(t, svc), httptest.NewRequest(http.MethodGet, "/product/get/"+sampleProduct.ID.Hex(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, sampleProduct.ID.Hex(), out["product"].(map[string]any)["_id"])
}

func TestUpdate_JSONBody(t *testing.T) {
	svc := &mockProductService{product: sampleProduct}
	req := httptest.NewRequest(http.MethodPatch, "/product/update/"+sampleProduct.ID.Hex(),
		strings.NewReader(`{"title":"Renamed","price":42.5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newTestRouter(t, svc), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product updated", decode(t, rec)["message"])
	assert.Equal(t, model.ProductInput{Title: "Renamed", Price: "42.5"}, svc.updateIn)
	assert.Empty(t, svc.updateImage)
}

func TestUpdate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/product/update/x", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newTestRouter(t, &mockProductService{}), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate_JSONBodyIsSizeLimited(t *testing.T) {
	svc := &mockProductService{product: sampleProduct}
	title := strings.Repeat("x", 8<<20)
	req := httptest.NewRequest(http.MethodPatch, "/product/update/"+sampleProduct.ID.Hex(),
		strings.NewReader(`{"title":"`+title+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newTestRouter(t, svc), req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request payload is too large", decode(t, rec)["error"])
	assert.Empty(t, svc.updateIn.Title)
}

func TestUpdate_MultipartWithImage(t *testing.T) {
	svc := &mockProductService{product: sampleProduct}
	body, ct := productForm(t, map[string]string{"category": "Books"}, "cover.webp")
	req := httptest.NewRequest(http.MethodPatch, "/product/update/"+sampleProduct.ID.Hex(), body)
	req.Header.Set("Content-Type", ct)
	rec := serve(newTestRouter(t, svc), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Books", svc.updateIn.Category)
	assert.True(t, strings.HasSuffix(svc.updateImage, "-cover.webp"))
}

func TestDelete(t *testing.T) {
	svc := &mockProductService{product: sampleProduct}
	rec := serve(newTestRouter(t, svc), httptest.NewRequest(http.MethodDelete, "/product/delete/"+sampleProduct.ID.Hex(), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product deleted successfully", decode(t, rec)["message"])
}

func TestDelete_NotFound(t *testing.T) {
	svc := &mockProductService{err: &service.Error{Kind: service.KindNotFound, Msg: "Product not found"}}
	rec := serve(newTestRouter(t, svc), httptest.NewRequest(http.MethodDelete, "/product/delete/"+primitive.NewObjectID().Hex(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decode(t, rec)["error"])
}

func TestCategories(t *testing.T) {
	rec := serve(newTestRouter(t, &mockProductService{}), httptest.NewRequest(http.MethodGet, "/product", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Books"}, decode(t, rec)["categories"])
}

func TestRoot(t *testing.T) {
	rec := serve(newTestRouter(t, &mockProductService{}), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello-world", decode(t, rec)["data"])
}
