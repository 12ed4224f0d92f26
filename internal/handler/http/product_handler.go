package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"product-catalog/internal/logger"
	"product-catalog/internal/model"
	"product-catalog/internal/repository"
	"product-catalog/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
)

// ProductService is what the HTTP layer needs from service.ProductService.
type ProductService interface {
	Create(ctx context.Context, in model.ProductInput, imagePath string) (*model.Product, error)
	List(ctx context.Context, q repository.ListQuery) (*model.ProductPage, error)
	Search(ctx context.Context, rawQuery string, base repository.ListQuery) (*model.ProductPage, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, in model.ProductInput, imagePath string) (*model.Product, error)
	Delete(ctx context.Context, id string) (*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

const (
	imageField = "image"
	// form fields next to the image; added to the per-file limit
	formOverheadBytes = 1 << 20
	multipartMemory   = 1 << 20
)

type ProductHandler struct {
	service ProductService
	stager  *upload.Stager
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service ProductService, stager *upload.Stager) *ProductHandler {
	return &ProductHandler{
		service: service,
		stager:  stager,
	}
}

type productResponse struct {
	Message string         `json:"message"`
	Product *model.Product `json:"product"`
}

type pageResponse struct {
	Message    string           `json:"message"`
	Products   []model.Product  `json:"products"`
	Pagination model.Pagination `json:"pagination"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()

	in, imagePath, cleanup, ok := h.readProductForm(ctx, w, r)
	if !ok {
		return
	}
	defer cleanup()

	product, err := h.service.Create(ctx, in, imagePath)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, productResponse{Message: "Product created successfully", Product: product})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()

	q := r.URL.Query()
	page, err := h.service.List(ctx, repository.NewListQuery(q.Get("page"), q.Get("search"), q.Get("category")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, pageResponse{
		Message:    "Products fetched successfully",
		Products:   page.Products,
		Pagination: page.Pagination,
	})
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Search")
	defer span.End()

	q := r.URL.Query()
	base := repository.NewListQuery(q.Get("page"), q.Get("search"), q.Get("category"))
	page, err := h.service.Search(ctx, q.Get("query"), base)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, pageResponse{
		Message:    "Products fetched successfully",
		Products:   page.Products,
		Pagination: page.Pagination,
	})
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()

	product, err := h.service.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, productResponse{Message: "Product fetched successfully", Product: product})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()

	var (
		in        model.ProductInput
		imagePath string
	)
	if isJSON(r) {
		r.Body = http.MaxBytesReader(w, r.Body, formOverheadBytes)
		var err error
		if in, err = decodeProductJSON(r); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(ctx, w, http.StatusBadRequest, "Request payload is too large")
			} else {
				writeError(ctx, w, http.StatusBadRequest, "Invalid request payload")
			}
			return
		}
	} else {
		var (
			cleanup func()
			ok      bool
		)
		in, imagePath, cleanup, ok = h.readProductForm(ctx, w, r)
		if !ok {
			return
		}
		defer cleanup()
	}

	product, err := h.service.Update(ctx, chi.URLParam(r, "id"), in, imagePath)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, productResponse{Message: "Product updated", Product: product})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()

	product, err := h.service.Delete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, productResponse{Message: "Product deleted successfully", Product: product})
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Categories")
	defer span.End()

	categories, err := h.service.Categories(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"message":    "Categories fetched successfully",
		"categories": categories,
	})
}

// readProductForm parses a multipart (or urlencoded) product form and stages
// the optional image. On false the response has already been written.
func (h *ProductHandler) readProductForm(ctx context.Context, w http.ResponseWriter, r *http.Request) (model.ProductInput, string, func(), bool) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.stager.MaxBytes()+formOverheadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, http.StatusBadRequest, upload.ErrTooLarge.Error())
		} else {
			writeError(ctx, w, http.StatusBadRequest, "Invalid multipart form")
		}
		return model.ProductInput{}, "", noop, false
	}

	in := model.ProductInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Category:    r.FormValue("category"),
	}

	file, err := h.stager.Stage(r, imageField)
	switch {
	case errors.Is(err, upload.ErrNoFile):
		return in, "", h.formCleanup(ctx, r, nil), true
	case errors.Is(err, upload.ErrNotImage), errors.Is(err, upload.ErrTooLarge):
		h.formCleanup(ctx, r, nil)()
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return in, "", noop, false
	case err != nil:
		h.formCleanup(ctx, r, nil)()
		logger.Error(ctx, "Failed to stage upload", slog.String("error", err.Error()))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return in, "", noop, false
	}

	return in, file.Path, h.formCleanup(ctx, r, file), true
}

// formCleanup removes the staged copy and multipart temp files. Best-effort.
func (h *ProductHandler) formCleanup(ctx context.Context, r *http.Request, file *upload.File) func() {
	return func() {
		if file != nil {
			if err := file.Remove(); err != nil {
				logger.Warn(ctx, "Failed to remove staged upload", slog.String("path", file.Path), slog.String("error", err.Error()))
			}
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

type productJSON struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
}

func decodeProductJSON(r *http.Request) (model.ProductInput, error) {
	var body productJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return model.ProductInput{}, err
	}
	return model.ProductInput{
		Title:       body.Title,
		Description: body.Description,
		Price:       body.Price.String(),
		Category:    body.Category,
	}, nil
}
