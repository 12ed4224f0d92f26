package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	CorsOrigins []string
	// Middlewares run outermost first, before recovery and CORS.
	Middlewares []func(http.Handler) http.Handler
}

// NewRouter mounts the catalog and health endpoints.
func NewRouter(cfg RouterConfig, products *ProductHandler, health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(cfg.Middlewares...)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "traceparent"},
		ExposedHeaders: []string{"X-Request-ID", "X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"data": "hello-world"})
	})
	if health != nil {
		r.Get("/healthz", health.Check)
	}

	r.Route("/product", func(r chi.Router) {
		r.Get("/", products.Categories)
		r.Post("/add", products.Create)
		r.Get("/get", products.List)
		r.Get("/get/{id}", products.GetByID)
		r.Patch("/update/{id}", products.Update)
		r.Delete("/delete/{id}", products.Delete)
		r.Get("/search", products.Search)
	})

	return r
}
