package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"product-catalog/internal/logger"
	"product-catalog/internal/media"
	"product-catalog/internal/model"
	"product-catalog/internal/repository"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// EventPublisher receives product write notifications. Optional.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, eventType model.ProductEventType, product *model.Product) error
}

type ProductService struct {
	store    repository.ProductStore
	media    media.Uploader
	events   EventPublisher
	validate *validator.Validate
}

var ProductServiceTracer = otel.Tracer("ProductService")

func NewProductService(store repository.ProductStore, uploader media.Uploader, events EventPublisher) *ProductService {
	return &ProductService{
		store:    store,
		media:    uploader,
		events:   events,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Create uploads the staged image at imagePath and persists the product. If
// the insert fails the uploaded image is destroyed again.
func (s *ProductService) Create(ctx context.Context, in model.ProductInput, imagePath string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if imagePath == "" {
		return nil, validationError("Image file is required")
	}
	price, err := s.validateInput(in)
	if err != nil {
		return nil, err
	}

	img, err := s.media.Upload(ctx, imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "upload product image")
	}

	product := &model.Product{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Price:         price,
		Category:      strings.TrimSpace(in.Category),
		Image:         img.URL,
		ImagePublicID: img.PublicID,
	}
	if err := s.store.Insert(ctx, product); err != nil {
		s.destroyImage(ctx, img.PublicID, "compensate failed insert")
		return nil, err
	}

	span.SetAttributes(attribute.String("product.id", product.ID.Hex()))
	s.publish(ctx, model.ProductCreated, product)
	return product, nil
}

// List returns one page of products matching q. Count and page are read
// concurrently against the same filter.
func (s *ProductService) List(ctx context.Context, q repository.ListQuery) (*model.ProductPage, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.List")
	defer span.End()

	if q.Page < 1 {
		q.Page = 1
	}
	filter := q.Filter()

	var (
		total    int64
		products []model.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, filter)
		total = n
		return err
	})
	g.Go(func() error {
		page, err := s.store.FindPage(gctx, filter, q.Skip(), repository.PageSize)
		products = page
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("catalog.page", q.Page),
		attribute.Int64("catalog.total", total),
	)
	if total == 0 || len(products) == 0 {
		return nil, notFoundError("No products found")
	}

	return &model.ProductPage{
		Products: products,
		Pagination: model.Pagination{
			CurrentPage:  q.Page,
			TotalPages:   repository.TotalPages(total),
			TotalItems:   total,
			ItemsPerPage: repository.PageSize,
		},
	}, nil
}

// Search matches comma-separated terms against title or category and pages
// the result like List. base carries any additional listing constraints.
func (s *ProductService) Search(ctx context.Context, rawQuery string, base repository.ListQuery) (*model.ProductPage, error) {
	terms := repository.SplitList(rawQuery)
	if len(terms) == 0 {
		return nil, validationError("Search query is required")
	}
	base.Terms = terms
	return s.List(ctx, base)
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFoundError("No product found")
	}
	product, err := s.store.FindByID(ctx, objID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("No product found")
	}
	return product, err
}

// Update replaces the non-empty fields of in and, when imagePath is set, the
// image. The previous image is destroyed only after the new one is persisted.
func (s *ProductService) Update(ctx context.Context, id string, in model.ProductInput, imagePath string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFoundError("Product not found")
	}
	existing, err := s.store.FindByID(ctx, objID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("Product not found")
	}
	if err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}

	var uploaded *media.Image
	if imagePath != "" {
		img, err := s.media.Upload(ctx, imagePath)
		if err != nil {
			return nil, errors.Wrap(err, "upload product image")
		}
		uploaded = &img
		patch.Image = &img.URL
		patch.ImagePublicID = &img.PublicID
	}

	updated, err := s.store.Update(ctx, objID, patch)
	if err != nil {
		if uploaded != nil {
			s.destroyImage(ctx, uploaded.PublicID, "compensate failed update")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Product not found")
		}
		return nil, err
	}

	if uploaded != nil && existing.ImagePublicID != "" && existing.ImagePublicID != uploaded.PublicID {
		s.destroyImage(ctx, existing.ImagePublicID, "replace image")
	}
	s.publish(ctx, model.ProductUpdated, updated)
	return updated, nil
}

// Delete removes the product and, best-effort, its image on the media host.
func (s *ProductService) Delete(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFoundError("Product not found")
	}
	deleted, err := s.store.Delete(ctx, objID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("Product not found")
	}
	if err != nil {
		return nil, err
	}

	if deleted.ImagePublicID != "" {
		s.destroyImage(ctx, deleted.ImagePublicID, "delete product")
	}
	s.publish(ctx, model.ProductDeleted, deleted)
	return deleted, nil
}

// Categories lists the distinct category values.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Categories")
	defer span.End()

	return s.store.DistinctCategories(ctx)
}

func (s *ProductService) validateInput(in model.ProductInput) (float64, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Price = strings.TrimSpace(in.Price)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return 0, validationError(fieldMessage(verrs[0]))
		}
		return 0, validationError(err.Error())
	}
	return parsePrice(in.Price)
}

func (s *ProductService) buildPatch(in model.ProductInput) (model.ProductPatch, error) {
	var patch model.ProductPatch
	if v := strings.TrimSpace(in.Title); v != "" {
		patch.Title = &v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		patch.Description = &v
	}
	if v := strings.TrimSpace(in.Category); v != "" {
		patch.Category = &v
	}
	if v := strings.TrimSpace(in.Price); v != "" {
		if err := s.validate.Var(v, "numeric"); err != nil {
			return patch, validationError("price must be a number")
		}
		price, err := parsePrice(v)
		if err != nil {
			return patch, err
		}
		patch.Price = &price
	}
	return patch, nil
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, validationError("price must be a number")
	}
	if price < 0 {
		return 0, validationError("price must not be negative")
	}
	return price, nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "numeric":
		return field + " must be a number"
	default:
		return field + " is invalid"
	}
}

// destroyImage runs detached from request cancellation; failures only leave
// an orphaned remote image and are logged.
func (s *ProductService) destroyImage(ctx context.Context, publicID, reason string) {
	if err := s.media.Destroy(context.WithoutCancel(ctx), publicID); err != nil {
		logger.Error(ctx, "Failed to destroy image",
			slog.String("public_id", publicID),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publish(ctx context.Context, eventType model.ProductEventType, product *model.Product) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(ctx, eventType, product); err != nil {
		logger.Warn(ctx, "Failed to publish product event",
			slog.String("type", string(eventType)),
			slog.String("product_id", product.ID.Hex()),
			slog.String("error", err.Error()),
		)
	}
}
