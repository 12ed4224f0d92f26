package repository

import (
	"context"
	"log/slog"

	"product-catalog/internal/cache"
	"product-catalog/internal/logger"
	"product-catalog/internal/model"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStore is the persistence contract the service depends on.
type ProductStore interface {
	Insert(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	FindPage(ctx context.Context, filter bson.M, skip, limit int64) ([]model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

// Cache is the subset of cache.RedisCache used by CachedProductRepository.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedProductRepository is a cache-aside decorator for single-product
// reads and the category list. Listing pages always hit the store.
type CachedProductRepository struct {
	ProductStore
	cache Cache
}

func NewCachedProductRepository(store ProductStore, c Cache) *CachedProductRepository {
	return &CachedProductRepository{
		ProductStore: store,
		cache:        c,
	}
}

const categoriesKey = "products:categories"

func productKey(id primitive.ObjectID) string {
	return "product:" + id.Hex()
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	key := productKey(id)

	var product model.Product
	err := r.cache.Get(ctx, key, &product)
	if err == nil {
		logger.Debug(ctx, "Cache hit", slog.String("key", key))
		return &product, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Warn(ctx, "Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	p, err := r.ProductStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, p); err != nil {
		logger.Warn(ctx, "Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return p, nil
}

func (r *CachedProductRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.cache.Get(ctx, categoriesKey, &categories)
	if err == nil {
		return categories, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Warn(ctx, "Cache read failed", slog.String("key", categoriesKey), slog.String("error", err.Error()))
	}

	categories, err = r.ProductStore.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, categoriesKey, categories); err != nil {
		logger.Warn(ctx, "Cache write failed", slog.String("key", categoriesKey), slog.String("error", err.Error()))
	}
	return categories, nil
}

func (r *CachedProductRepository) Insert(ctx context.Context, product *model.Product) error {
	if err := r.ProductStore.Insert(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, categoriesKey)
	return nil
}

func (r *CachedProductRepository) Update(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error) {
	p, err := r.ProductStore.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, productKey(id), categoriesKey)
	return p, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	p, err := r.ProductStore.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, productKey(id), categoriesKey)
	return p, nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.Warn(ctx, "Cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
