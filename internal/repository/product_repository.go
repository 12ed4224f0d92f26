package repository

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"product-catalog/internal/logger"
	"product-catalog/internal/model"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
)

// ErrNotFound is returned when no document matches the given id.
var ErrNotFound = errors.New("product not found")

const productCollection = "products"

type ProductRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

var ProductRepositoryTracer = otel.Tracer("ProductRepository")

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(productCollection),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *ProductRepository) Insert(ctx context.Context, product *model.Product) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Insert")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", "insert"))

	now := r.now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "insert product")
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", "find_by_id"), slog.String("id", id.Hex()))

	var product model.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "find product")
	}
	return &product, nil
}

// Count returns the number of documents matching filter.
func (r *ProductRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Count")
	defer span.End()

	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "count products")
	}
	return n, nil
}

// FindPage returns at most limit documents matching filter after skipping
// skip of them, in _id (insertion) order.
func (r *ProductRepository) FindPage(ctx context.Context, filter bson.M, skip, limit int64) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindPage")
	defer span.End()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "find products")
	}
	defer cursor.Close(ctx)

	products := make([]model.Product, 0, limit)
	for cursor.Next(ctx) {
		var product model.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return products, nil
}

// Update applies patch to the document and returns it as stored afterwards.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Update")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", "update"), slog.String("id", id.Hex()))

	set := bson.M{"updatedAt": r.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.ImagePublicID != nil {
		set["imagePublicId"] = *patch.ImagePublicID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product model.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "update product")
	}
	return &product, nil
}

// Delete removes the document and returns it as it was before removal.
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", "delete"), slog.String("id", id.Hex()))

	var product model.Product
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "delete product")
	}
	return &product, nil
}

// DistinctCategories returns every category value in ascending order.
func (r *ProductRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.DistinctCategories")
	defer span.End()

	values, err := r.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "distinct categories")
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}
