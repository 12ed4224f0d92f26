package repository

import (
	"context"
	"testing"

	"product-catalog/internal/model"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNS = "catalog.products"

func productDoc(id primitive.ObjectID, title, category string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "description", Value: "desc"},
		{Key: "price", Value: 19.5},
		{Key: "category", Value: category},
		{Key: "image", Value: "https://img.example/" + id.Hex() + ".png"},
		{Key: "imagePublicId", Value: "products/" + id.Hex()},
	}
}

func TestProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert assigns id and timestamps", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &model.Product{Title: "Phone", Price: 10, Category: "Electronics"}
		require.NoError(mt, repo.Insert(ctx, p))

		assert.False(mt, p.ID.IsZero())
		assert.False(mt, p.CreatedAt.IsZero())
		assert.Equal(mt, p.CreatedAt, p.UpdatedAt)
	})

	mt.Run("insert surfaces write errors", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Insert(ctx, &model.Product{Title: "Phone"})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, productDoc(id, "Phone", "Electronics")))

		p, err := repo.FindByID(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, p.ID)
		assert.Equal(mt, "Phone", p.Title)
		assert.Equal(mt, "products/"+id.Hex(), p.ImagePublicID)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.True(mt, errors.Is(err, ErrNotFound))
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(20)}}))

		n, err := repo.Count(ctx, NewListQuery("", "", "Electronics").Filter())
		require.NoError(mt, err)
		assert.Equal(mt, int64(20), n)
	})

	mt.Run("find page", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			productDoc(first, "Phone", "Electronics"),
			productDoc(second, "Tablet", "Electronics"),
		))

		products, err := repo.FindPage(ctx, bson.M{}, 8, PageSize)
		require.NoError(mt, err)
		require.Len(mt, products, 2)
		assert.Equal(mt, first, products[0].ID)
		assert.Equal(mt, second, products[1].ID)
	})

	mt.Run("update returns the stored document", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: productDoc(id, "Renamed", "Electronics")},
		})

		title := "Renamed"
		p, err := repo.Update(ctx, id, model.ProductPatch{Title: &title})
		require.NoError(mt, err)
		assert.Equal(mt, "Renamed", p.Title)
	})

	mt.Run("update missing document", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.Update(ctx, primitive.NewObjectID(), model.ProductPatch{})
		assert.True(mt, errors.Is(err, ErrNotFound))
	})

	mt.Run("delete returns the removed document", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: productDoc(id, "Phone", "Electronics")},
		})

		p, err := repo.Delete(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, p.ID)
	})

	mt.Run("delete missing document", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.Delete(ctx, primitive.NewObjectID())
		assert.True(mt, errors.Is(err, ErrNotFound))
	})

	mt.Run("distinct categories are sorted", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "values", Value: bson.A{"Toys", "Books", "Electronics"}},
		})

		categories, err := repo.DistinctCategories(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"Books", "Electronics", "Toys"}, categories)
	})
}
