package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	Price         float64            `json:"price" bson:"price"`
	Category      string             `json:"category" bson:"category"`
	Image         string             `json:"image,omitempty" bson:"image,omitempty"`
	ImagePublicID string             `json:"imagePublicId,omitempty" bson:"imagePublicId,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput carries the form fields of add/update requests. Price stays a
// string until validated so that "missing" and "0" can be told apart.
type ProductInput struct {
	Title       string `validate:"required"`
	Description string
	Price       string `validate:"required,numeric"`
	Category    string `validate:"required"`
}

// ProductPatch is the partial update applied to a stored product; nil fields are left untouched.
type ProductPatch struct {
	Title         *string
	Description   *string
	Price         *float64
	Category      *string
	Image         *string
	ImagePublicID *string
}

// Pagination is the envelope metadata of a listing page.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
