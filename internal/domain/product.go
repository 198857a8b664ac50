package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog item. The identifier is assigned by the store
// on insert.
type Product struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	Stock       int                `json:"stock" bson:"stock"`
	ImageURL    string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProductFilter narrows catalog queries. Zero-value fields are ignored; the
// predicates of the set fields are combined conjunctively. Name matches as a
// case-insensitive substring, Category matches exactly, price bounds are
// inclusive.
type ProductFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// ProductPatch carries a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	ImageURL    *string
}

// IsEmpty reports whether the patch changes no business field.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.Stock == nil && p.ImageURL == nil
}
