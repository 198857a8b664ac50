package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines data access for the products collection.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	Find(ctx context.Context, filter domain.ProductFilter, skip, limit int64) ([]*domain.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(coll *mongo.Collection) ProductRepository {
	return &productRepository{coll: coll}
}

// Create inserts a new product document and returns the store-assigned id.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create product: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, ErrWriteNotAcknowledged
	}

	return id, nil
}

// FindByID retrieves a single product by its identifier.
func (r *productRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Find returns a page of products matching the filter in store-native order.
// An empty filter matches everything.
func (r *productRepository) Find(ctx context.Context, filter domain.ProductFilter, skip, limit int64) ([]*domain.Product, error) {
	query := bson.M{}

	if filter.Name != "" {
		query["name"] = bson.M{"$regex": primitive.Regex{
			Pattern: regexp.QuoteMeta(filter.Name),
			Options: "i",
		}}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	opts := options.Find().SetSkip(skip).SetLimit(limit)

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// Update applies the set fields of the patch to the document and refreshes
// updated_at, returning the post-update document. created_at is never
// touched.
func (r *productRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.ProductPatch) (*domain.Product, error) {
	set := bson.M{"updated_at": time.Now().UTC()}

	if patch.Name != nil {
		set["name"] = *patch.Name
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
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	product := &domain.Product{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete removes a product document.
func (r *productRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}
