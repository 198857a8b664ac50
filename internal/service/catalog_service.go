package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultPageLimit caps a product page when the caller supplies no limit.
	DefaultPageLimit = 20
)

// CatalogService defines the product catalog use cases. Identifiers are
// taken as their external string representation; a malformed identifier is
// reported as not found, the same as a well-formed one that matches nothing.
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context, skip, limit int64) ([]*domain.Product, error)
	SearchProducts(ctx context.Context, filter domain.ProductFilter, skip, limit int64) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// CreateProduct stamps both timestamps and persists the product, returning
// it with the store-assigned identifier filled in.
func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	product.ID = id
	return product, nil
}

// ListProducts returns a page of products in store-native order.
func (s *catalogService) ListProducts(ctx context.Context, skip, limit int64) ([]*domain.Product, error) {
	skip, limit = normalizePage(skip, limit)
	return s.productRepo.Find(ctx, domain.ProductFilter{}, skip, limit)
}

// SearchProducts returns a page of products matching every set filter field.
// An empty filter behaves like ListProducts.
func (s *catalogService) SearchProducts(ctx context.Context, filter domain.ProductFilter, skip, limit int64) ([]*domain.Product, error) {
	skip, limit = normalizePage(skip, limit)
	return s.productRepo.Find(ctx, filter, skip, limit)
}

// GetProduct fetches one product by its external identifier.
func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	return s.productRepo.FindByID(ctx, oid)
}

// UpdateProduct applies a partial update and returns the resulting document.
// updated_at is refreshed even when the patch is otherwise empty.
func (s *catalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	return s.productRepo.Update(ctx, oid, patch)
}

// DeleteProduct removes one product by its external identifier.
func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseProductID(id)
	if err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, oid)
}

// parseProductID converts the external identifier to its store form. A
// malformed identifier can never name a stored document, so it collapses
// into the not-found error rather than a separate validation failure.
func parseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrProductNotFound
	}
	return oid, nil
}

func normalizePage(skip, limit int64) (int64, int64) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return skip, limit
}
