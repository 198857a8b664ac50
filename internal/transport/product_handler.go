package transport

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload. Price and
// stock are pointers so a supplied zero survives the required check.
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
}

// UpdateProductRequest represents a partial update; absent fields stay nil
// and are left untouched.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
}

// ProductsResponse is a product page with its count
type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
	Count    int               `json:"count"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Stock:       *req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.logger.Error("Product creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// List returns a page of products in store-native order
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := queryInt64(r, "skip", 0)
	limit := queryInt64(r, "limit", service.DefaultPageLimit)

	products, err := h.catalog.ListProducts(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Products: products,
		Count:    len(products),
	})
}

// Search returns a page of products matching the supplied filters
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Name:     q.Get("name"),
		Category: q.Get("category"),
		MinPrice: queryFloat(r, "min_price"),
		MaxPrice: queryFloat(r, "max_price"),
	}
	skip := queryInt64(r, "skip", 0)
	limit := queryInt64(r, "limit", service.DefaultPageLimit)

	products, err := h.catalog.SearchProducts(r.Context(), filter, skip, limit)
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Products: products,
		Count:    len(products),
	})
}

// Get fetches a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Update applies a partial update and returns the resulting product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}

	product, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Product update failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.Hex()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Product deletion failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "product deleted",
	})
}

// queryInt64 reads a non-negative integer query parameter, falling back on
// absent, malformed or negative input.
func queryInt64(r *http.Request, key string, fallback int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// queryFloat reads an optional float query parameter; absent or malformed
// input yields nil.
func queryFloat(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
