package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memoryProductRepository struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*domain.Product
	order    []primitive.ObjectID
}

func newMemoryProductRepository() *memoryProductRepository {
	return &memoryProductRepository{products: map[primitive.ObjectID]*domain.Product{}}
}

func (m *memoryProductRepository) Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := primitive.NewObjectID()
	stored := *product
	stored.ID = id
	m.products[id] = &stored
	m.order = append(m.order, id)
	return id, nil
}

func (m *memoryProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	found := *p
	return &found, nil
}

func (m *memoryProductRepository) Find(ctx context.Context, filter domain.ProductFilter, skip, limit int64) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []*domain.Product{}
	for _, id := range m.order {
		p := m.products[id]
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		found := *p
		matched = append(matched, &found)
	}

	if skip >= int64(len(matched)) {
		return []*domain.Product{}, nil
	}
	matched = matched[skip:]
	if limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memoryProductRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.ProductPatch) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}

	p.UpdatedAt = time.Now().UTC()
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}

	updated := *p
	return &updated, nil
}

func (m *memoryProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	for i, stored := range m.order {
		if stored == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func newProductRouter() chi.Router {
	handler := NewProductHandler(service.NewCatalogService(newMemoryProductRepository()), zap.NewNop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func createProduct(t *testing.T, router chi.Router, body string) *domain.Product {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("product creation failed: %d: %s", rec.Code, rec.Body.String())
	}

	product := &domain.Product{}
	if err := json.NewDecoder(rec.Body).Decode(product); err != nil {
		t.Fatalf("failed to decode created product: %v", err)
	}
	return product
}

func decodeProducts(t *testing.T, rec *httptest.ResponseRecorder) ProductsResponse {
	t.Helper()

	var resp ProductsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode products response: %v", err)
	}
	return resp
}

func TestCreateAndGetProduct(t *testing.T) {
	router := newProductRouter()

	created := createProduct(t, router, `{"name":"Wireless Mouse","price":19.99,"category":"Electronics","stock":120}`)
	if created.ID.IsZero() {
		t.Fatal("expected a store-assigned id")
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("unexpected timestamps: %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	req := httptest.NewRequest(http.MethodGet, "/products/"+created.ID.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	fetched := &domain.Product{}
	if err := json.NewDecoder(rec.Body).Decode(fetched); err != nil {
		t.Fatalf("failed to decode product: %v", err)
	}
	if fetched.Name != "Wireless Mouse" || fetched.Price != 19.99 || fetched.Stock != 120 {
		t.Fatalf("round trip mangled the product: %+v", fetched)
	}
}

func TestCreateProductValidation(t *testing.T) {
	router := newProductRouter()

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"price":9.99,"stock":10}`},
		{"missing price", `{"name":"Widget","stock":10}`},
		{"negative price", `{"name":"Widget","price":-1,"stock":10}`},
		{"missing stock", `{"name":"Widget","price":9.99}`},
		{"negative stock", `{"name":"Widget","price":9.99,"stock":-3}`},
		{"bad image url", `{"name":"Widget","price":9.99,"stock":10,"image_url":"not a url"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateProductAcceptsZeroValues(t *testing.T) {
	router := newProductRouter()

	// Free and out of stock are both legitimate states.
	created := createProduct(t, router, `{"name":"Flyer","price":0,"stock":0}`)
	if created.Price != 0 || created.Stock != 0 {
		t.Fatalf("zero values were rewritten: %+v", created)
	}
}

func TestProductNotFoundConsistency(t *testing.T) {
	router := newProductRouter()

	// A well-formed id that matches nothing and a malformed one get the
	// same treatment on every route.
	ids := []string{primitive.NewObjectID().Hex(), "not-a-valid-id"}

	for _, id := range ids {
		requests := []*http.Request{
			httptest.NewRequest(http.MethodGet, "/products/"+id, nil),
			httptest.NewRequest(http.MethodPut, "/products/"+id, strings.NewReader(`{"price":9.99}`)),
			httptest.NewRequest(http.MethodDelete, "/products/"+id, nil),
		}

		for _, req := range requests {
			if req.Method == http.MethodPut {
				req.Header.Set("Content-Type", "application/json")
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("%s /products/%s: expected 404, got %d", req.Method, id, rec.Code)
			}
			if msg := decodeErrorMessage(t, rec); msg != "product not found" {
				t.Fatalf("%s /products/%s: unexpected message %q", req.Method, id, msg)
			}
		}
	}
}

func TestPartialUpdateLeavesOtherFields(t *testing.T) {
	router := newProductRouter()

	created := createProduct(t, router, `{"name":"Desk Lamp","description":"warm light","price":34.90,"category":"Home & Kitchen","stock":80}`)

	time.Sleep(5 * time.Millisecond)

	req := httptest.NewRequest(http.MethodPut, "/products/"+created.ID.Hex(), strings.NewReader(`{"price":29.90}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated := &domain.Product{}
	if err := json.NewDecoder(rec.Body).Decode(updated); err != nil {
		t.Fatalf("failed to decode updated product: %v", err)
	}

	if updated.Price != 29.90 {
		t.Fatalf("expected price 29.90, got %v", updated.Price)
	}
	if updated.Name != created.Name || updated.Description != created.Description ||
		updated.Category != created.Category || updated.Stock != created.Stock {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updated_at did not advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestDeleteProduct(t *testing.T) {
	router := newProductRouter()

	created := createProduct(t, router, `{"name":"Yoga Mat","price":24.99,"stock":150}`)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+created.ID.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Deleting again reports not found, same as a fetch.
	again := httptest.NewRecorder()
	router.ServeHTTP(again, httptest.NewRequest(http.MethodDelete, "/products/"+created.ID.Hex(), nil))
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", again.Code)
	}
}

func TestListProductsPagination(t *testing.T) {
	router := newProductRouter()

	for i := 0; i < 5; i++ {
		createProduct(t, router, fmt.Sprintf(`{"name":"Item %d","price":%d.99,"stock":%d}`, i, i+1, i+1))
	}

	req := httptest.NewRequest(http.MethodGet, "/products?skip=0&limit=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	first := decodeProducts(t, rec)
	if first.Count != 3 || len(first.Products) != 3 {
		t.Fatalf("expected a page of 3, got count=%d len=%d", first.Count, len(first.Products))
	}

	req = httptest.NewRequest(http.MethodGet, "/products?skip=3&limit=3", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	second := decodeProducts(t, rec)
	if second.Count != 2 {
		t.Fatalf("expected a final page of 2, got %d", second.Count)
	}

	seen := map[string]bool{}
	for _, p := range first.Products {
		seen[p.ID.Hex()] = true
	}
	for _, p := range second.Products {
		if seen[p.ID.Hex()] {
			t.Fatalf("product %s appeared on both pages", p.ID.Hex())
		}
	}
}

func TestListProductsMalformedPagingFallsBack(t *testing.T) {
	router := newProductRouter()

	createProduct(t, router, `{"name":"Lone Item","price":1.99,"stock":1}`)

	for _, query := range []string{"?skip=abc&limit=xyz", "?skip=-4&limit=-1", ""} {
		req := httptest.NewRequest(http.MethodGet, "/products"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET /products%s: expected 200, got %d", query, rec.Code)
		}
		if resp := decodeProducts(t, rec); resp.Count != 1 {
			t.Fatalf("GET /products%s: expected 1 product, got %d", query, resp.Count)
		}
	}
}

func TestSearchProductsComposesFilters(t *testing.T) {
	router := newProductRouter()

	createProduct(t, router, `{"name":"Wireless Mouse","price":19.99,"category":"Electronics","stock":120}`)
	createProduct(t, router, `{"name":"Bluetooth Headphones","price":59.99,"category":"Electronics","stock":45}`)
	createProduct(t, router, `{"name":"Mechanical Keyboard","price":89.99,"category":"Electronics","stock":30}`)
	createProduct(t, router, `{"name":"Ceramic Coffee Mug","price":12.50,"category":"Home & Kitchen","stock":200}`)

	req := httptest.NewRequest(http.MethodGet, "/products/search?category=Electronics&min_price=20&max_price=60", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeProducts(t, rec)
	if resp.Count != 1 {
		t.Fatalf("expected exactly one match, got %d", resp.Count)
	}
	if resp.Products[0].Name != "Bluetooth Headphones" {
		t.Fatalf("expected Bluetooth Headphones, got %q", resp.Products[0].Name)
	}
}

func TestSearchProductsNameIsCaseInsensitive(t *testing.T) {
	router := newProductRouter()

	createProduct(t, router, `{"name":"Wireless Mouse","price":19.99,"category":"Electronics","stock":120}`)
	createProduct(t, router, `{"name":"Yoga Mat","price":24.99,"category":"Sports","stock":150}`)

	req := httptest.NewRequest(http.MethodGet, "/products/search?name=MOUSE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeProducts(t, rec)
	if resp.Count != 1 || resp.Products[0].Name != "Wireless Mouse" {
		t.Fatalf("case-insensitive name search failed: %+v", resp)
	}
}
