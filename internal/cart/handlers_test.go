package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/petherEm/gibbarosa-io-v-1/internal/catalog"
)

// stubCatalog implements catalog.Repository over a fixed product map.
type stubCatalog struct {
	products map[string]*catalog.Product
}

func (s *stubCatalog) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (s *stubCatalog) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *stubCatalog) List(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubCatalog) StockByIDs(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p.Stock
		}
	}
	return out, nil
}

func (s *stubCatalog) DecrementStock(ctx context.Context, deltas []catalog.StockDelta) ([]string, error) {
	return nil, nil
}

func setupCartRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	products := &stubCatalog{products: map[string]*catalog.Product{
		"p1": {ID: "p1", Slug: "chanel-flap", Name: "Chanel Classic Flap", Price: "8900.00", Stock: 1, ImageURL: "https://img/p1.jpg"},
	}}

	r := gin.New()
	NewHandler(store, products, zaptest.NewLogger(t)).Register(r)
	return r, store
}

func TestAddItem_SnapshotsCatalogFields(t *testing.T) {
	r, _ := setupCartRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"product_id":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Clerk-User-ID", "user_1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp cartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "Chanel Classic Flap", resp.Lines[0].Name)
	assert.Equal(t, "8900.00", resp.Lines[0].Price)
	assert.Equal(t, 1, resp.ItemCount)
	assert.Equal(t, "8900.00", resp.Subtotal)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	r, _ := setupCartRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"product_id":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Clerk-User-ID", "user_1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCart_GuestGetsGeneratedCartID(t *testing.T) {
	r, _ := setupCartRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Cart-ID"))
}

func TestClearCart(t *testing.T) {
	r, store := setupCartRouter(t)
	ctx := context.Background()

	c := New("user_1")
	c.AddLine(Line{ProductID: "p1", Quantity: 1, Price: "8900.00"})
	require.NoError(t, store.Put(ctx, c))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set("X-Clerk-User-ID", "user_1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got, err := store.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}
