package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// stubRepo serves a fixed set of orders keyed by owner.
type stubRepo struct {
	orders map[string][]Order
	items  map[string][]Item
}

func (s *stubRepo) CreateIfAbsent(ctx context.Context, o *Order, items []Item) (bool, error) {
	return false, nil
}

func (s *stubRepo) GetByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	return nil, ErrNotFound
}

func (s *stubRepo) ListByUser(ctx context.Context, clerkUserID string, limit, offset int) ([]Order, error) {
	return s.orders[clerkUserID], nil
}

func (s *stubRepo) GetByNumberForUser(ctx context.Context, orderNumber, clerkUserID string) (*Order, []Item, error) {
	for _, o := range s.orders[clerkUserID] {
		if o.OrderNumber == orderNumber {
			return &o, s.items[o.ID], nil
		}
	}
	return nil, nil, ErrNotFound
}

func (s *stubRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	return s.items[orderID], nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	return nil
}

func testRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(repo, zap.NewNop()).Register(r)
	return r
}

func seededRepo() *stubRepo {
	return &stubRepo{
		orders: map[string][]Order{
			"user_a": {
				{
					ID:          "o1",
					OrderNumber: "ORD-AAA-1111",
					ClerkUserID: "user_a",
					Status:      StatusPaid,
					Total:       "150.00",
					PaymentID:   "pi_a",
					CreatedAt:   time.Now().UTC(),
				},
			},
		},
		items: map[string][]Item{
			"o1": {
				{ID: "i1", OrderID: "o1", ProductID: "p1", Quantity: 1, PriceAtPurchase: "150.00"},
			},
		},
	}
}

func doGet(r *gin.Engine, path, uid string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if uid != "" {
		req.Header.Set("X-Clerk-User-ID", uid)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestListOrdersRequiresBuyer(t *testing.T) {
	r := testRouter(seededRepo())

	w := doGet(r, "/orders", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, expected 401", w.Code)
	}
}

func TestListOrdersScopedToBuyer(t *testing.T) {
	r := testRouter(seededRepo())

	w := doGet(r, "/orders", "user_a")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp struct {
		Orders []Order `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].OrderNumber != "ORD-AAA-1111" {
		t.Fatalf("unexpected orders: %+v", resp.Orders)
	}

	// A different buyer sees an empty list, not someone else's orders.
	w = doGet(r, "/orders", "user_b")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Orders) != 0 {
		t.Fatalf("cross-buyer leak: %+v", resp.Orders)
	}
}

func TestGetOrderByNumber(t *testing.T) {
	r := testRouter(seededRepo())

	w := doGet(r, "/orders/ORD-AAA-1111", "user_a")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Order Order  `json:"order"`
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Order.Total != "150.00" || len(resp.Items) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetOrderWrongBuyerIs404(t *testing.T) {
	r := testRouter(seededRepo())

	// Existence must not leak across buyers: wrong owner and a number
	// that never existed are indistinguishable.
	w := doGet(r, "/orders/ORD-AAA-1111", "user_b")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, expected 404", w.Code)
	}
	w = doGet(r, "/orders/ORD-NOPE-0000", "user_a")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, expected 404", w.Code)
	}
}
