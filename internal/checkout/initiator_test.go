package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/petherEm/gibbarosa-io-v-1/internal/catalog"
	"github.com/petherEm/gibbarosa-io-v-1/internal/gateway"
)

type stubProducts struct {
	products map[string]*catalog.Product
}

func (s *stubProducts) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (s *stubProducts) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (s *stubProducts) List(ctx context.Context, q catalog.Query) ([]catalog.Product, error) {
	return nil, nil
}

func (s *stubProducts) StockByIDs(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p.Stock
		}
	}
	return out, nil
}

func (s *stubProducts) DecrementStock(ctx context.Context, deltas []catalog.StockDelta) ([]string, error) {
	return nil, nil
}

type fakeSessionGateway struct {
	lastParams *gateway.CreateSessionParams
	createErr  error
}

func (f *fakeSessionGateway) CreateSession(ctx context.Context, p gateway.CreateSessionParams) (*gateway.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastParams = &p
	return &gateway.CheckoutSession{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil
}

func (f *fakeSessionGateway) RetrieveSession(ctx context.Context, id string) (*gateway.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSessionGateway) ListLineItems(ctx context.Context, sessionID string) ([]gateway.LineItem, error) {
	return nil, errors.New("not implemented")
}

func newTestInitiator(t *testing.T, products map[string]*catalog.Product) (*Initiator, *fakeSessionGateway) {
	t.Helper()
	gw := &fakeSessionGateway{}
	init := NewInitiator(
		&stubProducts{products: products},
		gw,
		"https://shop.example.com/checkout/success",
		"https://shop.example.com/checkout",
		zaptest.NewLogger(t),
	)
	return init, gw
}

func TestCreateSession_UsesCatalogPricesAndBuildsMetadata(t *testing.T) {
	init, gw := newTestInitiator(t, map[string]*catalog.Product{
		"a": {ID: "a", Name: "Birkin 25", Price: "100.00", Stock: 1},
		"b": {ID: "b", Name: "Silk Scarf", Price: "50.00", Stock: 4},
	})

	url, err := init.CreateSession(context.Background(), []LineInput{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 2},
	}, Buyer{ClerkUserID: "user_1", Email: "b@example.com", CustomerRef: "cust_9"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_1", url)

	p := gw.lastParams
	require.NotNil(t, p)
	require.Len(t, p.LineItems, 2)
	// Unit amounts come from the catalog (minor units), not the client.
	assert.Equal(t, int64(10000), p.LineItems[0].UnitAmount)
	assert.Equal(t, int64(5000), p.LineItems[1].UnitAmount)
	assert.Equal(t, 2, p.LineItems[1].Quantity)

	assert.Equal(t, "a,b", p.Metadata[MetaProductIDs])
	assert.Equal(t, "1,2", p.Metadata[MetaQuantities])
	assert.Equal(t, "user_1", p.Metadata[MetaClerkUserID])
	assert.Equal(t, "b@example.com", p.Metadata[MetaUserEmail])
	assert.Equal(t, "cust_9", p.Metadata[MetaCustomerRef])
	assert.True(t, p.CollectShippingAddress)
}

func TestCreateSession_GuestOmitsBuyerMetadata(t *testing.T) {
	init, gw := newTestInitiator(t, map[string]*catalog.Product{
		"a": {ID: "a", Name: "Birkin 25", Price: "100.00", Stock: 1},
	})

	_, err := init.CreateSession(context.Background(), []LineInput{
		{ProductID: "a", Quantity: 1},
	}, Buyer{Email: "guest@example.com"})
	require.NoError(t, err)

	_, hasUser := gw.lastParams.Metadata[MetaClerkUserID]
	assert.False(t, hasUser)
	assert.Equal(t, "guest@example.com", gw.lastParams.Metadata[MetaUserEmail])
}

func TestCreateSession_EmptyCart(t *testing.T) {
	init, _ := newTestInitiator(t, nil)
	_, err := init.CreateSession(context.Background(), nil, Buyer{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSession_ProductGone(t *testing.T) {
	init, _ := newTestInitiator(t, map[string]*catalog.Product{})
	_, err := init.CreateSession(context.Background(), []LineInput{
		{ProductID: "deleted", Quantity: 1},
	}, Buyer{ClerkUserID: "user_1"})
	assert.ErrorIs(t, err, ErrProductGone)
}

func TestCreateSession_InsufficientStock(t *testing.T) {
	init, _ := newTestInitiator(t, map[string]*catalog.Product{
		"a": {ID: "a", Name: "Birkin 25", Price: "100.00", Stock: 0},
	})
	_, err := init.CreateSession(context.Background(), []LineInput{
		{ProductID: "a", Quantity: 1},
	}, Buyer{ClerkUserID: "user_1"})
	assert.ErrorIs(t, err, ErrInsufficient)
}

func TestCreateSession_GatewayFailure(t *testing.T) {
	init, gw := newTestInitiator(t, map[string]*catalog.Product{
		"a": {ID: "a", Name: "Birkin 25", Price: "100.00", Stock: 1},
	})
	gw.createErr = errors.New("rate limited")

	_, err := init.CreateSession(context.Background(), []LineInput{
		{ProductID: "a", Quantity: 1},
	}, Buyer{ClerkUserID: "user_1"})
	assert.ErrorIs(t, err, ErrGatewayFailure)
}
