package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/petherEm/gibbarosa-io-v-1/internal/catalog"
	"github.com/petherEm/gibbarosa-io-v-1/internal/gateway"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrProductGone    = errors.New("a product in the cart no longer exists")
	ErrInsufficient   = errors.New("insufficient stock for a cart line")
	ErrGatewayFailure = errors.New("payment gateway rejected the session")
)

// Buyer identifies who is checking out. ClerkUserID may be empty for
// guest checkout; order attribution then degrades to email-only and the
// webhook will refuse to create an order (money-without-order alert).
type Buyer struct {
	ClerkUserID string
	Email       string
	CustomerRef string
}

// Metadata keys embedded in the gateway session. The webhook handler
// reconstructs order lines from these without a second catalog round
// trip, so both sides must agree on them exactly.
const (
	MetaClerkUserID = "clerkUserId"
	MetaUserEmail   = "userEmail"
	MetaCustomerRef = "customerRef"
	MetaProductIDs  = "productIds"
	MetaQuantities  = "quantities"
)

// Initiator re-validates the cart server side and opens a hosted
// payment session. It persists nothing: an abandoned session expires on
// the gateway with no cleanup obligation here.
type Initiator struct {
	products catalog.Repository
	gw       gateway.Client
	log      *zap.Logger

	successURL string
	cancelURL  string
}

func NewInitiator(products catalog.Repository, gw gateway.Client, successURL, cancelURL string, log *zap.Logger) *Initiator {
	return &Initiator{
		products:   products,
		gw:         gw,
		log:        log,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateSession returns the hosted payment page URL for the given cart
// lines. Prices and names come from the catalog, never from the client.
func (i *Initiator) CreateSession(ctx context.Context, lines []LineInput, buyer Buyer) (string, error) {
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	items := make([]gateway.SessionLineItem, 0, len(lines))
	productIDs := make([]string, 0, len(lines))
	quantities := make([]string, 0, len(lines))

	for _, l := range lines {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}

		p, err := i.products.GetByID(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return "", fmt.Errorf("%w: %s", ErrProductGone, l.ProductID)
			}
			return "", fmt.Errorf("product lookup: %w", err)
		}
		if p.Stock < qty {
			return "", fmt.Errorf("%w: %s", ErrInsufficient, p.ID)
		}

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return "", fmt.Errorf("bad catalog price for %s: %w", p.ID, err)
		}

		items = append(items, gateway.SessionLineItem{
			ProductID:  p.ID,
			Name:       p.Name,
			UnitAmount: price.Shift(2).IntPart(),
			Quantity:   qty,
		})
		productIDs = append(productIDs, p.ID)
		quantities = append(quantities, strconv.Itoa(qty))
	}

	metadata := map[string]string{
		MetaProductIDs: strings.Join(productIDs, ","),
		MetaQuantities: strings.Join(quantities, ","),
	}
	if buyer.ClerkUserID != "" {
		metadata[MetaClerkUserID] = buyer.ClerkUserID
	}
	if buyer.Email != "" {
		metadata[MetaUserEmail] = buyer.Email
	}
	if buyer.CustomerRef != "" {
		metadata[MetaCustomerRef] = buyer.CustomerRef
	}

	sess, err := i.gw.CreateSession(ctx, gateway.CreateSessionParams{
		LineItems:              items,
		SuccessURL:             i.successURL,
		CancelURL:              i.cancelURL,
		CustomerEmail:          buyer.Email,
		CollectShippingAddress: true,
		Metadata:               metadata,
	})
	if err != nil {
		i.log.Error("checkout session creation failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	i.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int("lines", len(items)),
	)
	return sess.URL, nil
}
