// Package webhook receives asynchronous payment notifications from the
// gateway and is the single authoritative writer of orders and stock
// decrements. Deliveries are at-least-once, unordered, and may be
// duplicated; the gateway payment id is the idempotency key.
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/petherEm/gibbarosa-io-v-1/internal/catalog"
	"github.com/petherEm/gibbarosa-io-v-1/internal/checkout"
	"github.com/petherEm/gibbarosa-io-v-1/internal/gateway"
	"github.com/petherEm/gibbarosa-io-v-1/internal/httpx"
	"github.com/petherEm/gibbarosa-io-v-1/internal/order"
)

// StockDecrementer applies an order's stock deltas in one all-or-nothing
// transaction.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, deltas []catalog.StockDelta) ([]string, error)
}

type Handler struct {
	signingSecret string
	gw            gateway.Client
	orders        order.Repository
	stock         StockDecrementer
	log           *zap.Logger

	// now is injectable so tests can pin the signature tolerance window.
	now func() time.Time
}

func NewHandler(signingSecret string, gw gateway.Client, orders order.Repository, stock StockDecrementer, log *zap.Logger) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		gw:            gw,
		orders:        orders,
		stock:         stock,
		log:           log,
		now:           time.Now,
	}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/webhooks/payment", h.HandlePaymentWebhook)
}

// HandlePaymentWebhook processes one delivery. Responses:
// 4xx for signature or metadata failures (retrying cannot help),
// 200 for duplicates and unhandled event types,
// 5xx for transient failures so the gateway redelivers; the idempotency
// check makes the redelivery safe.
func (h *Handler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	// 1. Authenticity: the raw body is what was signed.
	sig := c.GetHeader(gateway.SignatureHeader)
	if err := gateway.VerifySignature(h.signingSecret, sig, body, h.now(), gateway.DefaultTolerance); err != nil {
		h.log.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	ev, err := gateway.ParseEvent(body)
	if err != nil {
		h.log.Warn("webhook payload rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. Only session completion creates orders.
	if ev.Type != gateway.EventCheckoutSessionCompleted {
		h.log.Debug("ignoring webhook event", zap.String("type", string(ev.Type)))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.handleCheckoutCompleted(c.Request.Context(), ev.Session); err != nil {
		var pe *permanentError
		if errors.As(err, &pe) {
			// Money was taken but no order can be created. Retrying
			// will not fix bad metadata; this needs a human.
			h.log.Error("webhook permanently rejected, manual reconciliation required",
				zap.String("payment_id", ev.Session.PaymentID),
				zap.String("session_id", ev.Session.ID),
				zap.Error(err),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": pe.Error()})
			return
		}
		h.log.Error("webhook processing failed, expecting gateway retry",
			zap.String("session_id", ev.Session.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// permanentError marks failures no retry can fix (malformed metadata).
type permanentError struct{ msg string }

func (e *permanentError) Error() string { return e.msg }

func permanent(msg string) error { return &permanentError{msg: msg} }

func (h *Handler) handleCheckoutCompleted(ctx context.Context, sess *gateway.CheckoutSession) error {
	paymentID := sess.PaymentID
	if paymentID == "" {
		return permanent("checkout session has no payment id")
	}

	// 3. Idempotency: one order per gateway payment id, ever.
	existing, err := h.orders.GetByPaymentID(ctx, paymentID)
	if err != nil && !errors.Is(err, order.ErrNotFound) {
		return err
	}
	if existing != nil {
		h.log.Info("webhook already processed, skipping",
			zap.String("payment_id", paymentID),
			zap.String("order_number", existing.OrderNumber),
		)
		httpx.RecordWebhookDuplicate()
		return nil
	}

	// 4. The event payload may be partial; re-fetch the full session
	// for metadata and shipping details.
	full, err := h.gw.RetrieveSession(ctx, sess.ID)
	if err != nil {
		return err
	}

	clerkUserID := full.Metadata[checkout.MetaClerkUserID]
	idsRaw := full.Metadata[checkout.MetaProductIDs]
	qtysRaw := full.Metadata[checkout.MetaQuantities]

	// 6. Required-field guard: a malformed session must never silently
	// produce a wrong order.
	if clerkUserID == "" || idsRaw == "" || qtysRaw == "" {
		return permanent("checkout session metadata is missing buyer or line data")
	}
	productIDs := strings.Split(idsRaw, ",")
	qtyStrings := strings.Split(qtysRaw, ",")
	if len(productIDs) != len(qtyStrings) {
		return permanent("product id and quantity lists differ in length")
	}
	quantities := make([]int, len(qtyStrings))
	for i, s := range qtyStrings {
		q, err := strconv.Atoi(s)
		if err != nil || q < 1 {
			return permanent("invalid quantity in checkout session metadata")
		}
		quantities[i] = q
	}

	// 5. Price reconciliation: the gateway's line items are
	// authoritative for what was actually charged. Lines that cannot
	// be matched fall back to an even split of the session total --
	// a documented approximation for gateway-side grouping quirks.
	lineItems, err := h.gw.ListLineItems(ctx, full.ID)
	if err != nil {
		return err
	}
	priceMap := make(map[string]decimal.Decimal, len(lineItems))
	for _, li := range lineItems {
		if li.ProductID != "" && li.AmountTotal > 0 {
			priceMap[li.ProductID] = decimal.New(li.AmountTotal, -2)
		}
	}
	total := decimal.New(full.AmountTotal, -2)
	fallback := total.Div(decimal.NewFromInt(int64(len(productIDs))))

	now := h.now().UTC()
	orderID := uuid.NewString()
	items := make([]order.Item, len(productIDs))
	for i, pid := range productIDs {
		price, ok := priceMap[pid]
		if !ok {
			price = fallback
		}
		items[i] = order.Item{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			ProductID:       pid,
			Quantity:        quantities[i],
			PriceAtPurchase: price.StringFixed(2),
		}
	}

	email := full.Metadata[checkout.MetaUserEmail]
	if email == "" {
		email = full.CustomerEmail
	}

	o := &order.Order{
		ID:          orderID,
		OrderNumber: order.NewOrderNumber(now),
		ClerkUserID: clerkUserID,
		Email:       email,
		CustomerRef: full.Metadata[checkout.MetaCustomerRef],
		Status:      order.StatusPaid,
		Total:       total.StringFixed(2),
		PaymentID:   paymentID,
		Address:     shippingAddress(full.ShippingDetails),
		CreatedAt:   now,
	}

	// 9. Conditional insert on payment id closes the check-then-act
	// race with a concurrent duplicate delivery that also passed the
	// read in step 3.
	created, err := h.orders.CreateIfAbsent(ctx, o, items)
	if err != nil {
		return err
	}
	if !created {
		h.log.Info("concurrent duplicate lost the insert race, skipping",
			zap.String("payment_id", paymentID),
		)
		httpx.RecordWebhookDuplicate()
		return nil
	}
	httpx.RecordOrderCreated()
	h.log.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_id", paymentID),
		zap.Int("items", len(items)),
		zap.String("total", o.Total),
	)

	// 10. Decrement stock for every ordered product in one
	// transaction. Runs only on the path that created the order, so a
	// redelivery never decrements twice.
	deltas := make([]catalog.StockDelta, len(items))
	for i, it := range items {
		deltas[i] = catalog.StockDelta{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	clamped, err := h.stock.DecrementStock(ctx, deltas)
	if err != nil {
		return err
	}
	if len(clamped) > 0 {
		h.log.Warn("stock clamped to zero during decrement, needs reconciliation",
			zap.Strings("product_ids", clamped),
			zap.String("order_number", o.OrderNumber),
		)
	}
	return nil
}

func shippingAddress(sd *gateway.ShippingDetails) *order.Address {
	if sd == nil || sd.Address == nil {
		return nil
	}
	return &order.Address{
		Name:     sd.Name,
		Line1:    sd.Address.Line1,
		Line2:    sd.Address.Line2,
		City:     sd.Address.City,
		Postcode: sd.Address.PostalCode,
		Country:  sd.Address.Country,
	}
}
