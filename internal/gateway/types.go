// Package gateway is the client side of the hosted payment provider:
// checkout session creation, session retrieval, line-item listing and
// webhook event parsing/verification.
//
// Amounts cross the wire in minor units (grosze); callers convert with
// decimal.New(n, -2).
package gateway

import "context"

// CheckoutSession is the gateway-hosted resource representing one
// checkout attempt. It is ephemeral: nothing is persisted locally until
// payment completes and the webhook fires.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url,omitempty"`
	PaymentID     string            `json:"payment_intent,omitempty"`
	AmountTotal   int64             `json:"amount_total"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`

	ShippingDetails *ShippingDetails `json:"shipping_details,omitempty"`
}

type ShippingDetails struct {
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// LineItem is one itemized charge on a completed session, authoritative
// for what the buyer was actually charged per product.
type LineItem struct {
	ProductID   string `json:"product"`
	Quantity    int    `json:"quantity"`
	AmountTotal int64  `json:"amount_total"`
}

// SessionLineItem is one line submitted when opening a session.
type SessionLineItem struct {
	ProductID  string `json:"product"`
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

type CreateSessionParams struct {
	LineItems  []SessionLineItem `json:"line_items"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`

	CustomerEmail string `json:"customer_email,omitempty"`

	// CollectShippingAddress asks the hosted page for a shipping
	// address; the webhook later reads it from ShippingDetails.
	CollectShippingAddress bool `json:"collect_shipping_address"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Client is the outbound interface to the payment provider.
type Client interface {
	CreateSession(ctx context.Context, p CreateSessionParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*CheckoutSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
}
