package order

import "time"

type Status string

const (
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Address is the shipping address captured from the gateway's shipping
// details. Orders without one carry a nil Address, not empty strings.
type Address struct {
	Name     string `json:"name,omitempty"`
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Order is created exclusively by the payment webhook handler, exactly
// once per gateway payment id. Fulfillment advances Status afterwards;
// orders are never deleted.
type Order struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"order_number"`
	ClerkUserID string  `json:"clerk_user_id"`
	Email       string  `json:"email"`
	CustomerRef string  `json:"customer_ref,omitempty"`
	Status      Status  `json:"status"`
	// Total is NUMERIC in Postgres, carried as a string
	Total     string    `json:"total"`
	PaymentID string    `json:"payment_id"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Item records price at purchase time; it is never re-derived from the
// current catalog price.
type Item struct {
	ID              string `json:"id"`
	OrderID         string `json:"order_id"`
	ProductID       string `json:"product_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}
