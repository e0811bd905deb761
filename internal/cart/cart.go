// Package cart holds a buyer's current selection. The cart is a display
// snapshot only: checkout re-reads price and stock from the catalog, so
// nothing here is authoritative at purchase time.
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one product in the cart with cached display fields.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Image     string `json:"image,omitempty"`
}

// Cart is an explicit state container keyed by a per-buyer cart id
// (the external auth id for signed-in buyers, a generated id for
// guests). It lives in the store until cleared or expired.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(id string) *Cart {
	return &Cart{ID: id}
}

// AddLine inserts the line, or is a no-op when the product is already
// present. Preowned inventory is mostly unique pieces, so one unit per
// distinct product is the common case.
func (c *Cart) AddLine(l Line) bool {
	for _, existing := range c.Lines {
		if existing.ProductID == l.ProductID {
			return false
		}
	}
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	c.Lines = append(c.Lines, l)
	return true
}

// RemoveLine removes the product's line; no error when absent.
func (c *Cart) RemoveLine(productID string) {
	out := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	c.Lines = out
}

// Clear empties the cart; called after confirmed payment.
func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal sums price x quantity over all lines. Unparseable cached
// prices count as zero; the authoritative total is computed at checkout.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
