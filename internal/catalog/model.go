package catalog

import "time"

// Product is a curated preowned piece. Inventory is mostly unique items,
// so stock is usually 0 or 1, but the model supports larger quantities.
type Product struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Brand       string `json:"brand,omitempty"`
	Description string `json:"description,omitempty"`
	// Price is stored as a string to avoid rounding errors (NUMERIC in Postgres)
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Category  string    `json:"category,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockDelta is one line of a stock decrement: subtract Quantity units
// from the product's current stock.
type StockDelta struct {
	ProductID string
	Quantity  int
}

// ListResponse is the paginated product listing.
type ListResponse struct {
	Q        string    `json:"q,omitempty"`
	Category string    `json:"category,omitempty"`
	Brand    string    `json:"brand,omitempty"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
	Items    []Product `json:"items"`
}
