// Package checkout gates the path from a cart to a hosted payment
// session: the stock reconciliation check and the session initiator.
package checkout

import (
	"context"
	"fmt"
)

// LineInput is a cart line as submitted for checkout: product id and
// quantity only, nothing price-bearing.
type LineInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// StockOracle is the read interface over current available quantity.
type StockOracle interface {
	StockByIDs(ctx context.Context, ids []string) (map[string]int, error)
}

type LineStatus struct {
	Stock      int  `json:"stock"`
	OutOfStock bool `json:"out_of_stock"`
}

// Report is the result of re-validating every cart line against live
// stock. Checkout submission stays disabled while HasIssues is true.
type Report struct {
	Lines     map[string]LineStatus `json:"lines"`
	HasIssues bool                  `json:"has_issues"`
}

// ReconcileStock re-queries the oracle for every line in one batched
// call and flags lines whose remaining stock cannot cover the requested
// quantity. An oracle failure is returned as an error: the check fails
// closed rather than silently permitting checkout against stale data.
func ReconcileStock(ctx context.Context, oracle StockOracle, lines []LineInput) (*Report, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	stock, err := oracle.StockByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("stock reconciliation: %w", err)
	}

	report := &Report{Lines: make(map[string]LineStatus, len(lines))}
	for _, l := range lines {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		remaining, known := stock[l.ProductID]
		// A product missing from the oracle counts as sold out: it was
		// deleted or never existed, either way it cannot be bought.
		status := LineStatus{
			Stock:      remaining,
			OutOfStock: !known || remaining < qty,
		}
		report.Lines[l.ProductID] = status
		if status.OutOfStock {
			report.HasIssues = true
		}
	}
	return report, nil
}
