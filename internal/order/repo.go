package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	// CreateIfAbsent persists the order and its items unless an order
	// with the same gateway payment id already exists. Returns false
	// with no error on the duplicate path.
	CreateIfAbsent(ctx context.Context, o *Order, items []Item) (bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	ListByUser(ctx context.Context, clerkUserID string, limit, offset int) ([]Order, error)
	GetByNumberForUser(ctx context.Context, orderNumber, clerkUserID string) (*Order, []Item, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderCols = `id, order_number, clerk_user_id, email, customer_ref, status, total::text, payment_id, address, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var addr []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.ClerkUserID, &o.Email, &o.CustomerRef, &o.Status, &o.Total, &o.PaymentID, &addr, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(addr) > 0 {
		var a Address
		if err := json.Unmarshal(addr, &a); err != nil {
			return nil, fmt.Errorf("decode order address: %w", err)
		}
		o.Address = &a
	}
	return &o, nil
}

// CreateIfAbsent is a single conditional write keyed on the gateway
// payment id: the ON CONFLICT clause closes the check-then-act window
// between the webhook's idempotency read and this insert under truly
// concurrent duplicate deliveries.
func (r *PGRepo) CreateIfAbsent(ctx context.Context, o *Order, items []Item) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var addr []byte
	if o.Address != nil {
		addr, err = json.Marshal(o.Address)
		if err != nil {
			return false, err
		}
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, clerk_user_id, email, customer_ref, status, total, payment_id, address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (payment_id) DO NOTHING
	`, o.ID, o.OrderNumber, o.ClerkUserID, o.Email, o.CustomerRef, o.Status, o.Total, o.PaymentID, addr, o.CreatedAt)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase)
			VALUES ($1,$2,$3,$4,$5)
		`, it.ID, o.ID, it.ProductID, it.Quantity, it.PriceAtPurchase); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepo) GetByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderCols+`
		FROM orders WHERE payment_id=$1
	`, paymentID))
}

func (r *PGRepo) ListByUser(ctx context.Context, clerkUserID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderCols+`
		FROM orders WHERE clerk_user_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, clerkUserID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var addr []byte
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.ClerkUserID, &o.Email, &o.CustomerRef, &o.Status, &o.Total, &o.PaymentID, &addr, &o.CreatedAt); err != nil {
			return nil, err
		}
		if len(addr) > 0 {
			var a Address
			if err := json.Unmarshal(addr, &a); err != nil {
				return nil, fmt.Errorf("decode order address: %w", err)
			}
			o.Address = &a
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetByNumberForUser scopes the lookup by buyer identity so one buyer
// cannot read another's order by guessing numbers.
func (r *PGRepo) GetByNumberForUser(ctx context.Context, orderNumber, clerkUserID string) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderCols+`
		FROM orders WHERE order_number=$1 AND clerk_user_id=$2
	`, orderNumber, clerkUserID))
	if err != nil {
		return nil, nil, err
	}
	items, err := r.GetItems(ctx, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_at_purchase::text
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status=$2 WHERE id=$1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
