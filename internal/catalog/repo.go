// Package catalog provides read access to the product catalog, the
// stock oracle used by checkout, and the transactional stock decrement
// applied when an order is created.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Query struct {
	Q        string
	Category string
	Brand    string
	Limit    int
	Offset   int
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	StockByIDs(ctx context.Context, ids []string) (map[string]int, error)
	DecrementStock(ctx context.Context, deltas []StockDelta) ([]string, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productCols = `id, slug, name, brand, description, price::text, stock, category, image_url, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Description, &p.Price, &p.Stock, &p.Category, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productCols+`
		FROM products WHERE id=$1
	`, id))
}

func (r *PGRepo) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productCols+`
		FROM products WHERE slug=$1
	`, slug))
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR brand ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR brand = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, search, q.Category, q.Brand, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Description, &p.Price, &p.Stock, &p.Category, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StockByIDs is the stock oracle: one batched query returning current
// available quantity per product id. Unknown ids are absent from the map.
func (r *PGRepo) StockByIDs(ctx context.Context, ids []string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, stock FROM products WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int, len(ids))
	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		out[id] = stock
	}
	return out, rows.Err()
}

// DecrementStock subtracts each delta's quantity in a single transaction,
// all-or-nothing. Decrements are relative (stock = stock - n) so that
// concurrent orders touching the same product compose correctly.
//
// When a delta exceeds the remaining stock the row is clamped to zero
// instead of going negative; the affected product ids are returned so
// the caller can log them for manual reconciliation.
func (r *PGRepo) DecrementStock(ctx context.Context, deltas []StockDelta) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var clamped []string
	for _, d := range deltas {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, d.ProductID, d.Quantity)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() > 0 {
			continue
		}
		// Insufficient stock: clamp rather than go negative.
		tag, err = tx.Exec(ctx, `
			UPDATE products
			SET stock = 0, updated_at = NOW()
			WHERE id = $1
		`, d.ProductID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrNotFound
		}
		clamped = append(clamped, d.ProductID)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return clamped, nil
}
