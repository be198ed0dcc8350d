package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo reads products from Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

// NewRepo constructs a catalog repository over the provided pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

const productColumns = `id::text, title, slug, price::text, stock, category_id::text`

// List returns a page of products ordered by creation time.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, productColumns)
	rows, err := r.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return result, nil
}

// Count returns the total number of products.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// BySlug returns the product with the given slug.
func (r *Repo) BySlug(ctx context.Context, slug string) (Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	p, err := scanProduct(r.Pool.QueryRow(ctx, q, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %q: %w", slug, err)
	}
	return p, nil
}

// ByIDs resolves all requested product identifiers in a single round trip.
// Unknown or malformed identifiers are simply absent from the result, so
// callers report them per item instead of failing the whole batch.
func (r *Repo) ByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	result := make(map[string]Product, len(ids))
	valid := validUUIDs(ids)
	if len(valid) == 0 {
		return result, nil
	}
	q := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1::uuid[])`, productColumns)
	rows, err := r.Pool.Query(ctx, q, valid)
	if err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	return result, nil
}

// validUUIDs keeps only ids that survive the uuid cast. Anything else would
// abort the query with a 22P02 before a single row is matched.
func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		valid = append(valid, id)
	}
	return valid
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &price, &p.Stock, &p.CategoryID); err != nil {
		return Product{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = parsed
	return p, nil
}
