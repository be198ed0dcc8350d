package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo persists orders in Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

// NewRepo constructs an order repository over the provided pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

// Create inserts the order header and its lines in one transaction.
func (r *Repo) Create(ctx context.Context, o Order) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO orders (id, owner, status, items_price, tax_price, shipping_price, total_price, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.Owner, string(o.Status),
		o.ItemsPrice.StringFixed(2), o.TaxPrice.StringFixed(2),
		o.ShippingPrice.StringFixed(2), o.TotalPrice.StringFixed(2),
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, line := range o.Lines {
		_, err = tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, title, unit_price, qty)
VALUES ($1, $2, $3, $4, $5)`,
			o.ID, line.ProductID, line.Title, line.UnitPrice.StringFixed(2), line.Qty,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Get loads one order with its lines.
func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var (
		o                                 Order
		status                            string
		items, tax, shipping, totalAmount string
	)
	err := r.Pool.QueryRow(ctx, `
SELECT id::text, owner, status, items_price::text, tax_price::text, shipping_price::text, total_price::text, created_at
FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Owner, &status, &items, &tax, &shipping, &totalAmount, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	o.Status = Status(status)
	if o.ItemsPrice, err = decimal.NewFromString(items); err != nil {
		return Order{}, fmt.Errorf("parse items price: %w", err)
	}
	if o.TaxPrice, err = decimal.NewFromString(tax); err != nil {
		return Order{}, fmt.Errorf("parse tax price: %w", err)
	}
	if o.ShippingPrice, err = decimal.NewFromString(shipping); err != nil {
		return Order{}, fmt.Errorf("parse shipping price: %w", err)
	}
	if o.TotalPrice, err = decimal.NewFromString(totalAmount); err != nil {
		return Order{}, fmt.Errorf("parse total price: %w", err)
	}

	rows, err := r.Pool.Query(ctx, `
SELECT product_id::text, title, unit_price::text, qty
FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, fmt.Errorf("get order lines %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			line  Line
			price string
		)
		if err := rows.Scan(&line.ProductID, &line.Title, &price, &line.Qty); err != nil {
			return Order{}, err
		}
		if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return Order{}, fmt.Errorf("parse line price: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Order{}, fmt.Errorf("get order lines %s: %w", id, err)
	}
	return o, nil
}

// MarkPaid settles the order after payment confirmation: every line decrements
// product stock, guarded against going negative, and the status flips to paid.
// Any line that cannot be satisfied rolls the whole settlement back.
func (r *Repo) MarkPaid(ctx context.Context, id string) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock order %s: %w", id, err)
	}
	if Status(status) == StatusPaid {
		return ErrAlreadyPaid
	}

	rows, err := tx.Query(ctx, `SELECT product_id::text, qty FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return fmt.Errorf("load order lines %s: %w", id, err)
	}
	type decrement struct {
		productID string
		qty       int
	}
	var decrements []decrement
	for rows.Next() {
		var d decrement
		if err := rows.Scan(&d.productID, &d.qty); err != nil {
			rows.Close()
			return err
		}
		decrements = append(decrements, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load order lines %s: %w", id, err)
	}

	for _, d := range decrements {
		tag, err := tx.Exec(ctx, `
UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, d.productID, d.qty)
		if err != nil {
			return fmt.Errorf("decrement stock %s: %w", d.productID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", d.productID, ErrInsufficientStock)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, paid_at = now() WHERE id = $1`, id, string(StatusPaid)); err != nil {
		return fmt.Errorf("mark paid %s: %w", id, err)
	}
	return tx.Commit(ctx)
}
