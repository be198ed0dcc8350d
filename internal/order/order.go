// Package order turns a validated cart into an immutable order record and
// settles stock once payment is confirmed.
package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested order could not be located.
var ErrNotFound = errors.New("order not found")

// ErrInsufficientStock indicates settlement would drive a product's stock
// negative; the whole settlement is rolled back.
var ErrInsufficientStock = errors.New("insufficient stock at settlement")

// ErrAlreadyPaid indicates the order was settled before.
var ErrAlreadyPaid = errors.New("order already paid")

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Line is one product entry captured on an order. Unit price and quantity are
// frozen at creation time and never recomputed.
type Line struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Qty       int             `json:"qty"`
}

// Order is the immutable record produced from a validated cart.
type Order struct {
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	Status        Status          `json:"status"`
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Lines         []Line          `json:"lines"`
	CreatedAt     time.Time       `json:"createdAt"`
}
