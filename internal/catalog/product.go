package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Product is the authoritative catalog entry. Price is tax-inclusive and
// stock is the current purchasable ceiling; neither is ever negative.
type Product struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Slug       string          `json:"slug"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID *string         `json:"categoryId,omitempty"`
}
