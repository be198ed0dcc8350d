// Package cart holds the cart domain: reconciliation of requested items
// against the catalog, the cart reducer, and the Redis-backed cart store.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sellside/storefront/internal/catalog"
)

// ErrInvalidFormat indicates the items payload as a whole was malformed.
// It is a structural failure of the call, distinct from per-item rejections.
var ErrInvalidFormat = errors.New("invalid items payload")

// Rejection codes for per-item validation failures.
const (
	RejectProductNotFound   = "PRODUCT_NOT_FOUND"
	RejectInvalidQuantity   = "INVALID_QUANTITY"
	RejectInsufficientStock = "INSUFFICIENT_STOCK"
)

// ItemRequest is a client-submitted (product, quantity) pair. Prices are
// never accepted from the client.
type ItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"required"`
}

// Rejection explains why one requested item was not accepted.
type Rejection struct {
	ProductID string `json:"productId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ValidationResult pairs the accepted line items with the per-item
// rejections. Both slices preserve the order of the original request.
type ValidationResult struct {
	Items      []LineItem
	Rejections []Rejection
}

// Lookup resolves product identifiers against the authoritative catalog in a
// single batched read.
type Lookup interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

// Validator reconciles requested items against the catalog.
type Validator struct {
	Catalog Lookup
}

// Validate resolves every requested item against the catalog and sorts them
// into accepted line items and rejections. A malformed request (missing
// product reference or quantity field) fails the whole call with
// ErrInvalidFormat; per-item failures never affect sibling items.
func (v Validator) Validate(ctx context.Context, reqs []ItemRequest) (ValidationResult, error) {
	if v.Catalog == nil {
		return ValidationResult{}, errors.New("cart validator not configured")
	}
	ids := make([]string, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for i, req := range reqs {
		if strings.TrimSpace(req.ProductID) == "" {
			return ValidationResult{}, fmt.Errorf("item %d: missing product reference: %w", i, ErrInvalidFormat)
		}
		if req.Qty == 0 {
			return ValidationResult{}, fmt.Errorf("item %d: missing quantity: %w", i, ErrInvalidFormat)
		}
		if _, ok := seen[req.ProductID]; !ok {
			seen[req.ProductID] = struct{}{}
			ids = append(ids, req.ProductID)
		}
	}

	products, err := v.Catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("resolve products: %w", err)
	}

	result := ValidationResult{}
	for _, req := range reqs {
		product, ok := products[req.ProductID]
		if !ok {
			result.Rejections = append(result.Rejections, Rejection{
				ProductID: req.ProductID,
				Code:      RejectProductNotFound,
				Message:   fmt.Sprintf("product %s not found", req.ProductID),
			})
			continue
		}
		if req.Qty < 1 {
			result.Rejections = append(result.Rejections, Rejection{
				ProductID: req.ProductID,
				Code:      RejectInvalidQuantity,
				Message:   fmt.Sprintf("invalid quantity for %s: minimum is 1", product.Title),
			})
			continue
		}
		if req.Qty > product.Stock {
			result.Rejections = append(result.Rejections, Rejection{
				ProductID: req.ProductID,
				Code:      RejectInsufficientStock,
				Message:   fmt.Sprintf("insufficient stock for %s: %d available", product.Title, product.Stock),
			})
			continue
		}
		result.Items = append(result.Items, LineItem{
			ProductID: product.ID,
			Title:     product.Title,
			Slug:      product.Slug,
			UnitPrice: product.Price,
			Qty:       req.Qty,
			Stock:     product.Stock,
		})
	}
	return result, nil
}
