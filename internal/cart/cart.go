package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sellside/storefront/internal/pricing"
)

// ErrItemNotFound indicates the targeted line item is not in the cart.
var ErrItemNotFound = errors.New("item not in cart")

// ErrQuantityRejected indicates a mutation violated quantity or stock
// constraints; the cart is left unchanged.
var ErrQuantityRejected = errors.New("quantity rejected")

// LineItem is one product entry within a cart.
type LineItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Qty       int             `json:"qty"`
	// Stock is the last-known purchasable ceiling, 0 when unknown. Checkout
	// revalidation remains the source of truth for stock enforcement.
	Stock int `json:"stock,omitempty"`
}

// Cart is an ordered collection of line items, unique by product, plus the
// four derived monetary fields. Totals are always recomputed from the items;
// they are never stored independently of them.
type Cart struct {
	Items  []LineItem     `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

// Aggregator applies cart mutations as pure reductions: every operation takes
// a cart and returns a new one with totals recomputed, leaving the input
// untouched. Persistence is the caller's explicit follow-up step.
type Aggregator struct {
	Engine pricing.Engine
}

// Empty returns a cart with no items and all-zero totals.
func (a Aggregator) Empty() Cart {
	return Cart{Items: []LineItem{}, Totals: pricing.ZeroTotals()}
}

// AddItem merges the item into the cart: an existing entry for the same
// product has its quantity incremented (capped at the last-known stock
// ceiling when one is known), otherwise the item is appended. The incoming
// entry carries fresh catalog data and refreshes price, title, and ceiling.
func (a Aggregator) AddItem(c Cart, item LineItem) (Cart, error) {
	if item.Qty < 1 {
		return c, ErrQuantityRejected
	}
	items := cloneItems(c.Items)
	merged := false
	for i := range items {
		if items[i].ProductID != item.ProductID {
			continue
		}
		qty := items[i].Qty + item.Qty
		if item.Stock > 0 && qty > item.Stock {
			qty = item.Stock
		}
		items[i] = item
		items[i].Qty = qty
		merged = true
		break
	}
	if !merged {
		items = append(items, item)
	}
	return a.rebuild(items), nil
}

// RemoveItem filters the matching line item out of the cart. Removing an
// absent product is a no-op.
func (a Aggregator) RemoveItem(c Cart, productID string) Cart {
	items := make([]LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID == productID {
			continue
		}
		items = append(items, it)
	}
	return a.rebuild(items)
}

// UpdateQuantity sets the quantity of an existing line item. The item must
// exist and the quantity must be positive and within the known stock ceiling;
// otherwise the original cart is returned unchanged with a tagged error.
func (a Aggregator) UpdateQuantity(c Cart, productID string, qty int) (Cart, error) {
	idx := -1
	for i, it := range c.Items {
		if it.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, ErrItemNotFound
	}
	if qty < 1 {
		return c, ErrQuantityRejected
	}
	if ceiling := c.Items[idx].Stock; ceiling > 0 && qty > ceiling {
		return c, ErrQuantityRejected
	}
	items := cloneItems(c.Items)
	items[idx].Qty = qty
	return a.rebuild(items), nil
}

// Replace swaps the whole item list, e.g. after a validated cart sync.
func (a Aggregator) Replace(c Cart, items []LineItem) Cart {
	return a.rebuild(cloneItems(items))
}

// Clear resets the cart to the empty state.
func (a Aggregator) Clear(Cart) Cart {
	return a.Empty()
}

func (a Aggregator) rebuild(items []LineItem) Cart {
	if items == nil {
		items = []LineItem{}
	}
	priced := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		priced = append(priced, pricing.Item{UnitPrice: it.UnitPrice, Qty: it.Qty})
	}
	totals := pricing.ZeroTotals()
	if len(items) > 0 {
		totals = a.Engine.OrderTotals(priced)
	}
	return Cart{Items: items, Totals: totals}
}

func cloneItems(items []LineItem) []LineItem {
	cloned := make([]LineItem, len(items))
	copy(cloned, items)
	return cloned
}
