package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sellside/storefront/internal/cart"
	"github.com/sellside/storefront/internal/obs"
	"github.com/sellside/storefront/internal/pricing"
)

// ErrEmptyCart indicates there is nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

type repoProvider interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	MarkPaid(ctx context.Context, id string) error
}

// Service builds orders from carts and settles them after payment.
type Service struct {
	Repo      repoProvider
	Engine    pricing.Engine
	Validator cart.Validator
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateFromCart revalidates the cart's items against the current catalog,
// recomputes totals, and persists an immutable order. Checkout-time
// validation is the single source of truth for stock enforcement, so any
// rejection blocks the order and is reported back in full.
func (s *Service) CreateFromCart(ctx context.Context, owner string, c cart.Cart) (Order, []cart.Rejection, error) {
	if s == nil || s.Repo == nil {
		return Order{}, nil, errors.New("order service not configured")
	}
	if len(c.Items) == 0 {
		return Order{}, nil, ErrEmptyCart
	}
	reqs := make([]cart.ItemRequest, 0, len(c.Items))
	for _, it := range c.Items {
		reqs = append(reqs, cart.ItemRequest{ProductID: it.ProductID, Qty: it.Qty})
	}
	result, err := s.Validator.Validate(ctx, reqs)
	if err != nil {
		return Order{}, nil, err
	}
	if len(result.Rejections) > 0 {
		return Order{}, result.Rejections, nil
	}

	priced := make([]pricing.Item, 0, len(result.Items))
	lines := make([]Line, 0, len(result.Items))
	for _, it := range result.Items {
		priced = append(priced, pricing.Item{UnitPrice: it.UnitPrice, Qty: it.Qty})
		lines = append(lines, Line{
			ProductID: it.ProductID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}
	totals := s.Engine.OrderTotals(priced)

	o := Order{
		ID:            uuid.NewString(),
		Owner:         owner,
		Status:        StatusPending,
		ItemsPrice:    totals.ItemsSubtotal,
		TaxPrice:      totals.Tax,
		ShippingPrice: totals.Shipping,
		TotalPrice:    totals.Total,
		Lines:         lines,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, o); err != nil {
		return Order{}, nil, err
	}
	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.Inc()
	}
	return o, nil, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.Repo.Get(ctx, id)
}

// MarkPaid settles the order after payment confirmation.
func (s *Service) MarkPaid(ctx context.Context, id string) error {
	err := s.Repo.MarkPaid(ctx, id)
	if obs.OrderSettlementTotal != nil {
		result := "ok"
		if err != nil {
			result = "failed"
		}
		obs.OrderSettlementTotal.WithLabelValues(result).Inc()
	}
	return err
}
