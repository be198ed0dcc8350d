package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sellside/storefront/internal/cart"
	"github.com/sellside/storefront/internal/catalog"
)

type fakeCatalog struct {
	products map[string]catalog.Product
	calls    int
	lastIDs  []string
	err      error
}

func (f *fakeCatalog) ProductsByIDs(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	f.calls++
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func price(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	return &fakeCatalog{products: map[string]catalog.Product{
		"p-tee":  {ID: "p-tee", Title: "Plain Black Tee", Slug: "plain-black-tee", Price: price(t, "24.90"), Stock: 10},
		"p-mug":  {ID: "p-mug", Title: "Ceramic Mug", Slug: "ceramic-mug", Price: price(t, "9.99"), Stock: 3},
		"p-keys": {ID: "p-keys", Title: "Mechanical Keyboard", Slug: "mechanical-keyboard", Price: price(t, "129.99"), Stock: 0},
	}}
}

func TestValidateAcceptsCatalogPrice(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	result, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-tee", Qty: 2},
	})
	require.NoError(t, err)
	require.Empty(t, result.Rejections)
	require.Len(t, result.Items, 1)
	require.Equal(t, "p-tee", result.Items[0].ProductID)
	require.Equal(t, 2, result.Items[0].Qty)
	require.True(t, price(t, "24.90").Equal(result.Items[0].UnitPrice))
	require.Equal(t, 10, result.Items[0].Stock)
}

func TestValidateBatchesLookup(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	_, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-tee", Qty: 1},
		{ProductID: "p-mug", Qty: 1},
		{ProductID: "p-tee", Qty: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 1, lookup.calls)
	require.Equal(t, []string{"p-tee", "p-mug"}, lookup.lastIDs)
}

func TestValidateOrderPreservation(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	result, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-tee", Qty: 1},
		{ProductID: "p-missing", Qty: 1},
		{ProductID: "p-mug", Qty: 2},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, "p-tee", result.Items[0].ProductID)
	require.Equal(t, "p-mug", result.Items[1].ProductID)
	require.Len(t, result.Rejections, 1)
	require.Equal(t, "p-missing", result.Rejections[0].ProductID)
	require.Equal(t, cart.RejectProductNotFound, result.Rejections[0].Code)
}

func TestValidateInsufficientStock(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	result, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-mug", Qty: 5},
	})
	require.NoError(t, err)
	require.Empty(t, result.Items)
	require.Len(t, result.Rejections, 1)
	require.Equal(t, cart.RejectInsufficientStock, result.Rejections[0].Code)
	require.Contains(t, result.Rejections[0].Message, "3 available")
	require.Contains(t, result.Rejections[0].Message, "Ceramic Mug")
}

func TestValidateInvalidQuantity(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	result, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-tee", Qty: -2},
	})
	require.NoError(t, err)
	require.Empty(t, result.Items)
	require.Len(t, result.Rejections, 1)
	require.Equal(t, cart.RejectInvalidQuantity, result.Rejections[0].Code)
	require.Contains(t, result.Rejections[0].Message, "minimum is 1")
}

func TestValidateNotFoundBeforeQuantity(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	// Unknown product with a bad quantity still reports not-found first.
	result, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-missing", Qty: -1},
	})
	require.NoError(t, err)
	require.Len(t, result.Rejections, 1)
	require.Equal(t, cart.RejectProductNotFound, result.Rejections[0].Code)
}

func TestValidateZeroStockProduct(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	result, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-keys", Qty: 1},
	})
	require.NoError(t, err)
	require.Len(t, result.Rejections, 1)
	require.Equal(t, cart.RejectInsufficientStock, result.Rejections[0].Code)
	require.Contains(t, result.Rejections[0].Message, "0 available")
}

func TestValidateStructuralErrors(t *testing.T) {
	lookup := testCatalog(t)
	v := cart.Validator{Catalog: lookup}

	_, err := v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "", Qty: 1},
	})
	require.ErrorIs(t, err, cart.ErrInvalidFormat)
	require.Zero(t, lookup.calls)

	_, err = v.Validate(context.Background(), []cart.ItemRequest{
		{ProductID: "p-tee", Qty: 0},
	})
	require.ErrorIs(t, err, cart.ErrInvalidFormat)
	require.Zero(t, lookup.calls)
}

func TestValidateLookupFailure(t *testing.T) {
	lookup := testCatalog(t)
	lookup.err = errors.New("catalog down")
	v := cart.Validator{Catalog: lookup}

	_, err := v.Validate(context.Background(), []cart.ItemRequest{{ProductID: "p-tee", Qty: 1}})
	require.Error(t, err)
	require.NotErrorIs(t, err, cart.ErrInvalidFormat)
}
