package cart_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sellside/storefront/internal/cart"
)

func newTestStore(t *testing.T) (*cart.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cart.NewStore(client, time.Hour), mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	agg := newAggregator()

	c := agg.Empty()
	c, err := agg.AddItem(c, cart.LineItem{ProductID: "p1", Title: "Tee", UnitPrice: price(t, "24.90"), Qty: 2, Stock: 10})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "user:u1", c))

	loaded, found, err := store.Load(ctx, "user:u1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded.Items, 1)
	require.Equal(t, "p1", loaded.Items[0].ProductID)
	require.Equal(t, 2, loaded.Items[0].Qty)
	require.True(t, c.Totals.ItemsSubtotal.Equal(loaded.Totals.ItemsSubtotal))
	require.True(t, c.Totals.Total.Equal(loaded.Totals.Total))
}

func TestStoreMissingCart(t *testing.T) {
	store, _ := newTestStore(t)

	_, found, err := store.Load(context.Background(), "user:nobody")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	agg := newAggregator()

	require.NoError(t, store.Save(ctx, "guest:g1", agg.Empty()))
	require.NoError(t, store.Delete(ctx, "guest:g1"))

	_, found, err := store.Load(ctx, "guest:g1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	agg := newAggregator()

	require.NoError(t, store.Save(ctx, "guest:g2", agg.Empty()))
	mr.FastForward(2 * time.Hour)

	_, found, err := store.Load(ctx, "guest:g2")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreOwnersAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	agg := newAggregator()

	a, err := agg.AddItem(agg.Empty(), cart.LineItem{ProductID: "p1", UnitPrice: price(t, "1.00"), Qty: 1})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "user:a", a))
	require.NoError(t, store.Save(ctx, "user:b", agg.Empty()))

	loaded, found, err := store.Load(ctx, "user:b")
	require.NoError(t, err)
	require.True(t, found)
	require.Empty(t, loaded.Items)
}
