package order_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sellside/storefront/internal/cart"
	"github.com/sellside/storefront/internal/catalog"
	"github.com/sellside/storefront/internal/common"
	"github.com/sellside/storefront/internal/order"
)

type fakeStore struct {
	cart    cart.Cart
	found   bool
	delErr  error
	deleted []string
}

func (f *fakeStore) Load(context.Context, string) (cart.Cart, bool, error) {
	return f.cart, f.found, nil
}

func (f *fakeStore) Delete(_ context.Context, owner string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, owner)
	return nil
}

func newHandler(t *testing.T, store *fakeStore, repo *fakeRepo, products map[string]catalog.Product, log zerolog.Logger) *order.Handler {
	t.Helper()
	return &order.Handler{
		Svc:         newService(t, repo, products),
		CartStore:   store,
		GuestCookie: "cart_token",
		Log:         log,
	}
}

func authedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(common.WithUserID(req.Context(), "42"))
}

func teeCatalog(t *testing.T) map[string]catalog.Product {
	t.Helper()
	return map[string]catalog.Product{
		"p-tee": {ID: "p-tee", Title: "Tee", Slug: "tee", Price: dec(t, "60.00"), Stock: 10},
	}
}

func TestCreateClearsCart(t *testing.T) {
	store := &fakeStore{
		cart:  cart.Cart{Items: []cart.LineItem{{ProductID: "p-tee", Qty: 2}}},
		found: true,
	}
	h := newHandler(t, store, &fakeRepo{}, teeCatalog(t), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(t, http.MethodPost, "/api/v1/orders"))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data struct {
			TotalPrice string `json:"totalPrice"`
			Status     string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "120.00", body.Data.TotalPrice)
	require.Equal(t, "pending", body.Data.Status)
	require.Equal(t, []string{"user:42"}, store.deleted)
}

func TestCreateLogsFailedCartClear(t *testing.T) {
	store := &fakeStore{
		cart:   cart.Cart{Items: []cart.LineItem{{ProductID: "p-tee", Qty: 1}}},
		found:  true,
		delErr: errors.New("redis gone"),
	}
	var logs bytes.Buffer
	h := newHandler(t, store, &fakeRepo{}, teeCatalog(t), zerolog.New(&logs))

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(t, http.MethodPost, "/api/v1/orders"))

	// The order stands even when clearing fails, but the failure is logged.
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, logs.String(), "clear cart after order")
	require.Contains(t, logs.String(), "redis gone")
}

func TestCreateConflictOnRejections(t *testing.T) {
	store := &fakeStore{
		cart:  cart.Cart{Items: []cart.LineItem{{ProductID: "p-tee", Qty: 5}}},
		found: true,
	}
	products := map[string]catalog.Product{
		"p-tee": {ID: "p-tee", Title: "Tee", Slug: "tee", Price: dec(t, "60.00"), Stock: 1},
	}
	repo := &fakeRepo{}
	h := newHandler(t, store, repo, products, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(t, http.MethodPost, "/api/v1/orders"))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	require.Empty(t, repo.created)
	require.Empty(t, store.deleted)
}

func TestCreateEmptyCart(t *testing.T) {
	h := newHandler(t, &fakeStore{}, &fakeRepo{}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(t, http.MethodPost, "/api/v1/orders"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func newOrderRouter(h *order.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/orders/{id}", h.Get)
	return r
}

func TestGetHidesForeignOrders(t *testing.T) {
	repo := &fakeRepo{orders: map[string]order.Order{
		"o-1": {ID: "o-1", Owner: "user:other", Status: order.StatusPending},
	}}
	h := newHandler(t, &fakeStore{}, repo, nil, zerolog.Nop())

	req := authedRequest(t, http.MethodGet, "/api/v1/orders/o-1")
	rec := httptest.NewRecorder()
	router := newOrderRouter(h)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
