package order

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sellside/storefront/internal/cart"
	"github.com/sellside/storefront/internal/common"
)

type cartStore interface {
	Load(ctx context.Context, owner string) (cart.Cart, bool, error)
	Delete(ctx context.Context, owner string) error
}

// Handler wires order creation and settlement to HTTP.
type Handler struct {
	Svc         *Service
	CartStore   cartStore
	GuestCookie string
	Log         zerolog.Logger
}

type lineDTO struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	UnitPrice string `json:"unitPrice"`
	Qty       int    `json:"qty"`
}

type orderDTO struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	ItemsPrice    string    `json:"itemsPrice"`
	TaxPrice      string    `json:"taxPrice"`
	ShippingPrice string    `json:"shippingPrice"`
	TotalPrice    string    `json:"totalPrice"`
	Lines         []lineDTO `json:"lines"`
	CreatedAt     string    `json:"createdAt"`
}

func toOrderDTO(o Order) orderDTO {
	lines := make([]lineDTO, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, lineDTO{
			ProductID: line.ProductID,
			Title:     line.Title,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Qty:       line.Qty,
		})
	}
	return orderDTO{
		ID:            o.ID,
		Status:        string(o.Status),
		ItemsPrice:    o.ItemsPrice.StringFixed(2),
		TaxPrice:      o.TaxPrice.StringFixed(2),
		ShippingPrice: o.ShippingPrice.StringFixed(2),
		TotalPrice:    o.TotalPrice.StringFixed(2),
		Lines:         lines,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) owner(r *http.Request) (string, bool) {
	if userID, ok := common.UserID(r.Context()); ok {
		return "user:" + userID, true
	}
	if c, err := r.Cookie(h.GuestCookie); err == nil && c.Value != "" {
		return "guest:" + c.Value, true
	}
	return "", false
}

// Create builds an order from the caller's stored cart. The cart is cleared
// once the order is persisted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(r)
	if !ok {
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "no cart for caller", nil)
		return
	}
	c, found, err := h.CartStore.Load(r.Context(), owner)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load cart", nil)
		return
	}
	if !found || len(c.Items) == 0 {
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "cart is empty", nil)
		return
	}
	o, rejections, err := h.Svc.CreateFromCart(r.Context(), owner, c)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "cart is empty", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to create order", nil)
		return
	}
	if len(rejections) > 0 {
		common.JSONError(w, http.StatusConflict, common.CodeValidationFailed, "cart no longer valid", rejections)
		return
	}
	if err := h.CartStore.Delete(r.Context(), owner); err != nil {
		// The stale cart would double-order on retry; make the failure visible.
		h.Log.Warn().Err(err).Str("owner", owner).Str("order_id", o.ID).Msg("clear cart after order")
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toOrderDTO(o)})
}

// Get returns one order. Callers may only read their own orders.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load order", nil)
		return
	}
	if owner, ok := h.owner(r); !ok || owner != o.Owner {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderDTO(o)})
}

// MarkPaid is invoked by the payment collaborator once payment is confirmed.
// Stock decrements here, never earlier.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Svc.MarkPaid(r.Context(), id)
	switch {
	case err == nil:
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id, "status": string(StatusPaid)}})
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
	case errors.Is(err, ErrAlreadyPaid):
		common.JSONError(w, http.StatusConflict, common.CodeBadRequest, "order already paid", nil)
	case errors.Is(err, ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, common.CodeValidationFailed, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to settle order", nil)
	}
}
