package cart

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sellside/storefront/internal/common"
	"github.com/sellside/storefront/internal/obs"
)

var validate = validator.New()

// Handler wires cart validation, the reducer, and the store to HTTP.
type Handler struct {
	Store       *Store
	Validator   Validator
	Agg         Aggregator
	GuestCookie string
	CookieTTL   time.Duration
}

type itemsPayload struct {
	Items []ItemRequest `json:"items"`
}

type qtyPayload struct {
	Qty int `json:"qty" validate:"required"`
}

type lineItemDTO struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	UnitPrice string `json:"unitPrice"`
	Qty       int    `json:"qty"`
}

type totalsDTO struct {
	ItemsPrice    string `json:"itemsPrice"`
	TaxPrice      string `json:"taxPrice"`
	ShippingPrice string `json:"shippingPrice"`
	TotalPrice    string `json:"totalPrice"`
}

type cartDTO struct {
	Items      []lineItemDTO `json:"items"`
	Totals     totalsDTO     `json:"totals"`
	Rejections []Rejection   `json:"rejections,omitempty"`
}

func toCartDTO(c Cart, rejections []Rejection) cartDTO {
	items := make([]lineItemDTO, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, lineItemDTO{
			ProductID: it.ProductID,
			Title:     it.Title,
			Slug:      it.Slug,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Qty:       it.Qty,
		})
	}
	return cartDTO{
		Items: items,
		Totals: totalsDTO{
			ItemsPrice:    c.Totals.ItemsSubtotal.StringFixed(2),
			TaxPrice:      c.Totals.Tax.StringFixed(2),
			ShippingPrice: c.Totals.Shipping.StringFixed(2),
			TotalPrice:    c.Totals.Total.StringFixed(2),
		},
		Rejections: rejections,
	}
}

// Owner resolves the cart owner for the request: the authenticated user when
// present, otherwise a guest token cookie minted on first write.
func (h *Handler) Owner(w http.ResponseWriter, r *http.Request, mint bool) (string, bool) {
	if userID, ok := common.UserID(r.Context()); ok {
		return "user:" + userID, true
	}
	if c, err := r.Cookie(h.GuestCookie); err == nil && c.Value != "" {
		return "guest:" + c.Value, true
	}
	if !mint {
		return "", false
	}
	token := uuid.NewString()
	maxAge := int((7 * 24 * time.Hour).Seconds())
	if h.CookieTTL > 0 {
		maxAge = int(h.CookieTTL.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.GuestCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return "guest:" + token, true
}

func decodeItems(r *http.Request) ([]ItemRequest, error) {
	var payload itemsPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		return nil, errors.New("items must be a list")
	}
	for _, item := range payload.Items {
		if err := validate.Struct(item); err != nil {
			return nil, err
		}
	}
	return payload.Items, nil
}

// Quote validates guest-submitted items against the catalog and returns the
// priced result without persisting anything.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	reqs, err := decodeItems(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, "invalid items payload", nil)
		return
	}
	result, err := h.Validator.Validate(r.Context(), reqs)
	if err != nil {
		h.writeValidateError(w, err)
		return
	}
	observeRejections(result.Rejections)
	quoted := h.Agg.Replace(h.Agg.Empty(), result.Items)
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(quoted, result.Rejections)})
}

// Get returns the owner's stored cart, or an empty cart when none exists.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.Owner(w, r, false)
	if !ok {
		common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(h.Agg.Empty(), nil)})
		return
	}
	c, found, err := h.Store.Load(r.Context(), owner)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load cart", nil)
		return
	}
	if !found {
		c = h.Agg.Empty()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(c, nil)})
}

// AddItem validates a single requested item against the catalog and merges it
// into the stored cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, "invalid item payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, "invalid item payload", nil)
		return
	}
	result, err := h.Validator.Validate(r.Context(), []ItemRequest{req})
	if err != nil {
		h.writeValidateError(w, err)
		return
	}
	if len(result.Rejections) > 0 {
		observeRejections(result.Rejections)
		obs.ObserveCartMutation("add", "rejected")
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeMutationRejected, result.Rejections[0].Message, result.Rejections)
		return
	}

	owner, _ := h.Owner(w, r, true)
	c, found, err := h.Store.Load(r.Context(), owner)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load cart", nil)
		return
	}
	if !found {
		c = h.Agg.Empty()
	}
	next, err := h.Agg.AddItem(c, result.Items[0])
	if err != nil {
		obs.ObserveCartMutation("add", "rejected")
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeMutationRejected, err.Error(), nil)
		return
	}
	if err := h.Store.Save(r.Context(), owner, next); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to save cart", nil)
		return
	}
	obs.ObserveCartMutation("add", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(next, nil)})
}

// UpdateQuantity sets the quantity of one line item in the stored cart.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	var payload qtyPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, "invalid quantity payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, "invalid quantity payload", nil)
		return
	}
	owner, ok := h.Owner(w, r, false)
	if !ok {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart not found", nil)
		return
	}
	c, found, err := h.Store.Load(r.Context(), owner)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load cart", nil)
		return
	}
	if !found {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart not found", nil)
		return
	}
	next, err := h.Agg.UpdateQuantity(c, productID, payload.Qty)
	if err != nil {
		obs.ObserveCartMutation("update_qty", "rejected")
		switch {
		case errors.Is(err, ErrItemNotFound):
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "item not in cart", nil)
		default:
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeMutationRejected, "quantity out of range", nil)
		}
		return
	}
	if err := h.Store.Save(r.Context(), owner, next); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to save cart", nil)
		return
	}
	obs.ObserveCartMutation("update_qty", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(next, nil)})
}

// RemoveItem deletes one line item from the stored cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	owner, ok := h.Owner(w, r, false)
	if !ok {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart not found", nil)
		return
	}
	c, found, err := h.Store.Load(r.Context(), owner)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load cart", nil)
		return
	}
	if !found {
		c = h.Agg.Empty()
	}
	next := h.Agg.RemoveItem(c, productID)
	if err := h.Store.Save(r.Context(), owner, next); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to save cart", nil)
		return
	}
	obs.ObserveCartMutation("remove", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(next, nil)})
}

// Clear resets the stored cart to the empty state.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.Owner(w, r, false)
	if ok {
		if err := h.Store.Delete(r.Context(), owner); err != nil {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to clear cart", nil)
			return
		}
	}
	obs.ObserveCartMutation("clear", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(h.Agg.Empty(), nil)})
}

// Sync validates the submitted items and replaces the stored cart with the
// accepted ones, reporting every rejection alongside.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	reqs, err := decodeItems(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, "invalid items payload", nil)
		return
	}
	result, err := h.Validator.Validate(r.Context(), reqs)
	if err != nil {
		h.writeValidateError(w, err)
		return
	}
	observeRejections(result.Rejections)
	owner, _ := h.Owner(w, r, true)
	next := h.Agg.Replace(h.Agg.Empty(), result.Items)
	if err := h.Store.Save(r.Context(), owner, next); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to save cart", nil)
		return
	}
	obs.ObserveCartMutation("sync", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": toCartDTO(next, result.Rejections)})
}

func (h *Handler) writeValidateError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidFormat) {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidFormat, err.Error(), nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to validate items", nil)
}

func observeRejections(rejections []Rejection) {
	for _, rej := range rejections {
		obs.ObserveValidationRejection(rej.Code)
	}
}
