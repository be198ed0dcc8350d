package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sellside/storefront/internal/common"
)

// Handler wires the catalog service to HTTP.
type Handler struct {
	Service *Service
}

// NewHandler constructs a catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

type productDTO struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Price      string  `json:"price"`
	Stock      int     `json:"stock"`
	CategoryID *string `json:"categoryId,omitempty"`
}

func toProductDTO(p Product) productDTO {
	return productDTO{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Price:      p.Price.StringFixed(2),
		Stock:      p.Stock,
		CategoryID: p.CategoryID,
	}
}

// Products lists catalog products with pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	page := common.AtoiDefault(r.URL.Query().Get("page"), 1)
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 0)

	result, err := h.Service.List(r.Context(), page, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to list products", nil)
		return
	}
	items := make([]productDTO, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, toProductDTO(p))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"pagination": map[string]any{
			"page":        result.Page,
			"per_page":    result.Limit,
			"total_items": result.Total,
		},
	})
}

// ProductDetail returns a single product by slug.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "missing product slug", nil)
		return
	}
	p, err := h.Service.Detail(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toProductDTO(p)})
}
