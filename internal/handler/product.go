package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/vat-catalog/internal/domain/pricing"
	"github.com/xenking/vat-catalog/internal/domain/product"
)

// ListProducts serves GET /products?country={name}.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if strings.TrimSpace(country) == "" {
		writeError(w, r, http.StatusBadRequest, "country query parameter is required")
		return
	}

	products, err := h.products.ListByCountry(r.Context(), country)
	if err != nil {
		if errors.Is(err, product.ErrUnsupportedCountry) {
			writeError(w, r, http.StatusBadRequest, unsupportedCountryMessage(country))
			return
		}
		zctx.From(r.Context()).Error("List products", zap.String("country", country), zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "catalog store unavailable")
		return
	}

	writeProducts(w, products)
}

// GetProduct serves GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, ok, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		zctx.From(r.Context()).Error("Get product", zap.String("product_id", id), zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "catalog store unavailable")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("product %q not found", id))
		return
	}

	writeProduct(w, http.StatusOK, *p)
}

// CreateProduct serves POST /products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	np, err := decodeNewProduct(data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.Create(r.Context(), np)
	if err != nil {
		var ipErr *product.InvalidProductError
		switch {
		case errors.As(err, &ipErr):
			writeError(w, r, http.StatusBadRequest, ipErr.Error())
		case errors.Is(err, product.ErrUnsupportedCountry):
			writeError(w, r, http.StatusBadRequest, unsupportedCountryMessage(np.Country))
		case errors.Is(err, product.ErrAlreadyExists):
			writeError(w, r, http.StatusConflict, fmt.Sprintf("product %q already exists", np.ID))
		default:
			zctx.From(r.Context()).Error("Create product", zap.String("product_id", np.ID), zap.Error(err))
			writeError(w, r, http.StatusServiceUnavailable, "catalog store unavailable")
		}
		return
	}

	writeProduct(w, http.StatusCreated, *p)
}

func unsupportedCountryMessage(country string) string {
	supported := make([]string, 0, 3)
	for _, c := range pricing.Countries() {
		supported = append(supported, string(c))
	}
	return fmt.Sprintf("unsupported country %q, expected one of: %s", country, strings.Join(supported, ", "))
}
