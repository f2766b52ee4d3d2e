// Package handler exposes the catalog over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/vat-catalog/internal/domain/discount"
	"github.com/xenking/vat-catalog/internal/domain/product"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ProductService reads and creates catalog products.
type ProductService interface {
	ListByCountry(ctx context.Context, country string) ([]product.Product, error)
	GetByID(ctx context.Context, id string) (*product.Product, bool, error)
	Create(ctx context.Context, np product.NewProduct) (*product.Product, error)
}

// DiscountService attaches discounts to products.
type DiscountService interface {
	Apply(ctx context.Context, productID string, d product.Discount) discount.Result
}

// Handler serves the catalog routes, delegating business logic to the
// product and discount services.
type Handler struct {
	products  ProductService
	discounts DiscountService
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(products ProductService, discounts DiscountService) *Handler {
	return &Handler{
		products:  products,
		discounts: discounts,
	}
}

// Register mounts the catalog routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.ListProducts)
	mux.HandleFunc("POST /products", h.CreateProduct)
	mux.HandleFunc("GET /products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /products/{id}/discount", h.ApplyDiscount)
}
