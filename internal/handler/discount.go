package handler

import (
	"fmt"
	"net/http"

	"github.com/xenking/vat-catalog/internal/domain/discount"
)

// ApplyDiscount serves PUT /products/{id}/discount. AlreadyApplied is
// answered with 409 and the current product so the caller can reconcile
// without another read.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d, err := decodeDiscount(data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res := h.discounts.Apply(r.Context(), id, d)
	switch res.Outcome {
	case discount.OutcomeSuccess:
		writeProduct(w, http.StatusOK, *res.Product)
	case discount.OutcomeAlreadyApplied:
		writeProduct(w, http.StatusConflict, *res.Product)
	case discount.OutcomeProductNotFound:
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("product %q not found", res.ProductID))
	case discount.OutcomeValidationError:
		writeError(w, r, http.StatusBadRequest, res.Reason)
	default:
		writeError(w, r, http.StatusServiceUnavailable, "catalog store unavailable")
	}
}
