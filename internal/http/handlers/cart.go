package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-shop/internal/errors"
	"github.com/pribylovaa/go-social-shop/internal/service"
)

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, agg, err := h.svc.Cart(r.Context(), actorFrom(r).UserID)
	if err != nil {
		apierrors.WriteError(w, r, "load cart", err)
		return
	}

	writeJSON(w, http.StatusOK, cartFromModel(cart, agg))
}

// UpsertCartLine — PUT /cart/items/{product_id} {quantity}; в ответе корзина целиком.
func (h *Handlers) UpsertCartLine(w http.ResponseWriter, r *http.Request) {
	const action = "update cart"

	var in UpsertCartLineRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	cart, err := h.svc.UpsertCartLine(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "product_id"), in.Quantity)
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	writeJSON(w, http.StatusOK, cartFromModel(cart, service.AggregateCart(cart.Items)))
}

func (h *Handlers) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveCartLine(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "product_id")); err != nil {
		apierrors.WriteError(w, r, "remove cart item", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCart(r.Context(), actorFrom(r).UserID); err != nil {
		apierrors.WriteError(w, r, "clear cart", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
