package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-shop/internal/errors"
)

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListOrders(r.Context(), actorFrom(r).UserID)
	if err != nil {
		apierrors.WriteError(w, r, "list orders", err)
		return
	}

	out := ListOrdersResponse{Orders: make([]Order, 0, len(list))}
	for i := range list {
		out.Orders = append(out.Orders, orderFromModel(&list[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.OrderByID(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, orderFromModel(o))
}

func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	const action = "update order"

	var in UpdateOrderRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	o, err := h.svc.UpdateOrderStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), in.toModel())
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	writeJSON(w, http.StatusOK, orderFromModel(o))
}
