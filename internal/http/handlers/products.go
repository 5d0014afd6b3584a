package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-shop/internal/errors"
	"github.com/pribylovaa/go-social-shop/internal/models"
)

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.ProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, "get product", err)
		return
	}

	writeJSON(w, http.StatusOK, productFromModel(p))
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const action = "create product"

	var in CreateProductRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	p, err := h.svc.CreateProduct(r.Context(), actorFrom(r), models.Product{
		Name:  in.Name,
		Price: in.Price,
		Stock: in.Stock,
	})
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	writeJSON(w, http.StatusCreated, productFromModel(p))
}
