package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-shop/internal/errors"
)

func (h *Handlers) ListTopLevelComments(w http.ResponseWriter, r *http.Request) {
	const action = "list comments"

	list, err := h.svc.ListTopLevelComments(r.Context(), chi.URLParam(r, "thread_id"))
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	out := ListCommentsResponse{Comments: make([]Comment, 0, len(list))}
	for _, c := range list {
		out.Comments = append(out.Comments, expandedFromModel(c))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	const action = "create comment"

	var in CommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	c, err := h.svc.CreateComment(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "thread_id"), in.Message)
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentFromModel(*c))
}

func (h *Handlers) ReplyToComment(w http.ResponseWriter, r *http.Request) {
	const action = "reply to comment"

	var in CommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	c, err := h.svc.ReplyToComment(r.Context(), actorFrom(r).UserID,
		chi.URLParam(r, "thread_id"), chi.URLParam(r, "id"), in.Message)
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentFromModel(*c))
}

// DeleteComment отвечает 204 и тогда, когда удалять было нечего.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	const action = "delete comment"

	err := h.svc.DeleteComment(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "thread_id"), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
