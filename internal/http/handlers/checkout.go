package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/pribylovaa/go-social-shop/internal/errors"
	"github.com/pribylovaa/go-social-shop/internal/service"
)

const (
	verifySuccess = "success"
	verifyFail    = "fail"
)

// CreatePaymentIntent — заказ на оплату агрегата текущей корзины.
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, cart, agg, err := h.svc.CreatePaymentIntent(r.Context(), actorFrom(r).UserID)
	if err != nil {
		apierrors.WriteError(w, r, "create payment intent", err)
		return
	}

	writeJSON(w, http.StatusCreated, PaymentIntentResponse{
		GatewayOrderID: intent.GatewayOrderID,
		Amount:         intent.Amount,
		Currency:       intent.Currency,
		KeyID:          h.paymentKeyID,
		Cart:           cartFromModel(cart, agg),
	})
}

// VerifyPayment — колбэк после оплаты в виджете шлюза.
// Ответ по контракту виджета: {message:"success"} или 400 {message:"fail"} при неверной подписи.
// Прочие ошибки (нет токена, битое тело, сбой БД) отдаются общим форматом ошибок.
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	const action = "verify payment"

	var in VerifyPaymentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, action, err)
		return
	}

	order, err := h.svc.ReconcilePayment(r.Context(), actorFrom(r).UserID, in.toModel())
	if err != nil {
		if errors.Is(err, service.ErrPaymentVerification) {
			writeJSON(w, http.StatusBadRequest, VerifyPaymentResponse{Message: verifyFail})
			return
		}

		apierrors.WriteError(w, r, action, err)
		return
	}

	writeJSON(w, http.StatusOK, VerifyPaymentResponse{Message: verifySuccess, OrderID: order.ID})
}
