// errors стандартизирует ответы об ошибках HTTP-слоя shop-service.
// На вход принимается ошибка сервисного слоя (сентинелы service.Err*),
// а на выход даётся:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code;
//   - плоское сообщение "failed to <action>: <reason>" без внутренних деталей.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-social-shop/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type mapping struct {
	target error
	status int
	code   string
	// client=true: причина берётся из текста ошибки начиная с сентинела.
	client bool
}

// table — порядок важен: более специфичные сентинелы раньше общих.
var table = []mapping{
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", true},
	{service.ErrParentNotFound, http.StatusNotFound, "parent_not_found", true},
	{service.ErrNotFound, http.StatusNotFound, "not_found", true},
	{service.ErrMaxDepthExceeded, http.StatusUnprocessableEntity, "max_depth_exceeded", true},
	{service.ErrConflict, http.StatusConflict, "conflict", true},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", true},
	{service.ErrPermissionDenied, http.StatusForbidden, "permission_denied", true},
	{service.ErrPaymentVerification, http.StatusBadRequest, "payment_verification_failed", true},
	{service.ErrPaymentGateway, http.StatusBadGateway, "payment_gateway", false},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", false},
	{context.Canceled, StatusClientClosedRequest, "canceled", false},
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и ответ.
// action — что пытались сделать ("create comment"), попадает в message.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - неизвестная ошибка — 500/internal без утечки деталей.
func ToHTTP(action string, err error) (int, ErrorResponse) {
	if err != nil {
		for _, m := range table {
			if !errors.Is(err, m.target) {
				continue
			}

			reason := m.target.Error()
			if m.client {
				reason = reasonFrom(err, m.target)
			}

			return m.status, ErrorResponse{Error: APIError{Code: m.code, Message: message(action, reason)}}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: message(action, "internal error"),
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, resp := ToHTTP(action, err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func message(action, reason string) string {
	if action == "" {
		return reason
	}

	return "failed to " + action + ": " + reason
}

// reasonFrom отрезает префиксы op ("service/cart/UpsertCartLine: ") и оставляет
// сентинел с уточнением, например "invalid argument: quantity must be positive".
func reasonFrom(err, target error) string {
	msg := err.Error()
	if i := strings.Index(msg, target.Error()); i >= 0 {
		return msg[i:]
	}

	return target.Error()
}
