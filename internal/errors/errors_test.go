package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pribylovaa/go-social-shop/internal/service"
	"github.com/stretchr/testify/require"
)

func TestToHTTP_Mapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"not_found", service.ErrNotFound, http.StatusNotFound, "not_found"},
		{"parent_not_found", service.ErrParentNotFound, http.StatusNotFound, "parent_not_found"},
		{"max_depth", service.ErrMaxDepthExceeded, http.StatusUnprocessableEntity, "max_depth_exceeded"},
		{"conflict", service.ErrConflict, http.StatusConflict, "conflict"},
		{"unauth", service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"perm_denied", service.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
		{"payment_verification", service.ErrPaymentVerification, http.StatusBadRequest, "payment_verification_failed"},
		{"payment_gateway", service.ErrPaymentGateway, http.StatusBadGateway, "payment_gateway"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled"},
		{"internal", service.ErrInternal, http.StatusInternalServerError, "internal"},
		{"unknown", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service/x/Op: %w", tc.in)
			gotStatus, resp := ToHTTP("do thing", wrapped)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.Contains(t, resp.Error.Message, "failed to do thing: ")
			require.NotContains(t, resp.Error.Message, "service/x/Op")
		})
	}
}

func TestToHTTP_FlattenedReason(t *testing.T) {
	err := fmt.Errorf("%s: %w: quantity must be positive", "service/cart/UpsertCartLine", service.ErrInvalidArgument)

	_, resp := ToHTTP("update cart", err)
	require.Equal(t, "failed to update cart: invalid argument: quantity must be positive", resp.Error.Message)

	_, resp = ToHTTP("create comment", errors.New("secret dsn leaked"))
	require.Equal(t, "failed to create comment: internal error", resp.Error.Message)
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP("", nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_WritesEnvelope(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.Header.Set("X-Request-Id", "rid-7")
	w := httptest.NewRecorder()

	WriteError(w, r, "load cart", fmt.Errorf("op: %w", service.ErrUnauthenticated))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "unauthenticated", body.Error.Code)
	require.Equal(t, "rid-7", body.Error.RequestID)
	require.Equal(t, "failed to load cart: unauthenticated", body.Error.Message)
}
