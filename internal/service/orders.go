package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/pkg/log"

	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/payment"
	"github.com/pribylovaa/go-social-shop/internal/storage"
)

// paymentStatusPaid — статус, записываемый в PaymentResult после проверки подписи.
const paymentStatusPaid = "paid"

// CreatePaymentIntent — заказ на оплату текущей корзины пользователя.
// Сумма = TotalPrice агрегата в минимальных единицах валюты.
//
// Поведение/ошибки:
//   - ErrNotFound — корзины нет; ErrInvalidArgument — корзина пуста;
//   - ErrPaymentGateway — шлюз вернул ошибку.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID uuid.UUID) (*models.PaymentIntent, *models.Cart, models.CartAggregate, error) {
	const op = "service/orders/CreatePaymentIntent"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())
	var zero models.CartAggregate

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, nil, zero, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	cart, err := s.storage.CartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("cart not found")
			return nil, nil, zero, fmt.Errorf("%s: %w: cart", op, ErrNotFound)
		}

		lg.Error("storage error on CartByUser", "err", err)
		return nil, nil, zero, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if len(cart.Items) == 0 {
		lg.Warn("invalid argument: empty cart")
		return nil, nil, zero, fmt.Errorf("%s: %w: cart is empty", op, ErrInvalidArgument)
	}

	agg := AggregateCart(cart.Items)
	amount := toMinorUnits(agg.TotalPrice)

	intent, err := s.gateway.CreateIntent(ctx, amount, s.cfg.Payment.Currency, cart.ID)
	if err != nil {
		lg.Error("payment gateway error", "amount", amount, "err", err)
		return nil, nil, zero, fmt.Errorf("%s: %w", op, ErrPaymentGateway)
	}

	return intent, cart, agg, nil
}

// ReconcilePayment — превращает подтверждённый платёж в заказ и удаляет корзину.
//
// Порядок:
//  1. HMAC-SHA256(secret, gateway_order_id|gateway_payment_id) сверяется с подписью;
//     несовпадение — ErrPaymentVerification, заказ не создаётся, корзина не трогается.
//  2. Создаётся заказ (pending, paid_at=now) с суммами из колбэка либо, при
//     checkout.recompute_totals, с суммами живой корзины.
//  3. Удаляется корзина cb.CartID (или корзина пользователя, если CartID пуст).
//
// Повтор того же gateway_payment_id возвращает уже созданный заказ, если он
// принадлежит userID; чужой заказ — ErrPaymentVerification без удаления корзины.
// При checkout.recompute_totals повтор распознаётся до чтения живой корзины и
// корзину не трогает. Сбой удаления корзины после создания заказа логируется
// и не делает операцию неуспешной.
func (s *Service) ReconcilePayment(ctx context.Context, userID uuid.UUID, cb models.PaymentCallback) (*models.Order, error) {
	const op = "service/orders/ReconcilePayment"

	cb.GatewayOrderID = strings.TrimSpace(cb.GatewayOrderID)
	cb.GatewayPaymentID = strings.TrimSpace(cb.GatewayPaymentID)
	cb.CartID = strings.TrimSpace(cb.CartID)

	lg := log.From(ctx).With(
		"op", op,
		"user_id", userID.String(),
		"gateway_order_id", cb.GatewayOrderID,
		"gateway_payment_id", cb.GatewayPaymentID,
	)

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if cb.GatewayOrderID == "" || cb.GatewayPaymentID == "" {
		lg.Warn("invalid argument: empty gateway ids")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if !payment.VerifySignature(s.cfg.Payment.KeySecret, cb.GatewayOrderID, cb.GatewayPaymentID, cb.Signature) {
		paymentsReconciled.WithLabelValues("signature_mismatch").Inc()
		lg.Warn("payment signature mismatch")
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentVerification)
	}

	items := cb.Items
	totals := cb.Totals
	cartID := cb.CartID

	if s.cfg.Checkout.RecomputeTotals {
		existing, err := s.storage.OrderByPaymentID(ctx, cb.GatewayPaymentID)
		switch {
		case err == nil:
			// Корзина первого колбэка уже удалена, живая относится к следующей покупке.
			if err := checkReplayOwner(lg, userID, existing); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			paymentsReconciled.WithLabelValues("duplicate").Inc()
			lg.Info("payment reconciled", "order_id", existing.ID, "result", "duplicate")
			return existing, nil
		case !errors.Is(err, storage.ErrNotFound):
			lg.Error("storage error on OrderByPaymentID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}

		cart, err := s.storage.CartByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				lg.Warn("cart not found for server-side totals")
				return nil, fmt.Errorf("%s: %w: cart", op, ErrNotFound)
			}

			lg.Error("storage error on CartByUser", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}

		totals = AggregateCart(cart.Items)
		items = make([]models.OrderItem, 0, len(cart.Items))
		for _, l := range cart.Items {
			items = append(items, models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		cartID = cart.ID
	}

	order, err := s.storage.CreateOrder(ctx, models.Order{
		UserID: userID,
		Items:  items,
		Payment: models.PaymentResult{
			ExternalID:       cb.ExternalID,
			Status:           paymentStatusPaid,
			GatewayOrderID:   cb.GatewayOrderID,
			GatewayPaymentID: cb.GatewayPaymentID,
			Signature:        cb.Signature,
		},
		ShippingAddress: cb.ShippingAddress,
		Status:          models.OrderPending,
		Price:           totals.Price,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		PaidAt:          s.now(),
	})

	result := "success"
	if err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			lg.Error("storage error on CreateOrder", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}

		// Повторный колбэк того же платежа.
		order, err = s.storage.OrderByPaymentID(ctx, cb.GatewayPaymentID)
		if err != nil {
			lg.Error("storage error on OrderByPaymentID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
		if err := checkReplayOwner(lg, userID, order); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = "duplicate"
	}

	var delErr error
	if cartID != "" {
		delErr = s.storage.DeleteCart(ctx, cartID, userID)
	} else {
		delErr = s.storage.DeleteCartByUser(ctx, userID)
	}
	if delErr != nil {
		lg.Error("cart teardown failed after order creation", "order_id", order.ID, "cart_id", cartID, "err", delErr)
	}

	paymentsReconciled.WithLabelValues(result).Inc()
	lg.Info("payment reconciled", "order_id", order.ID, "result", result)

	return order, nil
}

// checkReplayOwner — повторный колбэк засчитывается только владельцу заказа.
func checkReplayOwner(lg *slog.Logger, userID uuid.UUID, order *models.Order) error {
	if order.UserID == userID {
		return nil
	}

	paymentsReconciled.WithLabelValues("foreign_replay").Inc()
	lg.Warn("replayed payment belongs to another user", "order_id", order.ID)
	return ErrPaymentVerification
}

// ListOrders — заказы пользователя, новые первыми.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	const op = "service/orders/ListOrders"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	out, err := s.storage.ListOrdersByUser(ctx, userID)
	if err != nil {
		lg.Error("storage error on ListOrdersByUser", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return out, nil
}

// OrderByID — заказ по id. Чужой заказ для не-админа неотличим от отсутствующего (ErrNotFound).
func (s *Service) OrderByID(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	const op = "service/orders/OrderByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", actor.UserID.String(), "id", id)

	if actor.UserID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	order, err := s.storage.OrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("order not found")
			return nil, fmt.Errorf("%s: %w: order", op, ErrNotFound)
		}

		lg.Error("storage error on OrderByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if order.UserID != actor.UserID && !actor.IsAdmin() {
		lg.Warn("order of another user requested")
		return nil, fmt.Errorf("%s: %w: order", op, ErrNotFound)
	}

	return order, nil
}

// UpdateOrderStatus — изменение статуса и/или даты доставки заказа администратором.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor models.Actor, id string, patch models.OrderStatusPatch) (*models.Order, error) {
	const op = "service/orders/UpdateOrderStatus"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", actor.UserID.String(), "id", id)

	if actor.UserID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if !actor.IsAdmin() {
		lg.Warn("permission denied: admin only")
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if id == "" || (patch.Status == nil && patch.DeliverAt == nil) {
		lg.Warn("invalid argument: empty id or patch")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if patch.Status != nil && !patch.Status.Valid() {
		lg.Warn("invalid argument: unknown order status", "status", string(*patch.Status))
		return nil, fmt.Errorf("%s: %w: unknown order status %q", op, ErrInvalidArgument, string(*patch.Status))
	}

	order, err := s.storage.UpdateOrderStatus(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("order not found")
			return nil, fmt.Errorf("%s: %w: order", op, ErrNotFound)
		}

		lg.Error("storage error on UpdateOrderStatus", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return order, nil
}
