package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/pkg/log"

	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"
)

// Cart возвращает корзину пользователя и её агрегат.
// Если корзины нет — пустая корзина (ID == "") и нулевой агрегат.
func (s *Service) Cart(ctx context.Context, userID uuid.UUID) (*models.Cart, models.CartAggregate, error) {
	const op = "service/cart/Cart"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, models.CartAggregate{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		lg.Error("storage error on CartByUser", "err", err)
		return nil, models.CartAggregate{}, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return cart, AggregateCart(cart.Items), nil
}

// loadCart — корзина пользователя или пустая заготовка, если её ещё нет.
func (s *Service) loadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.storage.CartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &models.Cart{UserID: userID, Items: []models.CartLine{}}, nil
		}

		return nil, err
	}

	return cart, nil
}

// UpsertCartLine — добавить товар в корзину или перезаписать его количество.
//
// Цена берётся из товара (цене клиента не доверяем), строка пересчитывается целиком.
// После вызова в корзине ровно одна строка на productID.
//
// Поведение/ошибки:
//   - quantity <= 0 — ErrInvalidArgument (для удаления есть RemoveCartLine);
//   - ErrNotFound — товара нет; корзина при этом не изменяется;
//   - ErrConflict — корзину параллельно создал другой запрос;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) UpsertCartLine(ctx context.Context, userID uuid.UUID, productID string, quantity int) (*models.Cart, error) {
	const op = "service/cart/UpsertCartLine"

	productID = strings.TrimSpace(productID)
	lg := log.From(ctx).With("op", op, "user_id", userID.String(), "product_id", productID, "quantity", quantity)

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if productID == "" {
		lg.Warn("invalid argument: empty product_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if quantity <= 0 {
		lg.Warn("invalid argument: non-positive quantity")
		return nil, fmt.Errorf("%s: %w: quantity must be positive", op, ErrInvalidArgument)
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		lg.Error("storage error on CartByUser", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	product, err := s.storage.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("product not found")
			return nil, fmt.Errorf("%s: %w: product", op, ErrNotFound)
		}

		lg.Error("storage error on ProductByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	items := upsertLine(cart.Items, PriceLine(product.ID, product.Price, quantity))

	saved, err := s.storage.SaveCartItems(ctx, userID, items)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			lg.Warn("concurrent cart creation")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}

		lg.Error("storage error on SaveCartItems", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return saved, nil
}

// RemoveCartLine — убрать строку productID. Нет строки или корзины — не ошибка.
// Удаление последней строки оставляет пустую корзину.
func (s *Service) RemoveCartLine(ctx context.Context, userID uuid.UUID, productID string) error {
	const op = "service/cart/RemoveCartLine"

	productID = strings.TrimSpace(productID)
	lg := log.From(ctx).With("op", op, "user_id", userID.String(), "product_id", productID)

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if productID == "" {
		lg.Warn("invalid argument: empty product_id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.storage.RemoveCartItem(ctx, userID, productID); err != nil {
		lg.Error("storage error on RemoveCartItem", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}

// ClearCart — удалить документ корзины целиком.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	const op = "service/cart/ClearCart"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("unauthenticated")
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if err := s.storage.DeleteCartByUser(ctx, userID); err != nil {
		lg.Error("storage error on DeleteCartByUser", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}
