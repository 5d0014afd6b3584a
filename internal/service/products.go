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

// ProductByID — товар каталога. При настроенном кэше читает сначала из него;
// сбой кэша не фатален, запрос уходит в хранилище.
// Цены для корзины берутся мимо кэша (см. UpsertCartLine).
func (s *Service) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	const op = "service/products/ProductByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if s.pcache != nil {
		p, ok, err := s.pcache.Get(ctx, id)
		if err != nil {
			lg.Warn("product cache get failed", "err", err)
		} else if ok {
			return p, nil
		}
	}

	p, err := s.storage.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("product not found")
			return nil, fmt.Errorf("%s: %w: product", op, ErrNotFound)
		}

		lg.Error("storage error on ProductByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.cacheProduct(ctx, p)

	return p, nil
}

// cacheProduct кладёт товар в кэш; ошибка только логируется.
func (s *Service) cacheProduct(ctx context.Context, p *models.Product) {
	if s.pcache == nil {
		return
	}

	if err := s.pcache.Set(ctx, p, s.cfg.Cache.ProductTTL); err != nil {
		log.From(ctx).Warn("product cache set failed", "id", p.ID, "err", err)
	}
}

// CreateProduct — добавление товара администратором.
// Валидация: name не пуст после TrimSpace, price >= 0, stock >= 0.
func (s *Service) CreateProduct(ctx context.Context, actor models.Actor, p models.Product) (*models.Product, error) {
	const op = "service/products/CreateProduct"

	lg := log.From(ctx).With("op", op, "user_id", actor.UserID.String())

	if actor.UserID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if !actor.IsAdmin() {
		lg.Warn("permission denied: admin only")
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price < 0 || p.Stock < 0 {
		lg.Warn("invalid argument: product fields", "name", p.Name, "price", p.Price, "stock", p.Stock)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	out, err := s.storage.CreateProduct(ctx, p)
	if err != nil {
		lg.Error("storage error on CreateProduct", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.cacheProduct(ctx, out)

	return out, nil
}
