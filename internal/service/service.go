// service содержит бизнес-логику shop-service: дерево комментариев, корзина и сверка платежей.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pribylovaa/go-social-shop/internal/cache"
	"github.com/pribylovaa/go-social-shop/internal/config"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrParentNotFound — родительский комментарий не найден в ветке.
	ErrParentNotFound = errors.New("parent comment not found")
	// ErrMaxDepthExceeded — ответ на ответ запрещён.
	ErrMaxDepthExceeded = errors.New("replies to replies are not allowed")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict — конкурентная запись в ту же сущность.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated — операция требует аутентифицированного пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied — недостаточно прав (админские операции).
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPaymentVerification — подпись платёжного колбэка не совпала.
	ErrPaymentVerification = errors.New("payment verification failed")
	// ErrPaymentGateway — платёжный шлюз недоступен или ответил ошибкой.
	ErrPaymentGateway = errors.New("payment gateway error")
	// ErrInternal — внутренняя ошибка (стораж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// PaymentGateway — внешний платёжный шлюз.
type PaymentGateway interface {
	// CreateIntent создаёт заказ на оплату amount (минимальные единицы валюты).
	CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*models.PaymentIntent, error)
}

// Service — описывает бизнес-логику shop-service.
type Service struct {
	storage   storage.Storage
	gateway   PaymentGateway
	pcache    cache.ProductCache // может быть nil, если кэш не сконфигурирован
	cfg       config.Config
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(storage storage.Storage, gateway PaymentGateway, cfg config.Config) *Service {
	return &Service{
		storage:   storage,
		gateway:   gateway,
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetProductCache устанавливает кэш карточек товаров (опционально).
func (s *Service) SetProductCache(c cache.ProductCache) {
	s.pcache = c
}
