package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-social-shop/internal/auth"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/service"
)

// ShopService — операции сервисного слоя, доступные через HTTP (реализуется *service.Service).
type ShopService interface {
	ListTopLevelComments(ctx context.Context, threadID string) ([]models.ExpandedComment, error)
	CreateComment(ctx context.Context, actorID uuid.UUID, threadID, message string) (*models.Comment, error)
	ReplyToComment(ctx context.Context, actorID uuid.UUID, threadID, parentID, message string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actorID uuid.UUID, threadID, commentID string) error

	ProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, actor models.Actor, p models.Product) (*models.Product, error)

	Cart(ctx context.Context, userID uuid.UUID) (*models.Cart, models.CartAggregate, error)
	UpsertCartLine(ctx context.Context, userID uuid.UUID, productID string, quantity int) (*models.Cart, error)
	RemoveCartLine(ctx context.Context, userID uuid.UUID, productID string) error
	ClearCart(ctx context.Context, userID uuid.UUID) error

	CreatePaymentIntent(ctx context.Context, userID uuid.UUID) (*models.PaymentIntent, *models.Cart, models.CartAggregate, error)
	ReconcilePayment(ctx context.Context, userID uuid.UUID, cb models.PaymentCallback) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	OrderByID(ctx context.Context, actor models.Actor, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, actor models.Actor, id string, patch models.OrderStatusPatch) (*models.Order, error)
}

// Handlers агрегирует зависимости REST-слоя.
type Handlers struct {
	svc ShopService
	// paymentKeyID — публичный ключ шлюза, нужен клиентскому виджету оплаты.
	paymentKeyID string
}

func New(svc ShopService, paymentKeyID string) *Handlers {
	return &Handlers{svc: svc, paymentKeyID: paymentKeyID}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return errInvalidArgument("malformed request body")
	}
	return nil
}

// errInvalidArgument — локальная ошибка парсинга -> service.ErrInvalidArgument.
func errInvalidArgument(reason string) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidArgument, reason)
}

// actorFrom — актор запроса; анонимный запрос даёт нулевого актора,
// и сервисный слой отвечает ErrUnauthenticated.
func actorFrom(r *http.Request) models.Actor {
	a, _ := auth.ActorFrom(r.Context())
	return a
}
