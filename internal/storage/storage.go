package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конфликт уникальности.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — указан parent, но его нет в этой ветке.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — попытка ответить на ответ.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
)

// CommentStorage — операции над деревом комментариев.
type CommentStorage interface {
	// CreateComment сохраняет комментарий. Для ответа (ParentID != "") сначала создаётся запись,
	// затем её id дописывается в reply_ids родителя (две одиночные записи, без транзакции).
	// Родитель должен принадлежать той же ветке и сам не быть ответом.
	// Вычисляемые хранилищем поля: ID, ReplyIDs, CreatedAt.
	// Возможные ошибки: ErrParentNotFound, ErrMaxDepthExceeded.
	CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error)

	// CommentInThread возвращает комментарий по (id, threadID).
	// Если запись не найдена (или лежит в другой ветке) — ErrNotFound.
	CommentInThread(ctx context.Context, id, threadID string) (*models.Comment, error)

	// DeleteComments удаляет комментарии по списку id. Отсутствующие id игнорируются.
	DeleteComments(ctx context.Context, ids []string) (int64, error)

	// ListTopLevel возвращает корневые комментарии ветки (старые первыми) с раскрытыми
	// ответами и авторами. Порядок ответов совпадает с reply_ids.
	ListTopLevel(ctx context.Context, threadID string) ([]models.ExpandedComment, error)
}

// ThreadStorage — поиск владельца контента (пост, аудио, видео).
type ThreadStorage interface {
	// ThreadOwner возвращает автора ветки. Если ветки нет — ErrNotFound.
	ThreadOwner(ctx context.Context, threadID string) (uuid.UUID, error)
}

// NotificationStorage — запись уведомлений.
type NotificationStorage interface {
	CreateNotification(ctx context.Context, n models.Notification) error
}

// ProductStorage — каталог товаров.
type ProductStorage interface {
	// ProductByID возвращает товар. Если его нет — ErrNotFound.
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
}

// CartStorage — корзины (одна на пользователя, уникальный индекс по user_id).
type CartStorage interface {
	// CartByUser возвращает корзину пользователя. Если её нет — ErrNotFound.
	CartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)

	// SaveCartItems целиком заменяет строки корзины пользователя, создавая корзину при отсутствии.
	// Одна запись в один документ: при гонке побеждает последний.
	SaveCartItems(ctx context.Context, userID uuid.UUID, items []models.CartLine) (*models.Cart, error)

	// RemoveCartItem убирает строку productID. Отсутствие строки или корзины — не ошибка.
	RemoveCartItem(ctx context.Context, userID uuid.UUID, productID string) error

	// DeleteCartByUser удаляет документ корзины целиком. Отсутствие корзины — не ошибка.
	DeleteCartByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteCart удаляет корзину по id, только если она принадлежит userID.
	// Отсутствие корзины — не ошибка.
	DeleteCart(ctx context.Context, cartID string, userID uuid.UUID) error
}

// OrderStorage — заказы.
type OrderStorage interface {
	// CreateOrder сохраняет заказ. Повтор gateway_payment_id — ErrConflict.
	CreateOrder(ctx context.Context, o models.Order) (*models.Order, error)

	// OrderByPaymentID ищет заказ по gateway_payment_id. Если нет — ErrNotFound.
	OrderByPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Order, error)

	// OrderByID возвращает заказ. Если нет — ErrNotFound.
	OrderByID(ctx context.Context, id string) (*models.Order, error)

	// ListOrdersByUser возвращает заказы пользователя, новые первыми.
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)

	// UpdateOrderStatus применяет patch и возвращает обновлённый заказ. Если нет — ErrNotFound.
	UpdateOrderStatus(ctx context.Context, id string, patch models.OrderStatusPatch) (*models.Order, error)
}

// Storage — всё хранилище сервиса.
type Storage interface {
	CommentStorage
	ThreadStorage
	NotificationStorage
	ProductStorage
	CartStorage
	OrderStorage

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
