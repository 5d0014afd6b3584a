package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartLineDoc struct {
	ProductID      string  `bson:"product_id"`
	Quantity       int     `bson:"quantity"`
	UnitPrice      float64 `bson:"unit_price"`
	Price          float64 `bson:"price"`
	TaxAmount      float64 `bson:"tax_amount"`
	ShippingAmount float64 `bson:"shipping_amount"`
	TotalPrice     float64 `bson:"total_price"`
}

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []cartLineDoc      `bson:"items"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d cartDoc) toModel() *models.Cart {
	out := &models.Cart{
		ID:        d.ID.Hex(),
		Items:     make([]models.CartLine, 0, len(d.Items)),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	out.UserID, _ = uuid.Parse(d.UserID)

	for _, l := range d.Items {
		out.Items = append(out.Items, models.CartLine(l))
	}

	return out
}

// CartByUser возвращает корзину пользователя. Если её нет — storage.ErrNotFound.
func (m *Mongo) CartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	const op = "storage/mongo/CartByUser"

	var doc cartDoc
	if err := m.carts.FindOne(ctx, bson.D{{Key: "user_id", Value: userID.String()}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// SaveCartItems заменяет строки корзины одним upsert по user_id.
// Два первых upsert одновременно упираются в уникальный индекс: проигравший
// повторяет запись один раз и уже обновляет созданный документ (побеждает
// последняя запись). Повторный конфликт — storage.ErrConflict.
func (m *Mongo) SaveCartItems(ctx context.Context, userID uuid.UUID, items []models.CartLine) (*models.Cart, error) {
	const op = "storage/mongo/SaveCartItems"

	docs := make([]cartLineDoc, 0, len(items))
	for _, l := range items {
		docs = append(docs, cartLineDoc(l))
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	upsert := func() (cartDoc, error) {
		var doc cartDoc
		err := m.carts.FindOneAndUpdate(ctx,
			bson.D{{Key: "user_id", Value: userID.String()}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "items", Value: docs},
				{Key: "updated_at", Value: now()},
			}}},
			opts,
		).Decode(&doc)
		return doc, err
	}

	doc, err := upsert()
	if mongodriver.IsDuplicateKeyError(err) {
		doc, err = upsert()
	}
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// RemoveCartItem убирает строку через $pull. Нет корзины или строки — не ошибка.
func (m *Mongo) RemoveCartItem(ctx context.Context, userID uuid.UUID, productID string) error {
	const op = "storage/mongo/RemoveCartItem"

	_, err := m.carts.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID.String()}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "items", Value: bson.D{{Key: "product_id", Value: productID}}}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteCartByUser удаляет документ корзины пользователя.
func (m *Mongo) DeleteCartByUser(ctx context.Context, userID uuid.UUID) error {
	const op = "storage/mongo/DeleteCartByUser"

	if _, err := m.carts.DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID.String()}}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteCart удаляет корзину по id, если она принадлежит userID.
// Некорректный или чужой id — no-op.
func (m *Mongo) DeleteCart(ctx context.Context, cartID string, userID uuid.UUID) error {
	const op = "storage/mongo/DeleteCart"

	oid, err := parseOID(cartID)
	if err != nil {
		return nil
	}

	_, err = m.carts.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: oid},
		{Key: "user_id", Value: userID.String()},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
