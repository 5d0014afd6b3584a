package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

type productDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Price     float64            `bson:"price"`
	Stock     int                `bson:"stock"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d productDoc) toModel() *models.Product {
	return &models.Product{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Price:     d.Price,
		Stock:     d.Stock,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// ProductByID возвращает товар. Если записи нет — storage.ErrNotFound.
func (m *Mongo) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage/mongo/ProductByID"

	oid, err := parseOID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc productDoc
	if err := m.products.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// CreateProduct сохраняет товар и возвращает его с проставленными ID/CreatedAt.
func (m *Mongo) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	const op = "storage/mongo/CreateProduct"

	doc := productDoc{
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: now(),
	}

	res, err := m.products.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}
	doc.ID = oid

	return doc.toModel(), nil
}
