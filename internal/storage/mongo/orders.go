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

type orderItemDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

type paymentResultDoc struct {
	ExternalID       string `bson:"id"`
	Status           string `bson:"status"`
	GatewayOrderID   string `bson:"gateway_order_id"`
	GatewayPaymentID string `bson:"gateway_payment_id"`
	Signature        string `bson:"signature"`
}

type shippingAddressDoc struct {
	Address    string `bson:"address"`
	City       string `bson:"city"`
	PostalCode string `bson:"postal_code"`
	Country    string `bson:"country"`
	Phone      string `bson:"phone"`
}

type orderDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          string             `bson:"user_id"`
	Items           []orderItemDoc     `bson:"order_items"`
	Payment         paymentResultDoc   `bson:"payment_result"`
	ShippingAddress shippingAddressDoc `bson:"shipping_address"`
	Status          string             `bson:"order_status"`
	Price           float64            `bson:"price"`
	TaxPrice        float64            `bson:"tax_price"`
	ShippingPrice   float64            `bson:"shipping_price"`
	TotalPrice      float64            `bson:"total_price"`
	PaidAt          time.Time          `bson:"paid_at"`
	DeliverAt       *time.Time         `bson:"deliver_at"`
	CreatedAt       time.Time          `bson:"created_at"`
}

func orderToDoc(o models.Order) orderDoc {
	doc := orderDoc{
		UserID:          o.UserID.String(),
		Items:           make([]orderItemDoc, 0, len(o.Items)),
		Payment:         paymentResultDoc(o.Payment),
		ShippingAddress: shippingAddressDoc(o.ShippingAddress),
		Status:          string(o.Status),
		Price:           o.Price,
		TaxPrice:        o.TaxPrice,
		ShippingPrice:   o.ShippingPrice,
		TotalPrice:      o.TotalPrice,
		PaidAt:          o.PaidAt.UTC().Truncate(time.Millisecond),
		DeliverAt:       o.DeliverAt,
	}

	for _, it := range o.Items {
		doc.Items = append(doc.Items, orderItemDoc(it))
	}

	return doc
}

func (d orderDoc) toModel() *models.Order {
	out := &models.Order{
		ID:              d.ID.Hex(),
		Items:           make([]models.OrderItem, 0, len(d.Items)),
		Payment:         models.PaymentResult(d.Payment),
		ShippingAddress: models.ShippingAddress(d.ShippingAddress),
		Status:          models.OrderStatus(d.Status),
		Price:           d.Price,
		TaxPrice:        d.TaxPrice,
		ShippingPrice:   d.ShippingPrice,
		TotalPrice:      d.TotalPrice,
		PaidAt:          d.PaidAt.UTC(),
		CreatedAt:       d.CreatedAt.UTC(),
	}
	out.UserID, _ = uuid.Parse(d.UserID)

	if d.DeliverAt != nil {
		t := d.DeliverAt.UTC()
		out.DeliverAt = &t
	}

	for _, it := range d.Items {
		out.Items = append(out.Items, models.OrderItem(it))
	}

	return out
}

// CreateOrder сохраняет заказ. Повтор gateway_payment_id (уникальный индекс) — storage.ErrConflict.
func (m *Mongo) CreateOrder(ctx context.Context, o models.Order) (*models.Order, error) {
	const op = "storage/mongo/CreateOrder"

	doc := orderToDoc(o)
	doc.CreatedAt = now()

	res, err := m.orders.InsertOne(ctx, doc)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}
	doc.ID = oid

	return doc.toModel(), nil
}

// OrderByPaymentID ищет заказ по gateway_payment_id. Если нет — storage.ErrNotFound.
func (m *Mongo) OrderByPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Order, error) {
	const op = "storage/mongo/OrderByPaymentID"

	out, err := m.findOrder(ctx, bson.D{{Key: "payment_result.gateway_payment_id", Value: gatewayPaymentID}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// OrderByID возвращает заказ. Если нет — storage.ErrNotFound.
func (m *Mongo) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	const op = "storage/mongo/OrderByID"

	oid, err := parseOID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out, err := m.findOrder(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (m *Mongo) findOrder(ctx context.Context, filter bson.D) (*models.Order, error) {
	var doc orderDoc
	if err := m.orders.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return doc.toModel(), nil
}

// ListOrdersByUser возвращает заказы пользователя: created_at DESC, _id DESC.
func (m *Mongo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	const op = "storage/mongo/ListOrdersByUser"

	cur, err := m.orders.Find(ctx,
		bson.D{{Key: "user_id", Value: userID.String()}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Order, 0)
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		out = append(out, *doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}

// UpdateOrderStatus применяет patch (nil-поля пропускаются) и возвращает заказ после изменения.
func (m *Mongo) UpdateOrderStatus(ctx context.Context, id string, patch models.OrderStatusPatch) (*models.Order, error) {
	const op = "storage/mongo/UpdateOrderStatus"

	oid, err := parseOID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	set := bson.D{}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "order_status", Value: string(*patch.Status)})
	}
	if patch.DeliverAt != nil {
		set = append(set, bson.E{Key: "deliver_at", Value: patch.DeliverAt.UTC().Truncate(time.Millisecond)})
	}

	if len(set) == 0 {
		return m.OrderByID(ctx, id)
	}

	var doc orderDoc
	err = m.orders.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}
