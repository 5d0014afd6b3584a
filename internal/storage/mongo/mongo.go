package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-social-shop/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	commentsCollection      = "comments"
	usersCollection         = "users"
	notificationsCollection = "notifications"
	productsCollection      = "products"
	cartsCollection         = "carts"
	ordersCollection        = "orders"
	defaultDBName           = "shop"
)

// threadCollections — коллекции контента, к которому можно оставлять комментарии.
var threadCollections = []string{"posts", "audios", "videos"}

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
// Один клиент (пул соединений) на процесс: создаётся в main и живёт до завершения.
type Mongo struct {
	client        *mongodriver.Client
	db            *mongodriver.Database
	comments      *mongodriver.Collection
	users         *mongodriver.Collection
	notifications *mongodriver.Collection
	products      *mongodriver.Collection
	carts         *mongodriver.Collection
	orders        *mongodriver.Collection
	threads       []*mongodriver.Collection
}

// New подключается к MongoDB, проверяет его, подготавливает коллекции и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.DB.URL))

	m := &Mongo{
		client:        cli,
		db:            db,
		comments:      db.Collection(commentsCollection),
		users:         db.Collection(usersCollection),
		notifications: db.Collection(notificationsCollection),
		products:      db.Collection(productsCollection),
		carts:         db.Collection(cartsCollection),
		orders:        db.Collection(ordersCollection),
	}

	for _, name := range threadCollections {
		m.threads = append(m.threads, db.Collection(name))
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping проверяет доступность primary (для /healthz).
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes создает индексы, необходимые сервису.
// - корневые комментарии ветки: thread_id + parent_id + created_at(asc)
// - одна корзина на пользователя: unique(user_id)
// - идемпотентность сверки платежа: unique(payment_result.gateway_payment_id)
// - список заказов пользователя: user_id + created_at(desc)
// - лента уведомлений: recipient_id + created_at(desc)
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	plan := []struct {
		coll   *mongodriver.Collection
		models []mongodriver.IndexModel
	}{
		{m.comments, []mongodriver.IndexModel{
			{
				Keys:    bson.D{{Key: "thread_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("thread_parent_created_asc"),
			},
		}},
		{m.carts, []mongodriver.IndexModel{
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("uniq_user_id").SetUnique(true),
			},
		}},
		{m.orders, []mongodriver.IndexModel{
			{
				Keys: bson.D{{Key: "payment_result.gateway_payment_id", Value: 1}},
				Options: options.Index().SetName("uniq_gateway_payment_id").SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "payment_result.gateway_payment_id", Value: bson.D{{Key: "$type", Value: "string"}}}}),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("user_created_desc"),
			},
		}},
		{m.notifications, []mongodriver.IndexModel{
			{
				Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("recipient_created_desc"),
			},
		}},
	}

	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateMany(ctx, p.models); err != nil {
			return fmt.Errorf("mongo ensure indexes (%s): %w", p.coll.Name(), err)
		}
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

// now — текущее время в точности MongoDB DateTime (миллисекунды, UTC).
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
