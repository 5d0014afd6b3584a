package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/config"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"
	"github.com/stretchr/testify/require"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждый тест
// создаёт свою БД с уникальным именем (см. newTestConfig).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("DATABASE_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	// Гасим контейнер после выполнения пакета тестов.
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestConfig создаёт конфиг с отдельной тестовой БД.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration test: set GO_TEST_INTEGRATION=1")
	}

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	dbName := "shop_test_" + uuid.New().String()
	if baseURL[len(baseURL)-1] == '/' {
		baseURL += dbName
	} else {
		baseURL += "/" + dbName
	}

	return &config.Config{DB: config.DBConfig{URL: baseURL}}
}

// mustNewMongo создаёт подключение к тестовой БД и регистрирует очистку по завершении теста.
func mustNewMongo(t *testing.T) *Mongo {
	t.Helper()

	cfg := newTestConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	require.NoError(t, err, "cannot connect to MongoDB (DATABASE_URL=%s)", cfg.DB.URL)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// seedThread кладёт пост с владельцем и возвращает его id.
func seedThread(t *testing.T, m *Mongo, coll string, owner uuid.UUID) string {
	t.Helper()
	res, err := m.db.Collection(coll).InsertOne(testCtx(t), bson.D{{Key: "owner_id", Value: owner.String()}})
	require.NoError(t, err)
	return res.InsertedID.(primitive.ObjectID).Hex()
}

func TestDatabaseFromURI(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"mongodb://localhost:27017/catalog":           "catalog",
		"mongodb://localhost:27017/catalog?rs=rs0":    "catalog",
		"mongodb://localhost:27017":                   defaultDBName,
		"mongodb://localhost:27017/":                  defaultDBName,
		"mongodb+srv://u:p@cluster.example.net/shop2": "shop2",
		"::not a uri": defaultDBName,
	}

	for in, want := range cases {
		require.Equal(t, want, databaseFromURI(in), in)
	}
}

func TestCommentDoc_ToModel(t *testing.T) {
	t.Parallel()

	parent := primitive.NewObjectID()
	r1, r2 := primitive.NewObjectID(), primitive.NewObjectID()
	author := uuid.New()

	doc := commentDoc{
		ID:        primitive.NewObjectID(),
		ThreadID:  primitive.NewObjectID(),
		ParentID:  &parent,
		AuthorID:  author.String(),
		Message:   "hi",
		ReplyIDs:  []primitive.ObjectID{r1, r2},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
	}

	c := doc.toModel()
	require.Equal(t, parent.Hex(), c.ParentID)
	require.Equal(t, author, c.AuthorID)
	require.Equal(t, []string{r1.Hex(), r2.Hex()}, c.ReplyIDs)
	require.Equal(t, time.UTC, c.CreatedAt.Location())

	doc.ParentID = nil
	doc.AuthorID = "garbage"
	c = doc.toModel()
	require.Empty(t, c.ParentID)
	require.Equal(t, uuid.Nil, c.AuthorID)
}

func TestCreateComment_TopLevelAndReply(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	thread := seedThread(t, m, "posts", uuid.New())
	author := uuid.New()

	root, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, AuthorID: author, Message: "root"})
	require.NoError(t, err)
	require.NotEmpty(t, root.ID)
	require.Empty(t, root.ParentID)
	require.Empty(t, root.ReplyIDs)

	reply, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: root.ID, AuthorID: author, Message: "reply"})
	require.NoError(t, err)
	require.Equal(t, root.ID, reply.ParentID)

	got, err := m.CommentInThread(ctx, root.ID, thread)
	require.NoError(t, err)
	require.Equal(t, []string{reply.ID}, got.ReplyIDs)
}

func TestCreateComment_ReplyErrors(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	thread := seedThread(t, m, "posts", uuid.New())
	other := seedThread(t, m, "videos", uuid.New())

	root, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, AuthorID: uuid.New(), Message: "root"})
	require.NoError(t, err)

	// Родитель в другой ветке.
	_, err = m.CreateComment(ctx, models.Comment{ThreadID: other, ParentID: root.ID, AuthorID: uuid.New(), Message: "x"})
	require.ErrorIs(t, err, storage.ErrParentNotFound)

	// Битый parent id.
	_, err = m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: "nope", AuthorID: uuid.New(), Message: "x"})
	require.ErrorIs(t, err, storage.ErrParentNotFound)

	// Ответ на ответ.
	reply, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: root.ID, AuthorID: uuid.New(), Message: "r"})
	require.NoError(t, err)
	_, err = m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: reply.ID, AuthorID: uuid.New(), Message: "rr"})
	require.ErrorIs(t, err, storage.ErrMaxDepthExceeded)
}

// TestDeleteComments_Cascade — корень и его ответы удаляются, повторный поиск даёт ErrNotFound.
func TestDeleteComments_Cascade(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	thread := seedThread(t, m, "audios", uuid.New())
	root, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, AuthorID: uuid.New(), Message: "root"})
	require.NoError(t, err)

	r1, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: root.ID, AuthorID: uuid.New(), Message: "r1"})
	require.NoError(t, err)
	r2, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: root.ID, AuthorID: uuid.New(), Message: "r2"})
	require.NoError(t, err)

	n, err := m.DeleteComments(ctx, []string{r1.ID, r2.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = m.DeleteComments(ctx, []string{root.ID, "bad-id"})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	for _, id := range []string{root.ID, r1.ID, r2.ID} {
		_, err := m.CommentInThread(ctx, id, thread)
		require.ErrorIs(t, err, storage.ErrNotFound)
	}

	n, err = m.DeleteComments(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

// TestListTopLevel_OrderAndExpansion — корни по возрастанию времени, ответы в порядке reply_ids, авторы раскрыты.
func TestListTopLevel_OrderAndExpansion(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	alice, bob := uuid.New(), uuid.New()
	_, err := m.users.InsertOne(ctx, bson.D{
		{Key: "_id", Value: alice.String()},
		{Key: "username", Value: "alice"},
		{Key: "avatar_url", Value: "https://cdn/a.png"},
	})
	require.NoError(t, err)

	thread := seedThread(t, m, "posts", alice)

	first, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, AuthorID: alice, Message: "first"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, AuthorID: bob, Message: "second"})
	require.NoError(t, err)

	ra, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: first.ID, AuthorID: bob, Message: "ra"})
	require.NoError(t, err)
	rb, err := m.CreateComment(ctx, models.Comment{ThreadID: thread, ParentID: first.ID, AuthorID: alice, Message: "rb"})
	require.NoError(t, err)

	// Осиротевшая ссылка: ответ удалён, id в reply_ids остался.
	_, err = m.DeleteComments(ctx, []string{rb.ID})
	require.NoError(t, err)

	list, err := m.ListTopLevel(ctx, thread)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, "alice", list[0].Author.Username)
	require.Equal(t, "https://cdn/a.png", list[0].Author.AvatarURL)
	require.Len(t, list[0].Replies, 1)
	require.Equal(t, ra.ID, list[0].Replies[0].ID)
	require.Equal(t, bob, list[0].Replies[0].Author.ID)
	require.Empty(t, list[0].Replies[0].Author.Username)

	require.Equal(t, second.ID, list[1].ID)
	require.Empty(t, list[1].Replies)

	empty, err := m.ListTopLevel(ctx, "not-an-id")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestThreadOwner(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	owner := uuid.New()
	for _, coll := range threadCollections {
		id := seedThread(t, m, coll, owner)
		got, err := m.ThreadOwner(ctx, id)
		require.NoError(t, err, coll)
		require.Equal(t, owner, got)
	}

	_, err := m.ThreadOwner(ctx, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = m.ThreadOwner(ctx, "xyz")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateNotification(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	recipient := uuid.New()
	require.NoError(t, m.CreateNotification(ctx, models.Notification{
		RecipientID: recipient,
		ActorID:     uuid.New(),
		Type:        models.NotificationComment,
		ThreadID:    "t",
		CommentID:   "c",
	}))

	var doc notificationDoc
	require.NoError(t, m.notifications.FindOne(ctx, bson.D{{Key: "recipient_id", Value: recipient.String()}}).Decode(&doc))
	require.Equal(t, models.NotificationComment, doc.Type)
	require.False(t, doc.Read)
	require.NotZero(t, doc.CreatedAt)
}

func TestProducts_CreateAndGet(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	p, err := m.CreateProduct(ctx, models.Product{Name: "Mug", Price: 12.5, Stock: 3})
	require.NoError(t, err)

	got, err := m.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Mug", got.Name)
	require.Equal(t, 12.5, got.Price)

	_, err = m.ProductByID(ctx, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestCarts_Lifecycle — upsert, $pull до пустой корзины, удаление документа.
func TestCarts_Lifecycle(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	user := uuid.New()

	_, err := m.CartByUser(ctx, user)
	require.ErrorIs(t, err, storage.ErrNotFound)

	line := models.CartLine{ProductID: "p1", Quantity: 3, UnitPrice: 1000, Price: 3000, TaxAmount: 300, ShippingAmount: 150, TotalPrice: 3450}
	cart, err := m.SaveCartItems(ctx, user, []models.CartLine{line})
	require.NoError(t, err)
	require.NotEmpty(t, cart.ID)
	require.Equal(t, []models.CartLine{line}, cart.Items)

	// Повторный save обновляет тот же документ.
	again, err := m.SaveCartItems(ctx, user, []models.CartLine{line, {ProductID: "p2", Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, cart.ID, again.ID)
	require.Len(t, again.Items, 2)

	require.NoError(t, m.RemoveCartItem(ctx, user, "p2"))
	require.NoError(t, m.RemoveCartItem(ctx, user, "p1"))
	require.NoError(t, m.RemoveCartItem(ctx, user, "absent"))

	got, err := m.CartByUser(ctx, user)
	require.NoError(t, err)
	require.Empty(t, got.Items)

	require.NoError(t, m.DeleteCartByUser(ctx, user))
	_, err = m.CartByUser(ctx, user)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Корзины нет — не ошибка.
	require.NoError(t, m.RemoveCartItem(ctx, user, "p1"))
	require.NoError(t, m.DeleteCartByUser(ctx, user))
}

// Одновременные первые записи в корзину: обе успешны, документ один.
func TestSaveCartItems_ConcurrentFirstWrite(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	user := uuid.New()
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.SaveCartItems(ctx, user, []models.CartLine{{ProductID: fmt.Sprintf("p%d", i), Quantity: 1}})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	n, err := m.carts.CountDocuments(ctx, bson.D{{Key: "user_id", Value: user.String()}})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	cart, err := m.CartByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
}

func TestDeleteCart_OnlyOwner(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	owner := uuid.New()
	cart, err := m.SaveCartItems(ctx, owner, nil)
	require.NoError(t, err)

	require.NoError(t, m.DeleteCart(ctx, cart.ID, uuid.New()))
	_, err = m.CartByUser(ctx, owner)
	require.NoError(t, err)

	require.NoError(t, m.DeleteCart(ctx, "bad", owner))
	require.NoError(t, m.DeleteCart(ctx, cart.ID, owner))
	_, err = m.CartByUser(ctx, owner)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestOrders_Lifecycle — создание, дубль платежа, список, обновление статуса.
func TestOrders_Lifecycle(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	user := uuid.New()
	paidAt := time.Now().UTC().Truncate(time.Millisecond)

	order := models.Order{
		UserID:  user,
		Items:   []models.OrderItem{{ProductID: "p1", Quantity: 2}},
		Payment: models.PaymentResult{ExternalID: "ext", Status: "paid", GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "sig"},
		ShippingAddress: models.ShippingAddress{
			Address: "Main st 1", City: "Pune", PostalCode: "411001", Country: "IN",
		},
		Status:        models.OrderPending,
		Price:         20.01,
		TaxPrice:      2,
		ShippingPrice: 1,
		TotalPrice:    23.01,
		PaidAt:        paidAt,
	}

	created, err := m.CreateOrder(ctx, order)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, paidAt, created.PaidAt)
	require.Nil(t, created.DeliverAt)

	_, err = m.CreateOrder(ctx, order)
	require.ErrorIs(t, err, storage.ErrConflict)

	byPay, err := m.OrderByPaymentID(ctx, "pay_1")
	require.NoError(t, err)
	require.Equal(t, created.ID, byPay.ID)

	_, err = m.OrderByPaymentID(ctx, "pay_404")
	require.ErrorIs(t, err, storage.ErrNotFound)

	order.Payment.GatewayPaymentID = "pay_2"
	second, err := m.CreateOrder(ctx, order)
	require.NoError(t, err)

	list, err := m.ListOrdersByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)

	status := models.OrderCompleted
	deliver := paidAt.Add(48 * time.Hour)
	upd, err := m.UpdateOrderStatus(ctx, created.ID, models.OrderStatusPatch{Status: &status, DeliverAt: &deliver})
	require.NoError(t, err)
	require.Equal(t, models.OrderCompleted, upd.Status)
	require.NotNil(t, upd.DeliverAt)
	require.True(t, deliver.Equal(*upd.DeliverAt))

	_, err = m.UpdateOrderStatus(ctx, primitive.NewObjectID().Hex(), models.OrderStatusPatch{Status: &status})
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = m.OrderByID(ctx, "bad")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestEnsureIndexes_Created — уникальные индексы на месте.
func TestEnsureIndexes_Created(t *testing.T) {
	m := mustNewMongo(t)
	ctx := testCtx(t)

	names := func(coll string) map[string]bool {
		cur, err := m.db.Collection(coll).Indexes().List(ctx)
		require.NoError(t, err)

		var specs []bson.M
		require.NoError(t, cur.All(ctx, &specs))

		out := map[string]bool{}
		for _, s := range specs {
			out[s["name"].(string)] = true
		}
		return out
	}

	require.True(t, names(cartsCollection)["uniq_user_id"])
	require.True(t, names(ordersCollection)["uniq_gateway_payment_id"])
	require.True(t, names(commentsCollection)["thread_parent_created_asc"])
}
