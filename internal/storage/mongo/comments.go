package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// commentDoc — представление комментария в коллекции comments.
// parent_id == null — корневой комментарий.
type commentDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	ThreadID  primitive.ObjectID   `bson:"thread_id"`
	ParentID  *primitive.ObjectID  `bson:"parent_id"`
	AuthorID  string               `bson:"author_id"`
	Message   string               `bson:"message"`
	ReplyIDs  []primitive.ObjectID `bson:"reply_ids"`
	CreatedAt time.Time            `bson:"created_at"`
}

// userDoc — проекция профиля из коллекции users (её ведёт users-сервис).
type userDoc struct {
	ID        string `bson:"_id"`
	Username  string `bson:"username"`
	AvatarURL string `bson:"avatar_url"`
}

func (d commentDoc) toModel() models.Comment {
	out := models.Comment{
		ID:        d.ID.Hex(),
		ThreadID:  d.ThreadID.Hex(),
		Message:   d.Message,
		CreatedAt: d.CreatedAt.UTC(),
	}

	if d.ParentID != nil {
		out.ParentID = d.ParentID.Hex()
	}

	// Битый author_id не должен ломать выдачу всей ветки.
	out.AuthorID, _ = uuid.Parse(d.AuthorID)

	out.ReplyIDs = make([]string, 0, len(d.ReplyIDs))
	for _, id := range d.ReplyIDs {
		out.ReplyIDs = append(out.ReplyIDs, id.Hex())
	}

	return out
}

// parseOID — некорректный формат id трактуется вызывающим как «нет такой записи».
func parseOID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(id))
}

// CreateComment создаёт комментарий (корневой или ответ).
//   - Для ответа родитель ищется по (parent_id, thread_id) и сам не должен быть ответом.
//   - После вставки ответа его id дописывается в reply_ids родителя отдельной записью.
func (m *Mongo) CreateComment(ctx context.Context, comm models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	threadOID, err := parseOID(comm.ThreadID)
	if err != nil {
		if comm.IsReply() {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	doc := commentDoc{
		ThreadID:  threadOID,
		AuthorID:  comm.AuthorID.String(),
		Message:   comm.Message,
		ReplyIDs:  []primitive.ObjectID{},
		CreatedAt: now(),
	}

	if comm.IsReply() {
		parentOID, err := parseOID(comm.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}

		var parent commentDoc
		err = m.comments.FindOne(ctx, bson.D{
			{Key: "_id", Value: parentOID},
			{Key: "thread_id", Value: threadOID},
		}).Decode(&parent)
		if err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}

			return nil, fmt.Errorf("%s: find parent: %w", op, err)
		}

		// Вложенность ровно один уровень.
		if parent.ParentID != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMaxDepthExceeded)
		}

		doc.ParentID = &parentOID
	}

	res, err := m.comments.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}
	doc.ID = oid

	if doc.ParentID != nil {
		_, err := m.comments.UpdateByID(ctx, *doc.ParentID, bson.D{
			{Key: "$push", Value: bson.D{{Key: "reply_ids", Value: oid}}},
		})
		if err != nil {
			// Ответ уже записан, но без ссылки из родителя он невидим.
			return nil, fmt.Errorf("%s: link reply: %w", op, err)
		}
	}

	out := doc.toModel()
	return &out, nil
}

// CommentInThread возвращает комментарий по (id, threadID).
// Если запись не найдена — storage.ErrNotFound.
func (m *Mongo) CommentInThread(ctx context.Context, id, threadID string) (*models.Comment, error) {
	const op = "storage/mongo/CommentInThread"

	oid, err := parseOID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	threadOID, err := parseOID(threadID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc commentDoc
	err = m.comments.FindOne(ctx, bson.D{
		{Key: "_id", Value: oid},
		{Key: "thread_id", Value: threadOID},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// DeleteComments удаляет комментарии по списку id одним deleteMany.
// Некорректные и отсутствующие id пропускаются.
func (m *Mongo) DeleteComments(ctx context.Context, ids []string) (int64, error) {
	const op = "storage/mongo/DeleteComments"

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseOID(id); err == nil {
			oids = append(oids, oid)
		}
	}

	if len(oids) == 0 {
		return 0, nil
	}

	res, err := m.comments.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.DeletedCount, nil
}

// ListTopLevel возвращает корневые комментарии ветки с ответами и авторами.
// Сортировка корней: created_at ASC, _id ASC. Ответы идут в порядке reply_ids;
// id, которых уже нет в коллекции (осиротевшие ссылки), пропускаются.
func (m *Mongo) ListTopLevel(ctx context.Context, threadID string) ([]models.ExpandedComment, error) {
	const op = "storage/mongo/ListTopLevel"

	threadOID, err := parseOID(threadID)
	if err != nil {
		// Чтение несуществующей ветки — пустой результат.
		return []models.ExpandedComment{}, nil
	}

	roots, err := m.findComments(ctx, bson.D{
		{Key: "thread_id", Value: threadOID},
		{Key: "parent_id", Value: nil},
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: roots: %w", op, err)
	}

	var replyOIDs []primitive.ObjectID
	for _, r := range roots {
		replyOIDs = append(replyOIDs, r.ReplyIDs...)
	}

	replies := make(map[primitive.ObjectID]commentDoc, len(replyOIDs))
	if len(replyOIDs) > 0 {
		docs, err := m.findComments(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: replyOIDs}}}}, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: replies: %w", op, err)
		}

		for _, d := range docs {
			replies[d.ID] = d
		}
	}

	authorIDs := make([]string, 0, len(roots)+len(replies))
	for _, r := range roots {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	for _, r := range replies {
		authorIDs = append(authorIDs, r.AuthorID)
	}

	authors, err := m.authorsByID(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: authors: %w", op, err)
	}

	expand := func(d commentDoc) models.ExpandedComment {
		c := d.toModel()
		a, ok := authors[d.AuthorID]
		if !ok {
			a = models.Author{ID: c.AuthorID}
		}

		return models.ExpandedComment{Comment: c, Author: a}
	}

	out := make([]models.ExpandedComment, 0, len(roots))
	for _, r := range roots {
		ec := expand(r)
		ec.Replies = make([]models.ExpandedComment, 0, len(r.ReplyIDs))

		for _, rid := range r.ReplyIDs {
			if rd, ok := replies[rid]; ok {
				ec.Replies = append(ec.Replies, expand(rd))
			}
		}

		out = append(out, ec)
	}

	return out, nil
}

func (m *Mongo) findComments(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]commentDoc, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	cur, err := m.comments.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return docs, nil
}

// authorsByID подтягивает профили пачкой; отсутствующие пользователи просто не попадают в карту.
func (m *Mongo) authorsByID(ctx context.Context, ids []string) (map[string]models.Author, error) {
	out := make(map[string]models.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := m.users.Find(ctx,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		options.Find().SetProjection(bson.D{{Key: "username", Value: 1}, {Key: "avatar_url", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u userDoc
		if err := cur.Decode(&u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}

		id, _ := uuid.Parse(u.ID)
		out[u.ID] = models.Author{ID: id, Username: u.Username, AvatarURL: u.AvatarURL}
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("users cursor: %w", err)
	}

	return out, nil
}
