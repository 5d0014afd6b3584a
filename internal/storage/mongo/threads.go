package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ThreadOwner ищет ветку последовательно в posts, audios, videos и возвращает owner_id.
// Если ветка не найдена ни в одной коллекции — storage.ErrNotFound.
func (m *Mongo) ThreadOwner(ctx context.Context, threadID string) (uuid.UUID, error) {
	const op = "storage/mongo/ThreadOwner"

	oid, err := parseOID(threadID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc struct {
		OwnerID string `bson:"owner_id"`
	}

	for _, coll := range m.threads {
		err := coll.FindOne(ctx,
			bson.D{{Key: "_id", Value: oid}},
			options.FindOne().SetProjection(bson.D{{Key: "owner_id", Value: 1}}),
		).Decode(&doc)
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s: %s: %w", op, coll.Name(), err)
		}

		owner, err := uuid.Parse(doc.OwnerID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s: bad owner_id %q: %w", op, doc.OwnerID, err)
		}

		return owner, nil
	}

	return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// notificationDoc — представление уведомления в коллекции notifications.
type notificationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RecipientID string             `bson:"recipient_id"`
	ActorID     string             `bson:"actor_id"`
	Type        string             `bson:"type"`
	ThreadID    string             `bson:"thread_id"`
	CommentID   string             `bson:"comment_id"`
	Read        bool               `bson:"read"`
	CreatedAt   primitive.DateTime `bson:"created_at"`
}

// CreateNotification сохраняет уведомление (read=false).
func (m *Mongo) CreateNotification(ctx context.Context, n models.Notification) error {
	const op = "storage/mongo/CreateNotification"

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	_, err := m.notifications.InsertOne(ctx, notificationDoc{
		RecipientID: n.RecipientID.String(),
		ActorID:     n.ActorID.String(),
		Type:        n.Type,
		ThreadID:    n.ThreadID,
		CommentID:   n.CommentID,
		Read:        false,
		CreatedAt:   primitive.NewDateTimeFromTime(createdAt),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
