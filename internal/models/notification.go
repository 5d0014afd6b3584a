package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationComment — тип уведомления о новом комментарии в ветке.
const NotificationComment = "comment"

// Notification — уведомление владельцу ветки.
type Notification struct {
	ID          string
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	Type        string
	ThreadID    string
	CommentID   string
	Read        bool
	CreatedAt   time.Time
}
