// Package models содержит доменные сущности shop-service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment — доменная модель комментария (MongoDB).
// Важно:
//   - ID/ThreadID/ParentID — ObjectID MongoDB, наружу и внутрь как hex-строка.
//   - ThreadID — пост, аудио или видео, к которому привязан комментарий.
//   - ParentID == "" — корневой комментарий, иначе ответ (глубина ровно один уровень).
//   - ReplyIDs — упорядоченные id ответов; у ответа всегда пуст.
//   - AuthorID — UUID пользователя из access-токена.
type Comment struct {
	ID        string
	ThreadID  string
	ParentID  string
	AuthorID  uuid.UUID
	Message   string
	ReplyIDs  []string
	CreatedAt time.Time
}

// IsReply сообщает, является ли комментарий ответом.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

// Author — проекция профиля автора для выдачи рядом с комментарием.
// Для удалённого пользователя заполнен только ID.
type Author struct {
	ID        uuid.UUID
	Username  string
	AvatarURL string
}

// ExpandedComment — комментарий с раскрытыми ссылками: автор и (для корня) ответы.
type ExpandedComment struct {
	Comment
	Author  Author
	Replies []ExpandedComment
}
