package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/pkg/log"

	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"
)

const defaultMaxCommentLength = 200

// normalizeMessage убирает разметку и пробелы по краям.
// Длина проверяется по нижнему регистру (1..max рун), сохраняется обрезанный текст.
func (s *Service) normalizeMessage(raw string) (string, error) {
	text := raw
	if s.sanitizer != nil {
		// StrictPolicy экранирует сущности, возвращаем их в исходный вид.
		text = html.UnescapeString(s.sanitizer.Sanitize(raw))
	}
	text = strings.TrimSpace(text)

	maxLen := s.cfg.Comments.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMaxCommentLength
	}

	n := utf8.RuneCountInString(strings.ToLower(text))
	if n == 0 {
		return "", fmt.Errorf("message is empty")
	}
	if n > maxLen {
		return "", fmt.Errorf("message exceeds %d characters", maxLen)
	}

	return text, nil
}

// ListTopLevelComments — все корневые комментарии ветки (старые первыми) с ответами и авторами.
// Пустая или неизвестная ветка — пустой список, не ошибка.
func (s *Service) ListTopLevelComments(ctx context.Context, threadID string) ([]models.ExpandedComment, error) {
	const op = "service/comments/ListTopLevelComments"

	threadID = strings.TrimSpace(threadID)
	lg := log.From(ctx).With("op", op, "thread_id", threadID)

	if threadID == "" {
		lg.Warn("invalid argument: empty thread_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	out, err := s.storage.ListTopLevel(ctx, threadID)
	if err != nil {
		lg.Error("storage error on ListTopLevel", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return out, nil
}

// CreateComment — создание корневого комментария от имени actorID.
//
// Валидация:
//   - actorID обязателен (uuid.Nil -> ErrUnauthenticated);
//   - threadID не пуст, message после очистки 1..max символов (ErrInvalidArgument).
//
// Поведение/ошибки:
//   - ErrNotFound — ветка (пост/аудио/видео) не найдена;
//   - если автор ветки не actorID, ему пишется уведомление; сбой уведомления
//     логируется и не отменяет создание комментария;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) CreateComment(ctx context.Context, actorID uuid.UUID, threadID, message string) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	threadID = strings.TrimSpace(threadID)
	lg := log.From(ctx).With("op", op, "user_id", actorID.String(), "thread_id", threadID)

	if actorID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if threadID == "" {
		lg.Warn("invalid argument: empty thread_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	text, err := s.normalizeMessage(message)
	if err != nil {
		lg.Warn("invalid argument", "reason", err.Error())
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, err.Error())
	}

	owner, err := s.storage.ThreadOwner(ctx, threadID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("thread not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on ThreadOwner", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	created, err := s.storage.CreateComment(ctx, models.Comment{
		ThreadID: threadID,
		AuthorID: actorID,
		Message:  text,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("thread not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CreateComment", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	commentsCreated.WithLabelValues("comment").Inc()

	if owner != actorID {
		err := s.storage.CreateNotification(ctx, models.Notification{
			RecipientID: owner,
			ActorID:     actorID,
			Type:        models.NotificationComment,
			ThreadID:    threadID,
			CommentID:   created.ID,
			CreatedAt:   s.now(),
		})
		if err != nil {
			lg.Error("notify thread owner failed", "owner_id", owner.String(), "err", err)
		}
	}

	return created, nil
}

// ReplyToComment — ответ на корневой комментарий parentID в ветке threadID.
// Уведомление не отправляется.
//
// Поведение/ошибки:
//   - ErrParentNotFound — родителя нет в этой ветке;
//   - ErrMaxDepthExceeded — родитель сам является ответом;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) ReplyToComment(ctx context.Context, actorID uuid.UUID, threadID, parentID, message string) (*models.Comment, error) {
	const op = "service/comments/ReplyToComment"

	threadID = strings.TrimSpace(threadID)
	parentID = strings.TrimSpace(parentID)
	lg := log.From(ctx).With("op", op, "user_id", actorID.String(), "thread_id", threadID, "parent_id", parentID)

	if actorID == uuid.Nil {
		lg.Warn("unauthenticated")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if threadID == "" || parentID == "" {
		lg.Warn("invalid argument: empty thread_id or parent_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	text, err := s.normalizeMessage(message)
	if err != nil {
		lg.Warn("invalid argument", "reason", err.Error())
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, err.Error())
	}

	created, err := s.storage.CreateComment(ctx, models.Comment{
		ThreadID: threadID,
		ParentID: parentID,
		AuthorID: actorID,
		Message:  text,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrMaxDepthExceeded):
			lg.Warn("max depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
		default:
			lg.Error("storage error on CreateComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	commentsCreated.WithLabelValues("reply").Inc()

	return created, nil
}

// DeleteComment — удаление комментария автором вместе с его ответами.
//
// Комментарий не найден или actorID не автор — тихий no-op (nil): вызывающий
// не отличает «нет такого» от «не ваш». Сначала удаляются ответы из ReplyIDs,
// затем сам комментарий; две записи без транзакции.
func (s *Service) DeleteComment(ctx context.Context, actorID uuid.UUID, threadID, commentID string) error {
	const op = "service/comments/DeleteComment"

	threadID = strings.TrimSpace(threadID)
	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "user_id", actorID.String(), "thread_id", threadID, "id", commentID)

	if actorID == uuid.Nil {
		lg.Warn("unauthenticated")
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if threadID == "" || commentID == "" {
		return nil
	}

	comm, err := s.storage.CommentInThread(ctx, commentID, threadID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Debug("comment not found, nothing to delete")
			return nil
		}

		lg.Error("storage error on CommentInThread", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if comm.AuthorID != actorID {
		lg.Warn("delete ignored: not an author", "author_id", comm.AuthorID.String())
		return nil
	}

	var deleted int64
	if len(comm.ReplyIDs) > 0 {
		n, err := s.storage.DeleteComments(ctx, comm.ReplyIDs)
		if err != nil {
			lg.Error("storage error on DeleteComments(replies)", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
		deleted += n
	}

	n, err := s.storage.DeleteComments(ctx, []string{comm.ID})
	if err != nil {
		lg.Error("storage error on DeleteComments(comment)", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
	deleted += n

	commentsDeleted.Add(float64(deleted))
	lg.Info("comment deleted", "replies", len(comm.ReplyIDs))

	return nil
}
