package app

import (
	"context"
	"strings"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/cache"
	"event_messaging_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageStore appends messages and serves pages, with the default first page
// cached per thread. Pages are returned oldest first.
type MessageStore struct {
	messageRepo repository.MessageRepository
	threadRepo  repository.ThreadRepository
	participant repository.ParticipantRepository
	pageCache   *cache.Cache[[]domain.Message]
}

// NewMessageStore create a MessageStore
func NewMessageStore(
	messageRepo repository.MessageRepository,
	threadRepo repository.ThreadRepository,
	participant repository.ParticipantRepository,
	ttl time.Duration,
) *MessageStore {
	return &MessageStore{
		messageRepo: messageRepo,
		threadRepo:  threadRepo,
		participant: participant,
		pageCache:   cache.New[[]domain.Message](ttl),
	}
}

// Append validates and persists one message, then refreshes the thread's
// preview. The preview update is best effort; a failure there never voids the
// already-persisted message.
func (s *MessageStore) Append(ctx context.Context, threadID, senderID string, senderType domain.SenderType, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		ThreadID:   threadID,
		SenderID:   senderID,
		SenderType: senderType,
		Body:       body,
	}
	if err := s.messageRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	preview := domain.Truncate(body, domain.PreviewMaxLen)
	if err := s.threadRepo.UpdateLastMessage(ctx, threadID, preview, msg.CreatedAt); err != nil {
		logger.Log.Warn("thread preview update failed",
			zap.String("threadID", threadID), zap.Error(err))
	}

	s.pageCache.Invalidate(pageKey(threadID))
	return msg, nil
}

// Page returns up to opts.Limit messages oldest first. When opts.Before is set
// only strictly older messages are returned. Transient policy-evaluation
// faults in the store degrade to an empty page instead of an error.
func (s *MessageStore) Page(ctx context.Context, threadID string, opts domain.PageOptions) ([]domain.Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}

	cacheable := opts.Before == nil && limit == domain.DefaultPageLimit
	if cacheable {
		if page, ok := s.pageCache.Get(pageKey(threadID)); ok {
			return page, nil
		}
	}

	descending, err := s.messageRepo.FindPageBefore(ctx, threadID, limit, opts.Before)
	if err != nil {
		if domain.IsConsistencyFault(err) {
			logger.Log.Warn("message page read degraded to empty",
				zap.String("threadID", threadID), zap.Error(err))
			return []domain.Message{}, nil
		}
		return nil, err
	}

	page := make([]domain.Message, len(descending))
	for i, m := range descending {
		page[len(descending)-1-i] = m
	}

	if cacheable {
		s.pageCache.Set(pageKey(threadID), page)
	}
	return page, nil
}

// MarkRead stamps the reader's high-water mark on the thread.
func (s *MessageStore) MarkRead(ctx context.Context, threadID, userID string) error {
	return s.participant.SetLastRead(ctx, threadID, userID, time.Now())
}

func pageKey(threadID string) string {
	return "messages:" + threadID
}
