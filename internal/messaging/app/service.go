package app

import (
	"context"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/logger"

	"go.uber.org/zap"
)

// MessagingService is the service boundary. Every operation requires a
// resolved principal; an empty user id fails closed before any other work.
type MessagingService struct {
	gate          *AccessGate
	threads       *ThreadResolver
	messages      *MessageStore
	fanout        *NotificationFanout
	bus           *RealtimeBus
	notifications repository.NotificationRepository
}

// NewMessagingService create a MessagingService
func NewMessagingService(
	gate *AccessGate,
	threads *ThreadResolver,
	messages *MessageStore,
	fanout *NotificationFanout,
	bus *RealtimeBus,
	notifications repository.NotificationRepository,
) *MessagingService {
	return &MessagingService{
		gate:          gate,
		threads:       threads,
		messages:      messages,
		fanout:        fanout,
		bus:           bus,
		notifications: notifications,
	}
}

// RealtimeConfig controls the live-update transport at startup.
type RealtimeConfig struct {
	Enabled   bool
	Transport repository.PubSub
}

// Init wires the realtime transport according to config.
func (s *MessagingService) Init(cfg RealtimeConfig) {
	if !cfg.Enabled {
		s.bus.SetTransport(nil)
		logger.Log.Info("realtime transport disabled")
		return
	}
	s.bus.SetTransport(cfg.Transport)
}

// GetGroupThread resolves (creating if needed) the event's group thread.
func (s *MessagingService) GetGroupThread(ctx context.Context, userID, eventID string) (*domain.ThreadWithParticipants, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.threads.EnsureGroupThread(ctx, eventID, userID)
}

// GetVendorThread resolves the 1:1 planner-vendor thread for counterpart.
func (s *MessagingService) GetVendorThread(ctx context.Context, userID, eventID, counterpart string) (*domain.ThreadWithParticipants, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.threads.EnsureVendorThread(ctx, eventID, userID, counterpart)
}

// SendMessage appends a message to the event's group thread, fans out
// notifications, and pushes the message to live subscribers. Fan-out and the
// realtime push are best effort once the message is persisted.
func (s *MessagingService) SendMessage(ctx context.Context, userID, eventID, body string, senderType domain.SenderType) (*domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureGroupThread(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	return s.deliver(ctx, thread, userID, eventID, body, senderType)
}

// SendVendorMessage appends a message to a planner-vendor thread.
func (s *MessagingService) SendVendorMessage(ctx context.Context, userID, eventID, counterpart, body string, senderType domain.SenderType) (*domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureVendorThread(ctx, eventID, userID, counterpart)
	if err != nil {
		return nil, err
	}

	return s.deliver(ctx, thread, userID, eventID, body, senderType)
}

func (s *MessagingService) deliver(ctx context.Context, thread *domain.ThreadWithParticipants, userID, eventID, body string, senderType domain.SenderType) (*domain.Message, error) {
	if senderType == "" {
		senderType = domain.SenderTypeUser
	}

	msg, err := s.messages.Append(ctx, thread.Thread.ID, userID, senderType, body)
	if err != nil {
		return nil, err
	}

	s.threads.InvalidateThread(&thread.Thread)
	s.fanout.Dispatch(ctx, eventID, *msg)

	if err := s.bus.Publish(ctx, *msg); err != nil {
		logger.Log.Warn("realtime publish failed",
			zap.String("threadID", msg.ThreadID), zap.Error(err))
	}

	return msg, nil
}

// GetMessages returns a page of the group thread's messages, oldest first.
func (s *MessagingService) GetMessages(ctx context.Context, userID, eventID string, opts domain.PageOptions) ([]domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureGroupThread(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	return s.messages.Page(ctx, thread.Thread.ID, opts)
}

// GetVendorMessages returns a page of a planner-vendor thread's messages,
// oldest first.
func (s *MessagingService) GetVendorMessages(ctx context.Context, userID, eventID, counterpart string, opts domain.PageOptions) ([]domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureVendorThread(ctx, eventID, userID, counterpart)
	if err != nil {
		return nil, err
	}
	return s.messages.Page(ctx, thread.Thread.ID, opts)
}

// MarkThreadRead stamps the caller's read position on the group thread.
func (s *MessagingService) MarkThreadRead(ctx context.Context, userID, eventID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureGroupThread(ctx, eventID, userID)
	if err != nil {
		return err
	}
	return s.messages.MarkRead(ctx, thread.Thread.ID, userID)
}

// ListParticipants returns everyone who has touched the group thread.
func (s *MessagingService) ListParticipants(ctx context.Context, userID, eventID string) ([]domain.Participant, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureGroupThread(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	return thread.Participants, nil
}

// SubscribeThread attaches handler to the group thread's live feed and returns
// the unsubscribe function.
func (s *MessagingService) SubscribeThread(ctx context.Context, userID, eventID string, handler func(domain.Message)) (func(), error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}

	thread, err := s.threads.EnsureGroupThread(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	return s.bus.Subscribe(thread.Thread.ID, handler)
}

// ArchiveGroupThread retires the event's group thread.
func (s *MessagingService) ArchiveGroupThread(ctx context.Context, userID, eventID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	return s.threads.ArchiveGroupThread(ctx, eventID, userID)
}

// ListNotifications returns the caller's notifications, newest first.
func (s *MessagingService) ListNotifications(ctx context.Context, userID string, page, limit int) ([]domain.Notification, int64, error) {
	if userID == "" {
		return nil, 0, domain.ErrAuthRequired
	}
	return s.notifications.GetByUserID(userID, page, limit)
}

// UnreadNotificationCount returns how many notifications the caller has not read.
func (s *MessagingService) UnreadNotificationCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrAuthRequired
	}
	return s.notifications.GetUnreadCount(userID)
}

// MarkNotificationsRead marks all of the caller's notifications read.
func (s *MessagingService) MarkNotificationsRead(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	return s.notifications.MarkAllAsRead(userID)
}

// OnMessageSent registers an in-process listener for message-sent events.
func (s *MessagingService) OnMessageSent(fn func(domain.MessageSentEvent)) {
	s.fanout.AddListener(fn)
}
