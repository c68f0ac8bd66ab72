package app

import (
	"context"
	"sync"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/logger"

	"go.uber.org/zap"
)

const streamPublishTimeout = 5 * time.Second

// NotificationFanout creates in-app notifications and email jobs for everyone
// in the event except the sender, then emits a message-sent event. Every
// failure in here is logged and absorbed: fan-out never fails the send.
type NotificationFanout struct {
	membership    repository.MembershipRepository
	identities    *IdentityResolver
	notifications repository.NotificationRepository
	email         repository.EmailSender
	stream        repository.EventPublisher

	mu        sync.Mutex
	listeners []func(domain.MessageSentEvent)
}

// NewNotificationFanout create a NotificationFanout; email and stream may be
// nil when those integrations are not configured.
func NewNotificationFanout(
	membership repository.MembershipRepository,
	identities *IdentityResolver,
	notifications repository.NotificationRepository,
	email repository.EmailSender,
	stream repository.EventPublisher,
) *NotificationFanout {
	return &NotificationFanout{
		membership:    membership,
		identities:    identities,
		notifications: notifications,
		email:         email,
		stream:        stream,
	}
}

// AddListener registers an in-process listener for message-sent events.
// Listeners run on a background goroutine after each dispatch.
func (f *NotificationFanout) AddListener(fn func(domain.MessageSentEvent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Dispatch fans the message out. Recipients are the event's active role
// holders minus the sender; when the role list is empty or unreadable, the
// event creator is the fallback recipient. Returns the number of in-app
// notifications created.
func (f *NotificationFanout) Dispatch(ctx context.Context, eventID string, msg domain.Message) int {
	ev, err := f.membership.FindEvent(ctx, eventID)
	if err != nil || ev == nil {
		logger.Log.Warn("fan-out: event lookup failed, skipping",
			zap.String("eventID", eventID), zap.Error(err))
		return 0
	}

	recipients := f.recipients(ctx, ev, msg.SenderID)
	if len(recipients) == 0 {
		return 0
	}

	identities := f.identities.Resolve(ctx, append(append([]string{}, recipients...), msg.SenderID))
	senderName := DisplayName(identities, msg.SenderID)
	preview := domain.Truncate(msg.Body, domain.NotificationPreviewMaxLen)

	delivered := 0
	for _, userID := range recipients {
		notification := &domain.Notification{
			UserID:  userID,
			Type:    domain.NotificationTypeMessage,
			Title:   "New message from " + senderName,
			Message: preview,
			EventID: eventID,
		}
		if err := f.notifications.Create(notification); err != nil {
			logger.Log.Warn("fan-out: notification create failed",
				zap.String("userID", userID), zap.Error(err))
			continue
		}
		delivered++

		f.sendEmail(ctx, ev, userID, identities, senderName, preview)
	}

	f.emit(domain.MessageSentEvent{
		Message:          msg,
		EventID:          eventID,
		ParticipantCount: len(recipients),
	})

	return delivered
}

func (f *NotificationFanout) recipients(ctx context.Context, ev *domain.Event, senderID string) []string {
	ids, err := f.membership.ListActiveRoleUserIDs(ctx, ev.ID)
	if err != nil {
		logger.Log.Warn("fan-out: role list failed, falling back to creator",
			zap.String("eventID", ev.ID), zap.Error(err))
		ids = nil
	}
	if len(ids) == 0 {
		ids = []string{ev.CreatorID}
	}

	seen := map[string]struct{}{senderID: {}}
	var recipients []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}
	return recipients
}

func (f *NotificationFanout) sendEmail(ctx context.Context, ev *domain.Event, userID string, identities map[string]domain.Identity, senderName, preview string) {
	if f.email == nil {
		return
	}
	identity, ok := identities[userID]
	if !ok || identity.Email == "" {
		return
	}

	result, err := f.email.Send(ctx, domain.EmailRequest{
		RecipientEmail:   identity.Email,
		NotificationType: domain.NotificationTypeMessage,
		EventID:          ev.ID,
		EventName:        ev.Name,
		SenderName:       senderName,
		MessagePreview:   preview,
		RecipientUserID:  userID,
	})
	if err != nil {
		logger.Log.Warn("fan-out: email enqueue failed",
			zap.String("userID", userID), zap.Error(err))
		return
	}
	if result.Skipped {
		logger.Log.Info("fan-out: email skipped",
			zap.String("userID", userID), zap.String("reason", result.Reason))
	}
}

// emit notifies local listeners and the cross-service stream off the send path.
func (f *NotificationFanout) emit(evt domain.MessageSentEvent) {
	f.mu.Lock()
	listeners := make([]func(domain.MessageSentEvent), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	go func() {
		for _, fn := range listeners {
			fn(evt)
		}
	}()

	if f.stream != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), streamPublishTimeout)
			defer cancel()
			if err := f.stream.PublishMessageSent(ctx, evt); err != nil {
				logger.Log.Warn("fan-out: stream publish failed",
					zap.String("eventID", evt.EventID), zap.Error(err))
			}
		}()
	}
}
