package app

import (
	"context"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/stretchr/testify/mock"
)

// MockThreadRepository Mock ThreadRepository
type MockThreadRepository struct {
	mock.Mock
}

// EnsureSchema mock schema setup
func (m *MockThreadRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// FindGroupThread mock find the group thread of an event
func (m *MockThreadRepository) FindGroupThread(ctx context.Context, eventID string) (*domain.Thread, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindDirectThread mock find a 1:1 thread
func (m *MockThreadRepository) FindDirectThread(ctx context.Context, eventID, counterpartID string) (*domain.Thread, error) {
	args := m.Called(ctx, eventID, counterpartID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

// Insert mock thread insert
func (m *MockThreadRepository) Insert(ctx context.Context, t *domain.Thread) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

// UpdateLastMessage mock preview update
func (m *MockThreadRepository) UpdateLastMessage(ctx context.Context, threadID, preview string, at time.Time) error {
	args := m.Called(ctx, threadID, preview, at)
	return args.Error(0)
}

// Archive mock thread archive
func (m *MockThreadRepository) Archive(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

// Delete mock thread delete
func (m *MockThreadRepository) Delete(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// EnsureSchema mock schema setup
func (m *MockMessageRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Insert mock message insert
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindPageBefore mock page read
func (m *MockMessageRepository) FindPageBefore(ctx context.Context, threadID string, limit int, before *time.Time) ([]domain.Message, error) {
	args := m.Called(ctx, threadID, limit, before)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockParticipantRepository Mock ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

// EnsureSchema mock schema setup
func (m *MockParticipantRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Upsert mock participant upsert
func (m *MockParticipantRepository) Upsert(ctx context.Context, threadID, userID string) error {
	args := m.Called(ctx, threadID, userID)
	return args.Error(0)
}

// ListByThread mock participant list
func (m *MockParticipantRepository) ListByThread(ctx context.Context, threadID string) ([]domain.Participant, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Participant), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetLastRead mock read receipt
func (m *MockParticipantRepository) SetLastRead(ctx context.Context, threadID, userID string, at time.Time) error {
	args := m.Called(ctx, threadID, userID, at)
	return args.Error(0)
}

// MockMembershipRepository Mock MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

// FindEvent mock event lookup
func (m *MockMembershipRepository) FindEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

// HasActiveRole mock role lookup
func (m *MockMembershipRepository) HasActiveRole(ctx context.Context, eventID, userID string) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

// HasAcceptedVendorInvite mock vendor invite lookup
func (m *MockMembershipRepository) HasAcceptedVendorInvite(ctx context.Context, eventID, userID string) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

// UpsertOwnerRole mock owner role upsert
func (m *MockMembershipRepository) UpsertOwnerRole(ctx context.Context, eventID, userID string) error {
	args := m.Called(ctx, eventID, userID)
	return args.Error(0)
}

// ListActiveRoleUserIDs mock active role list
func (m *MockMembershipRepository) ListActiveRoleUserIDs(ctx context.Context, eventID string) ([]string, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockIdentityRepository Mock IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

// FindByIDs mock profile batch lookup
func (m *MockIdentityRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Identity, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotificationRepository Mock NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

// AutoMigrate mock migrate
func (m *MockNotificationRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// Create mock notification create
func (m *MockNotificationRepository) Create(notification *domain.Notification) error {
	args := m.Called(notification)
	return args.Error(0)
}

// GetByUserID mock notification list
func (m *MockNotificationRepository) GetByUserID(userID string, page, limit int) ([]domain.Notification, int64, error) {
	args := m.Called(userID, page, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Notification), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

// GetUnreadCount mock unread count
func (m *MockNotificationRepository) GetUnreadCount(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// MarkAllAsRead mock mark read
func (m *MockNotificationRepository) MarkAllAsRead(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockEmailSender Mock EmailSender
type MockEmailSender struct {
	mock.Mock
}

// Send mock email enqueue
func (m *MockEmailSender) Send(ctx context.Context, req domain.EmailRequest) (domain.EmailResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.EmailResult), args.Error(1)
}

// MockEventPublisher Mock EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// PublishMessageSent mock stream publish
func (m *MockEventPublisher) PublishMessageSent(ctx context.Context, evt domain.MessageSentEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish mock channel publish
func (m *MockPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

// Subscribe mock channel subscribe
func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(msg domain.Message)) error {
	args := m.Called(channel, handler)
	return args.Error(0)
}
