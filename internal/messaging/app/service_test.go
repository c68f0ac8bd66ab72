package app

import (
	"context"
	"testing"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type serviceFixture struct {
	membership    *MockMembershipRepository
	threads       *MockThreadRepository
	messages      *MockMessageRepository
	participants  *MockParticipantRepository
	identities    *MockIdentityRepository
	notifications *MockNotificationRepository
	service       *MessagingService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		membership:    new(MockMembershipRepository),
		threads:       new(MockThreadRepository),
		messages:      new(MockMessageRepository),
		participants:  new(MockParticipantRepository),
		identities:    new(MockIdentityRepository),
		notifications: new(MockNotificationRepository),
	}

	gate := NewAccessGate(f.membership)
	resolver := NewThreadResolver(gate, f.threads, f.participants, time.Minute)
	store := NewMessageStore(f.messages, f.threads, f.participants, time.Minute)
	fanout := NewNotificationFanout(f.membership, NewIdentityResolver(f.identities, time.Minute), f.notifications, nil, nil)
	bus := NewRealtimeBus(nil)

	f.service = NewMessagingService(gate, resolver, store, fanout, bus, f.notifications)
	return f
}

func TestMessagingService_RequiresPrincipal(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	f := newServiceFixture()

	_, err := f.service.GetGroupThread(ctx, "", eventID)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = f.service.SendMessage(ctx, "", eventID, "hello", domain.SenderTypeUser)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = f.service.GetMessages(ctx, "", eventID, domain.PageOptions{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	assert.ErrorIs(t, f.service.MarkThreadRead(ctx, "", eventID), domain.ErrAuthRequired)

	_, _, err = f.service.ListNotifications(ctx, "", 1, 20)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = f.service.SubscribeThread(ctx, "", eventID, func(domain.Message) {})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	f.membership.AssertNotCalled(t, "FindEvent")
}

func TestMessagingService_SendMessageDeliversAndFansOut(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	recipient := uuid.New().String()
	threadID := uuid.New().String()

	f := newServiceFixture()

	f.membership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID, Name: "Launch party"}, nil)
	f.membership.On("UpsertOwnerRole", ctx, eventID, senderID).Return(nil)
	f.membership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{senderID, recipient}, nil)

	existing := &domain.Thread{ID: threadID, EventID: eventID, Subject: domain.GroupSubject}
	f.threads.On("FindGroupThread", ctx, eventID).Return(existing, nil)
	f.threads.On("UpdateLastMessage", ctx, threadID, "hello everyone", mock.Anything).Return(nil)
	f.participants.On("Upsert", ctx, threadID, senderID).Return(nil)
	f.participants.On("ListByThread", ctx, threadID).Return([]domain.Participant{{UserID: senderID}}, nil)

	f.messages.On("Insert", ctx, mock.Anything).Return(nil)
	f.identities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{
		senderID: {DisplayName: "Alex"},
	}, nil)
	f.notifications.On("Create", mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == recipient && n.Title == "New message from Alex"
	})).Return(nil)

	msg, err := f.service.SendMessage(ctx, senderID, eventID, "hello everyone", domain.SenderTypeUser)

	assert.NoError(t, err)
	assert.Equal(t, threadID, msg.ThreadID)
	assert.Equal(t, "hello everyone", msg.Body)
	f.notifications.AssertExpectations(t)
}

func TestMessagingService_StrangerDeniedAfterCacheWarm(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	ownerID := uuid.New().String()
	strangerID := uuid.New().String()

	f := newServiceFixture()

	f.membership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: ownerID}, nil)
	f.membership.On("UpsertOwnerRole", ctx, eventID, ownerID).Return(nil)
	f.membership.On("HasActiveRole", ctx, eventID, strangerID).Return(false, nil)
	f.membership.On("HasAcceptedVendorInvite", ctx, eventID, strangerID).Return(false, nil)

	existing := &domain.Thread{ID: uuid.New().String(), EventID: eventID, Subject: domain.GroupSubject}
	f.threads.On("FindGroupThread", ctx, eventID).Return(existing, nil)
	f.participants.On("Upsert", ctx, existing.ID, ownerID).Return(nil)
	f.participants.On("ListByThread", ctx, existing.ID).Return([]domain.Participant{{UserID: ownerID}}, nil)

	// the owner warms the resolver cache
	_, err := f.service.GetGroupThread(ctx, ownerID, eventID)
	assert.NoError(t, err)

	// a non-member is denied every operation on the event, warm cache or not
	_, err = f.service.GetGroupThread(ctx, strangerID, eventID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.service.SendMessage(ctx, strangerID, eventID, "let me in", domain.SenderTypeUser)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.service.GetMessages(ctx, strangerID, eventID, domain.PageOptions{})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	f.messages.AssertNotCalled(t, "Insert")
}

func TestMessagingService_VendorSendRefreshesThreadPreview(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	counterpartID := uuid.New().String()
	threadID := uuid.New().String()

	f := newServiceFixture()

	f.membership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID, Name: "Launch party"}, nil)
	f.membership.On("UpsertOwnerRole", ctx, eventID, senderID).Return(nil)
	f.membership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{senderID}, nil)

	existing := &domain.Thread{ID: threadID, EventID: eventID, Subject: domain.DirectSubject, CounterpartID: &counterpartID}
	f.threads.On("FindDirectThread", ctx, eventID, counterpartID).Return(existing, nil)
	f.threads.On("UpdateLastMessage", ctx, threadID, "quote attached", mock.Anything).Return(nil)
	f.participants.On("Upsert", ctx, threadID, senderID).Return(nil)
	f.participants.On("ListByThread", ctx, threadID).Return([]domain.Participant{{UserID: senderID}}, nil)
	f.messages.On("Insert", ctx, mock.Anything).Return(nil)

	// warm the vendor thread entry
	_, err := f.service.GetVendorThread(ctx, senderID, eventID, counterpartID)
	assert.NoError(t, err)

	_, err = f.service.SendVendorMessage(ctx, senderID, eventID, counterpartID, "quote attached", domain.SenderTypeUser)
	assert.NoError(t, err)

	// the send dropped the vendor entry, so the next resolve re-reads the thread
	_, err = f.service.GetVendorThread(ctx, senderID, eventID, counterpartID)
	assert.NoError(t, err)
	f.threads.AssertNumberOfCalls(t, "FindDirectThread", 2)
}

func TestMessagingService_EmptyBodyNeverPersists(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()

	f := newServiceFixture()

	f.membership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID}, nil)
	f.membership.On("UpsertOwnerRole", ctx, eventID, senderID).Return(nil)

	existing := &domain.Thread{ID: uuid.New().String(), EventID: eventID, Subject: domain.GroupSubject}
	f.threads.On("FindGroupThread", ctx, eventID).Return(existing, nil)
	f.participants.On("Upsert", ctx, existing.ID, senderID).Return(nil)
	f.participants.On("ListByThread", ctx, existing.ID).Return([]domain.Participant{{UserID: senderID}}, nil)

	_, err := f.service.SendMessage(ctx, senderID, eventID, "   \n  ", domain.SenderTypeUser)

	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	f.messages.AssertNotCalled(t, "Insert")
	f.notifications.AssertNotCalled(t, "Create")
}
