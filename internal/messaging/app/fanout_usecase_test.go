package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNotificationFanout_NotifiesEveryoneButSender(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	memberA := uuid.New().String()
	memberB := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)
	mockEmail := new(MockEmailSender)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID, Name: "Launch party"}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{senderID, memberA, memberB}, nil)
	mockIdentities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{
		senderID: {DisplayName: "Alex", Email: "alex@example.com"},
		memberA:  {DisplayName: "Blair", Email: "blair@example.com"},
		memberB:  {DisplayName: "Casey", Email: "casey@example.com"},
	}, nil)
	mockNotifications.On("Create", mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Title == "New message from Alex" && n.EventID == eventID && n.UserID != senderID
	})).Return(nil).Times(2)
	mockEmail.On("Send", ctx, mock.Anything).Return(domain.EmailResult{}, nil).Times(2)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, mockEmail, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{
		ID:       uuid.New().String(),
		SenderID: senderID,
		Body:     "see you all at six",
	})

	assert.Equal(t, 2, delivered)
	mockNotifications.AssertExpectations(t)
	mockEmail.AssertExpectations(t)
}

func TestNotificationFanout_TruncatesNotificationPreview(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	recipient := uuid.New().String()
	body := strings.Repeat("y", 150)
	wantPreview := strings.Repeat("y", domain.NotificationPreviewMaxLen) + "..."

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: recipient}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{recipient}, nil)
	mockIdentities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{}, nil)
	mockNotifications.On("Create", mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Message == wantPreview && n.Title == "New message from "+FallbackDisplayName
	})).Return(nil)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, nil, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{SenderID: senderID, Body: body})

	assert.Equal(t, 1, delivered)
	mockNotifications.AssertExpectations(t)
}

func TestNotificationFanout_FallsBackToCreator(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	creatorID := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: creatorID}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return(nil, errors.New("table missing"))
	mockIdentities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{}, nil)
	mockNotifications.On("Create", mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == creatorID
	})).Return(nil)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, nil, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{SenderID: senderID, Body: "anyone there?"})

	assert.Equal(t, 1, delivered)
	mockNotifications.AssertExpectations(t)
}

func TestNotificationFanout_SelfSendNotifiesNobody(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	creatorID := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: creatorID}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{creatorID}, nil)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, nil, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{SenderID: creatorID, Body: "note to self"})

	assert.Equal(t, 0, delivered)
	mockNotifications.AssertNotCalled(t, "Create")
}

func TestNotificationFanout_ContinuesPastCreateFailure(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	memberA := uuid.New().String()
	memberB := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{memberA, memberB}, nil)
	mockIdentities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{}, nil)
	mockNotifications.On("Create", mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == memberA })).
		Return(errors.New("constraint violation"))
	mockNotifications.On("Create", mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == memberB })).
		Return(nil)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, nil, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{SenderID: senderID, Body: "hello"})

	assert.Equal(t, 1, delivered)
	mockNotifications.AssertExpectations(t)
}

func TestNotificationFanout_ToleratesSkippedEmail(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	recipient := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)
	mockEmail := new(MockEmailSender)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{recipient}, nil)
	mockIdentities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{
		recipient: {DisplayName: "Blair", Email: "blair@example.com"},
	}, nil)
	mockNotifications.On("Create", mock.Anything).Return(nil)
	mockEmail.On("Send", ctx, mock.Anything).Return(domain.EmailResult{Skipped: true, Reason: "rate limited"}, nil)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, mockEmail, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{SenderID: senderID, Body: "hello"})

	assert.Equal(t, 1, delivered)
	mockEmail.AssertExpectations(t)
}

func TestNotificationFanout_EmitsEventToListeners(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()
	senderID := uuid.New().String()
	recipient := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockIdentities := new(MockIdentityRepository)
	mockNotifications := new(MockNotificationRepository)

	mockMembership.On("FindEvent", ctx, eventID).Return(&domain.Event{ID: eventID, CreatorID: senderID}, nil)
	mockMembership.On("ListActiveRoleUserIDs", ctx, eventID).Return([]string{recipient}, nil)
	mockIdentities.On("FindByIDs", ctx, mock.Anything).Return(map[string]domain.Identity{}, nil)
	mockNotifications.On("Create", mock.Anything).Return(nil)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(mockIdentities, time.Minute), mockNotifications, nil, nil)

	received := make(chan domain.MessageSentEvent, 1)
	fanout.AddListener(func(evt domain.MessageSentEvent) {
		received <- evt
	})

	fanout.Dispatch(ctx, eventID, domain.Message{ID: "m1", SenderID: senderID, Body: "hello"})

	select {
	case evt := <-received:
		assert.Equal(t, eventID, evt.EventID)
		assert.Equal(t, "m1", evt.Message.ID)
		assert.Equal(t, 1, evt.ParticipantCount)
	case <-time.After(time.Second):
		t.Fatal("listener never received the event")
	}
}

func TestNotificationFanout_SkipsUnknownEvent(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New().String()

	mockMembership := new(MockMembershipRepository)
	mockMembership.On("FindEvent", ctx, eventID).Return(nil, nil)

	mockNotifications := new(MockNotificationRepository)

	fanout := NewNotificationFanout(mockMembership, NewIdentityResolver(new(MockIdentityRepository), time.Minute), mockNotifications, nil, nil)
	delivered := fanout.Dispatch(ctx, eventID, domain.Message{SenderID: uuid.New().String(), Body: "hello"})

	assert.Equal(t, 0, delivered)
	mockNotifications.AssertNotCalled(t, "Create")
}
