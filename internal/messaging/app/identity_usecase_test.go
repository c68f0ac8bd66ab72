package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentityResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()

	mockIdentities := new(MockIdentityRepository)
	mockIdentities.On("FindByIDs", ctx, []string{userID}).
		Return(map[string]domain.Identity{userID: {DisplayName: "Alex", Email: "alex@example.com"}}, nil)

	resolver := NewIdentityResolver(mockIdentities, time.Minute)
	result := resolver.Resolve(ctx, []string{userID})

	assert.Equal(t, "Alex", result[userID].DisplayName)
	mockIdentities.AssertNumberOfCalls(t, "FindByIDs", 1)
}

func TestIdentityResolver_CachesResolvedIds(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()

	mockIdentities := new(MockIdentityRepository)
	mockIdentities.On("FindByIDs", ctx, []string{userID}).
		Return(map[string]domain.Identity{userID: {DisplayName: "Alex"}}, nil)

	resolver := NewIdentityResolver(mockIdentities, time.Minute)

	first := resolver.Resolve(ctx, []string{userID})
	second := resolver.Resolve(ctx, []string{userID})

	assert.Equal(t, first, second)
	mockIdentities.AssertNumberOfCalls(t, "FindByIDs", 1)
}

func TestIdentityResolver_FetchesOnlyMissingIds(t *testing.T) {
	ctx := context.Background()
	cached := uuid.New().String()
	fresh := uuid.New().String()

	mockIdentities := new(MockIdentityRepository)
	mockIdentities.On("FindByIDs", ctx, []string{cached}).
		Return(map[string]domain.Identity{cached: {DisplayName: "Alex"}}, nil).Once()
	mockIdentities.On("FindByIDs", ctx, []string{fresh}).
		Return(map[string]domain.Identity{fresh: {DisplayName: "Blair"}}, nil).Once()

	resolver := NewIdentityResolver(mockIdentities, time.Minute)

	resolver.Resolve(ctx, []string{cached})
	result := resolver.Resolve(ctx, []string{cached, fresh})

	assert.Equal(t, "Alex", result[cached].DisplayName)
	assert.Equal(t, "Blair", result[fresh].DisplayName)
	mockIdentities.AssertExpectations(t)
}

func TestIdentityResolver_RetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()

	mockIdentities := new(MockIdentityRepository)
	mockIdentities.On("FindByIDs", ctx, []string{userID}).
		Return(nil, errors.New("timeout")).Twice()
	mockIdentities.On("FindByIDs", ctx, []string{userID}).
		Return(map[string]domain.Identity{userID: {DisplayName: "Alex"}}, nil).Once()

	resolver := NewIdentityResolver(mockIdentities, time.Minute)
	result := resolver.Resolve(ctx, []string{userID})

	assert.Equal(t, "Alex", result[userID].DisplayName)
	mockIdentities.AssertNumberOfCalls(t, "FindByIDs", 3)
}

func TestIdentityResolver_ExhaustedRetriesReturnPartial(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()

	mockIdentities := new(MockIdentityRepository)
	mockIdentities.On("FindByIDs", ctx, []string{userID}).
		Return(nil, errors.New("timeout"))

	resolver := NewIdentityResolver(mockIdentities, time.Minute)
	result := resolver.Resolve(ctx, []string{userID})

	assert.Empty(t, result)
	mockIdentities.AssertNumberOfCalls(t, "FindByIDs", 3)
}

func TestIdentityResolver_EmptyInput(t *testing.T) {
	mockIdentities := new(MockIdentityRepository)

	resolver := NewIdentityResolver(mockIdentities, time.Minute)
	result := resolver.Resolve(context.Background(), nil)

	assert.Empty(t, result)
	mockIdentities.AssertNotCalled(t, "FindByIDs")
}

func TestDisplayName_Fallback(t *testing.T) {
	userID := uuid.New().String()
	known := map[string]domain.Identity{userID: {DisplayName: "Alex"}}

	assert.Equal(t, "Alex", DisplayName(known, userID))
	assert.Equal(t, FallbackDisplayName, DisplayName(known, uuid.New().String()))
	assert.Equal(t, FallbackDisplayName, DisplayName(map[string]domain.Identity{userID: {}}, userID))
}
