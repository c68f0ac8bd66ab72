package app

import (
	"context"

	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/logger"

	"go.uber.org/zap"
)

// AccessGate decides whether a principal may touch an event's conversation.
// Any error while checking is treated as no access.
type AccessGate struct {
	membership repository.MembershipRepository
}

// NewAccessGate create an AccessGate
func NewAccessGate(membership repository.MembershipRepository) *AccessGate {
	return &AccessGate{membership: membership}
}

// CanAccess grants access to the event owner, any active role holder, and any
// accepted vendor. Fails closed on every error path.
func (g *AccessGate) CanAccess(ctx context.Context, eventID, userID string) bool {
	if userID == "" {
		return false
	}

	ev, err := g.membership.FindEvent(ctx, eventID)
	if err != nil {
		logger.Log.Warn("access check: event lookup failed, denying",
			zap.String("eventID", eventID), zap.Error(err))
		return false
	}
	if ev != nil && ev.CreatorID == userID {
		// The owner may predate their own role row; insert it so downstream
		// row-level authorization stays consistent. Idempotent, failure tolerated.
		if err := g.membership.UpsertOwnerRole(ctx, eventID, userID); err != nil {
			logger.Log.Warn("access check: owner role upsert failed",
				zap.String("eventID", eventID), zap.Error(err))
		}
		return true
	}

	hasRole, err := g.membership.HasActiveRole(ctx, eventID, userID)
	if err != nil {
		logger.Log.Warn("access check: role lookup failed, denying",
			zap.String("eventID", eventID), zap.Error(err))
		return false
	}
	if hasRole {
		return true
	}

	accepted, err := g.membership.HasAcceptedVendorInvite(ctx, eventID, userID)
	if err != nil {
		logger.Log.Warn("access check: vendor invite lookup failed, denying",
			zap.String("eventID", eventID), zap.Error(err))
		return false
	}
	return accepted
}
