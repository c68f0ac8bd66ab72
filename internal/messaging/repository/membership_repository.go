package repository

import (
	"context"
	"errors"

	"event_messaging_service/internal/messaging/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MembershipRepository reads the planning platform's membership tables.
// All tables here are owned by the main application; the only write this
// service performs is the idempotent owner-role upsert.
type MembershipRepository interface {
	FindEvent(ctx context.Context, eventID string) (*domain.Event, error)
	HasActiveRole(ctx context.Context, eventID, userID string) (bool, error)
	HasAcceptedVendorInvite(ctx context.Context, eventID, userID string) (bool, error)
	// UpsertOwnerRole lazily inserts the owner's admin role record so that
	// row-level authorization downstream stays consistent.
	UpsertOwnerRole(ctx context.Context, eventID, userID string) error
	ListActiveRoleUserIDs(ctx context.Context, eventID string) ([]string, error)
}

type membershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository create a MembershipRepository
func NewMembershipRepository(db *pgxpool.Pool) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) FindEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	row := r.db.QueryRow(ctx, `
      SELECT id, creator_id, name FROM events WHERE id = $1
    `, eventID)

	var ev domain.Event
	if err := row.Scan(&ev.ID, &ev.CreatorID, &ev.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapPgError("events.find", err)
	}
	return &ev, nil
}

func (r *membershipRepository) HasActiveRole(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
      SELECT EXISTS(
        SELECT 1 FROM event_roles
        WHERE event_id = $1 AND user_id = $2 AND status = 'active'
      )
    `, eventID, userID).Scan(&exists)
	if err != nil {
		return false, wrapPgError("event_roles.has_active", err)
	}
	return exists, nil
}

func (r *membershipRepository) HasAcceptedVendorInvite(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
      SELECT EXISTS(
        SELECT 1 FROM vendor_invitations
        WHERE event_id = $1 AND vendor_id = $2 AND status = 'accepted'
      )
    `, eventID, userID).Scan(&exists)
	if err != nil {
		return false, wrapPgError("vendor_invitations.has_accepted", err)
	}
	return exists, nil
}

func (r *membershipRepository) UpsertOwnerRole(ctx context.Context, eventID, userID string) error {
	_, err := r.db.Exec(ctx, `
      INSERT INTO event_roles(event_id, user_id, role, status)
      VALUES ($1, $2, 'admin', 'active')
      ON CONFLICT (event_id, user_id) DO NOTHING
    `, eventID, userID)
	return wrapPgError("event_roles.upsert_owner", err)
}

func (r *membershipRepository) ListActiveRoleUserIDs(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
      SELECT DISTINCT user_id FROM event_roles
      WHERE event_id = $1 AND status = 'active'
    `, eventID)
	if err != nil {
		return nil, wrapPgError("event_roles.list_active", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapPgError("event_roles.list_active", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("event_roles.list_active", err)
	}

	return ids, nil
}
