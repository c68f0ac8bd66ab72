package repository

import (
	"context"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ParticipantRepository definition per-thread read state
type ParticipantRepository interface {
	EnsureSchema(ctx context.Context) error
	// Upsert creates the (thread, user) row if absent; safe to repeat.
	Upsert(ctx context.Context, threadID, userID string) error
	ListByThread(ctx context.Context, threadID string) ([]domain.Participant, error)
	SetLastRead(ctx context.Context, threadID, userID string, at time.Time) error
}

type participantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository create a ParticipantRepository
func NewParticipantRepository(db *pgxpool.Pool) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS participants(
        thread_id uuid NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
        user_id uuid NOT NULL,
        last_read_at timestamptz,
        PRIMARY KEY(thread_id, user_id)
      )
    `)
	return wrapPgError("participants.ensure_schema", err)
}

func (r *participantRepository) Upsert(ctx context.Context, threadID, userID string) error {
	_, err := r.db.Exec(ctx, `
      INSERT INTO participants(thread_id, user_id)
      VALUES ($1, $2)
      ON CONFLICT (thread_id, user_id) DO NOTHING
    `, threadID, userID)
	return wrapPgError("participants.upsert", err)
}

func (r *participantRepository) ListByThread(ctx context.Context, threadID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, `
      SELECT thread_id, user_id, last_read_at
      FROM participants
      WHERE thread_id = $1
    `, threadID)
	if err != nil {
		return nil, wrapPgError("participants.list", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ThreadID, &p.UserID, &p.LastReadAt); err != nil {
			return nil, wrapPgError("participants.list", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("participants.list", err)
	}

	return participants, nil
}

func (r *participantRepository) SetLastRead(ctx context.Context, threadID, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
      INSERT INTO participants(thread_id, user_id, last_read_at)
      VALUES ($1, $2, $3)
      ON CONFLICT (thread_id, user_id) DO UPDATE SET last_read_at = EXCLUDED.last_read_at
    `, threadID, userID, at)
	return wrapPgError("participants.set_last_read", err)
}
