package repository

import (
	"context"
	"errors"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ThreadRepository definition thread rows
type ThreadRepository interface {
	EnsureSchema(ctx context.Context) error
	FindGroupThread(ctx context.Context, eventID string) (*domain.Thread, error)
	FindDirectThread(ctx context.Context, eventID, counterpartID string) (*domain.Thread, error)
	// Insert reports false when a unique-index conflict suppressed the insert;
	// the caller re-selects the winning row.
	Insert(ctx context.Context, t *domain.Thread) (bool, error)
	UpdateLastMessage(ctx context.Context, threadID, preview string, at time.Time) error
	Archive(ctx context.Context, threadID string) error
	Delete(ctx context.Context, threadID string) error
}

type threadRepository struct {
	db *pgxpool.Pool
}

// NewThreadRepository create a ThreadRepository
func NewThreadRepository(db *pgxpool.Pool) ThreadRepository {
	return &threadRepository{db: db}
}

// EnsureSchema creates the thread table and the uniqueness guarantees:
// one live group thread per event, one direct thread per (event, counterpart).
// Dependent rows are removed by FK cascade, not caller-orchestrated deletes.
func (r *threadRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS threads(
        id uuid PRIMARY KEY,
        event_id uuid NOT NULL,
        subject text NOT NULL,
        counterpart_id uuid,
        created_at timestamptz NOT NULL DEFAULT now(),
        last_message_at timestamptz,
        last_message_preview text NOT NULL DEFAULT '',
        is_archived boolean NOT NULL DEFAULT false
      )
    `)
	if err != nil {
		return wrapPgError("threads.ensure_schema", err)
	}

	_, err = r.db.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS threads_group_canonical
      ON threads(event_id)
      WHERE subject = 'group-chat' AND NOT is_archived
    `)
	if err != nil {
		return wrapPgError("threads.ensure_schema", err)
	}

	_, err = r.db.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS threads_direct_canonical
      ON threads(event_id, counterpart_id, subject)
      WHERE counterpart_id IS NOT NULL
    `)
	return wrapPgError("threads.ensure_schema", err)
}

func (r *threadRepository) FindGroupThread(ctx context.Context, eventID string) (*domain.Thread, error) {
	row := r.db.QueryRow(ctx, `
      SELECT id, event_id, subject, counterpart_id, created_at, last_message_at, last_message_preview, is_archived
      FROM threads
      WHERE event_id = $1 AND subject = $2 AND NOT is_archived
    `, eventID, domain.GroupSubject)

	return scanThread(row)
}

func (r *threadRepository) FindDirectThread(ctx context.Context, eventID, counterpartID string) (*domain.Thread, error) {
	row := r.db.QueryRow(ctx, `
      SELECT id, event_id, subject, counterpart_id, created_at, last_message_at, last_message_preview, is_archived
      FROM threads
      WHERE event_id = $1 AND counterpart_id = $2 AND subject = $3 AND NOT is_archived
    `, eventID, counterpartID, domain.DirectSubject)

	return scanThread(row)
}

func (r *threadRepository) Insert(ctx context.Context, t *domain.Thread) (bool, error) {
	tag, err := r.db.Exec(ctx, `
      INSERT INTO threads(id, event_id, subject, counterpart_id, created_at)
      VALUES ($1, $2, $3, $4, $5)
      ON CONFLICT DO NOTHING
    `, t.ID, t.EventID, t.Subject, t.CounterpartID, t.CreatedAt)
	if err != nil {
		return false, wrapPgError("threads.insert", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *threadRepository) UpdateLastMessage(ctx context.Context, threadID, preview string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
      UPDATE threads SET last_message_preview = $1, last_message_at = $2 WHERE id = $3
    `, preview, at, threadID)
	return wrapPgError("threads.update_last_message", err)
}

func (r *threadRepository) Archive(ctx context.Context, threadID string) error {
	_, err := r.db.Exec(ctx, `UPDATE threads SET is_archived = true WHERE id = $1`, threadID)
	return wrapPgError("threads.archive", err)
}

func (r *threadRepository) Delete(ctx context.Context, threadID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM threads WHERE id = $1`, threadID)
	return wrapPgError("threads.delete", err)
}

func scanThread(row pgx.Row) (*domain.Thread, error) {
	var t domain.Thread
	err := row.Scan(&t.ID, &t.EventID, &t.Subject, &t.CounterpartID, &t.CreatedAt, &t.LastMessageAt, &t.LastMessagePreview, &t.IsArchived)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapPgError("threads.find", err)
	}
	return &t, nil
}
