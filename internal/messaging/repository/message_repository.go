package repository

import (
	"context"
	"time"

	"event_messaging_service/internal/messaging/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// MessageRepository definition message rows
type MessageRepository interface {
	EnsureSchema(ctx context.Context) error
	// Insert persists the message and fills Seq and CreatedAt from the database.
	Insert(ctx context.Context, m *domain.Message) error
	// FindPageBefore returns up to limit messages strictly older than before
	// (most recent when before is nil), newest first.
	FindPageBefore(ctx context.Context, threadID string, limit int, before *time.Time) ([]domain.Message, error)
}

type messageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS messages(
        seq bigserial PRIMARY KEY,
        id uuid NOT NULL UNIQUE,
        thread_id uuid NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
        sender_id uuid NOT NULL,
        sender_type text NOT NULL DEFAULT 'user',
        body text NOT NULL,
        created_at timestamptz NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		return wrapPgError("messages.ensure_schema", err)
	}

	_, err = r.db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS messages_thread_page
      ON messages(thread_id, created_at DESC, seq DESC)
    `)
	return wrapPgError("messages.ensure_schema", err)
}

func (r *messageRepository) Insert(ctx context.Context, m *domain.Message) error {
	row := r.db.QueryRow(ctx, `
      INSERT INTO messages(id, thread_id, sender_id, sender_type, body)
      VALUES ($1, $2, $3, $4, $5)
      RETURNING seq, created_at
    `, m.ID, m.ThreadID, m.SenderID, m.SenderType, m.Body)

	if err := row.Scan(&m.Seq, &m.CreatedAt); err != nil {
		return wrapPgError("messages.insert", err)
	}
	return nil
}

func (r *messageRepository) FindPageBefore(ctx context.Context, threadID string, limit int, before *time.Time) ([]domain.Message, error) {
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}

	queryStr := `
      SELECT seq, id, thread_id, sender_id, sender_type, body, created_at
      FROM messages
      WHERE thread_id = $1
    `
	params := []interface{}{threadID}

	if before != nil {
		queryStr += ` AND created_at < $2 ORDER BY created_at DESC, seq DESC LIMIT $3`
		params = append(params, *before, limit)
	} else {
		queryStr += ` ORDER BY created_at DESC, seq DESC LIMIT $2`
		params = append(params, limit)
	}

	rows, err := r.db.Query(ctx, queryStr, params...)
	if err != nil {
		return nil, wrapPgError("messages.find_page", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.ThreadID, &m.SenderID, &m.SenderType, &m.Body, &m.CreatedAt); err != nil {
			return nil, wrapPgError("messages.find_page", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("messages.find_page", err)
	}

	return messages, nil
}
