package repository

import (
	"context"

	"event_messaging_service/internal/messaging/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// IdentityRepository batch-resolves user ids to display data. Unknown ids are
// simply absent from the result.
type IdentityRepository interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.Identity, error)
}

type identityRepository struct {
	db *pgxpool.Pool
}

// NewIdentityRepository create an IdentityRepository
func NewIdentityRepository(db *pgxpool.Pool) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Identity, error) {
	result := make(map[string]domain.Identity, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
      SELECT id, display_name, email FROM profiles WHERE id = ANY($1)
    `, ids)
	if err != nil {
		return nil, wrapPgError("profiles.find_by_ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var identity domain.Identity
		if err := rows.Scan(&id, &identity.DisplayName, &identity.Email); err != nil {
			return nil, wrapPgError("profiles.find_by_ids", err)
		}
		result[id] = identity
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("profiles.find_by_ids", err)
	}

	return result, nil
}
