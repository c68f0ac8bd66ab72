package app

import (
	"context"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/cache"
	"event_messaging_service/pkg/logger"

	"go.uber.org/zap"
)

// FallbackDisplayName is used when a profile row is missing or unreadable.
const FallbackDisplayName = "Someone"

const (
	identityAttempts = 3
	identityBackoff  = 200 * time.Millisecond
)

// IdentityResolver batch-resolves user ids to display data, with per-id
// caching and retry on transient failures. Resolution never fails the caller:
// the worst case is a partial or empty map.
type IdentityResolver struct {
	identities repository.IdentityRepository
	cache      *cache.Cache[domain.Identity]
}

// NewIdentityResolver create an IdentityResolver
func NewIdentityResolver(identities repository.IdentityRepository, ttl time.Duration) *IdentityResolver {
	return &IdentityResolver{
		identities: identities,
		cache:      cache.New[domain.Identity](ttl),
	}
}

// Resolve returns display data for the given ids, serving cached entries and
// fetching the rest in one batch, retried up to three times with a short
// pause. Ids without a profile row are absent from the result.
func (r *IdentityResolver) Resolve(ctx context.Context, ids []string) map[string]domain.Identity {
	result := make(map[string]domain.Identity, len(ids))
	var missing []string
	for _, id := range ids {
		if identity, ok := r.cache.Get(id); ok {
			result[id] = identity
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result
	}

	fetched, err := r.fetch(ctx, missing)
	if err != nil {
		logger.Log.Warn("identity resolution failed, using fallbacks", zap.Error(err))
		return result
	}

	for id, identity := range fetched {
		r.cache.Set(id, identity)
		result[id] = identity
	}
	return result
}

func (r *IdentityResolver) fetch(ctx context.Context, ids []string) (map[string]domain.Identity, error) {
	var lastErr error
	for attempt := 1; attempt <= identityAttempts; attempt++ {
		result, err := r.identities.FindByIDs(ctx, ids)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < identityAttempts {
			select {
			case <-time.After(identityBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// DisplayName returns the resolved name for id, or the fallback.
func DisplayName(identities map[string]domain.Identity, id string) string {
	if identity, ok := identities[id]; ok && identity.DisplayName != "" {
		return identity.DisplayName
	}
	return FallbackDisplayName
}
