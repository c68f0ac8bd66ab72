package app

import (
	"context"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/cache"

	"github.com/google/uuid"
)

// ThreadResolver finds-or-creates the canonical threads of an event, with a
// short-TTL cache in front of the backend queries. The access gate runs on
// every call, cache hit or not; only positive verdicts are cached, keyed per
// (event, user), so a cached thread is never served to a principal the gate
// has not cleared.
type ThreadResolver struct {
	gate            *AccessGate
	threadRepo      repository.ThreadRepository
	participantRepo repository.ParticipantRepository
	cache           *cache.Cache[*domain.ThreadWithParticipants]
	allowed         *cache.Cache[bool]
}

// NewThreadResolver create a ThreadResolver
func NewThreadResolver(
	gate *AccessGate,
	threadRepo repository.ThreadRepository,
	participantRepo repository.ParticipantRepository,
	ttl time.Duration,
) *ThreadResolver {
	return &ThreadResolver{
		gate:            gate,
		threadRepo:      threadRepo,
		participantRepo: participantRepo,
		cache:           cache.New[*domain.ThreadWithParticipants](ttl),
		allowed:         cache.New[bool](ttl),
	}
}

// authorize runs the access gate, short-circuiting on a cached positive
// verdict. Denials are never cached so a freshly granted member is not locked
// out for a TTL.
func (r *ThreadResolver) authorize(ctx context.Context, eventID, userID string) bool {
	key := "access:" + eventID + ":" + userID
	if _, ok := r.allowed.Get(key); ok {
		return true
	}
	if !r.gate.CanAccess(ctx, eventID, userID) {
		return false
	}
	r.allowed.Set(key, true)
	return true
}

// EnsureGroupThread returns the canonical group thread of the event, creating
// it on first use. Concurrent first senders race to insert; the unique index
// suppresses the loser, which re-selects the winning row.
func (r *ThreadResolver) EnsureGroupThread(ctx context.Context, eventID, userID string) (*domain.ThreadWithParticipants, error) {
	if !r.authorize(ctx, eventID, userID) {
		return nil, domain.ErrAccessDenied
	}

	key := groupKey(eventID)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	return r.resolve(ctx, key, userID, domain.GroupKind(), eventID)
}

// EnsureVendorThread returns the 1:1 planner-vendor thread for the given
// counterpart. The "all" sentinel delegates to the group thread; "planner" is
// resolved to the vendor side of the pair, since direct threads are stored
// keyed by the vendor profile id.
func (r *ThreadResolver) EnsureVendorThread(ctx context.Context, eventID, userID, counterpart string) (*domain.ThreadWithParticipants, error) {
	if counterpart == domain.CounterpartAll {
		return r.EnsureGroupThread(ctx, eventID, userID)
	}

	counterpartID := counterpart
	if counterpart == domain.CounterpartPlanner {
		counterpartID = userID
	}

	if !r.authorize(ctx, eventID, userID) {
		return nil, domain.ErrAccessDenied
	}

	key := directKey(eventID, counterpartID)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	return r.resolve(ctx, key, userID, domain.DirectKind(counterpartID), eventID)
}

func (r *ThreadResolver) resolve(ctx context.Context, key, userID string, kind domain.ThreadKind, eventID string) (*domain.ThreadWithParticipants, error) {
	thread, err := r.find(ctx, eventID, kind)
	if err != nil {
		return nil, err
	}

	if thread == nil {
		candidate := &domain.Thread{
			ID:        uuid.New().String(),
			EventID:   eventID,
			Subject:   kind.Subject(),
			CreatedAt: time.Now(),
		}
		if !kind.IsGroup() {
			counterpartID := kind.CounterpartID()
			candidate.CounterpartID = &counterpartID
		}

		created, err := r.threadRepo.Insert(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if created {
			thread = candidate
		} else {
			// lost the creation race; the winner's row is canonical
			thread, err = r.find(ctx, eventID, kind)
			if err != nil {
				return nil, err
			}
			if thread == nil {
				return nil, domain.ErrThreadNotFound
			}
		}
	}

	if err := r.participantRepo.Upsert(ctx, thread.ID, userID); err != nil {
		return nil, err
	}

	participants, err := r.participantRepo.ListByThread(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	result := &domain.ThreadWithParticipants{Thread: *thread, Participants: participants}
	r.cache.Set(key, result)
	return result, nil
}

func (r *ThreadResolver) find(ctx context.Context, eventID string, kind domain.ThreadKind) (*domain.Thread, error) {
	if kind.IsGroup() {
		return r.threadRepo.FindGroupThread(ctx, eventID)
	}
	return r.threadRepo.FindDirectThread(ctx, eventID, kind.CounterpartID())
}

// ArchiveGroupThread archives the event's group thread and drops its cache entry.
func (r *ThreadResolver) ArchiveGroupThread(ctx context.Context, eventID, userID string) error {
	if !r.authorize(ctx, eventID, userID) {
		return domain.ErrAccessDenied
	}

	thread, err := r.threadRepo.FindGroupThread(ctx, eventID)
	if err != nil {
		return err
	}
	if thread == nil {
		return domain.ErrThreadNotFound
	}

	if err := r.threadRepo.Archive(ctx, thread.ID); err != nil {
		return err
	}
	r.cache.Invalidate(groupKey(eventID))
	return nil
}

// InvalidateThread drops the cached entry for the given thread, group or
// direct, so writes touching its preview are visible immediately.
func (r *ThreadResolver) InvalidateThread(t *domain.Thread) {
	if t.CounterpartID != nil {
		r.cache.Invalidate(directKey(t.EventID, *t.CounterpartID))
		return
	}
	r.cache.Invalidate(groupKey(t.EventID))
}

func groupKey(eventID string) string {
	return "thread:" + eventID
}

func directKey(eventID, counterpartID string) string {
	return "thread:" + eventID + ":vendor:" + counterpartID
}
