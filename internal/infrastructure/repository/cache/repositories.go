package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	basecache "github.com/riskibarqy/live-scores/internal/platform/cache"
)

// StateRepository is a write-through cache in front of the shared state store.
// Only this process's writes refresh it, so its ttl bounds staleness from other writers.
type StateRepository struct {
	next  match.StateRepository
	cache *basecache.Store[cachedState]
}

func NewStateRepository(next match.StateRepository, ttl time.Duration) *StateRepository {
	return &StateRepository{next: next, cache: basecache.NewStore[cachedState](ttl)}
}

func (r *StateRepository) Get(ctx context.Context, matchKey string) (match.State, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, "state:"+matchKey, func(ctx context.Context) (cachedState, error) {
		item, exists, err := r.next.Get(ctx, matchKey)
		if err != nil {
			return cachedState{}, err
		}
		return cachedState{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.State{}, false, err
	}
	return cached.value.WithEvents(cached.value.LastEvents), cached.exists, nil
}

func (r *StateRepository) Put(ctx context.Context, state match.State) error {
	key := "state:" + state.Key()
	if err := r.next.Put(ctx, state); err != nil {
		r.cache.Delete(ctx, key)
		return err
	}
	r.cache.Set(ctx, key, cachedState{value: state.WithEvents(state.LastEvents), exists: true})
	return nil
}

type cachedState struct {
	value  match.State
	exists bool
}
