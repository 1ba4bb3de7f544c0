package kv

import (
	"context"
	"fmt"

	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
)

type EventDedupRepository struct {
	store kvstore.Store
}

func NewEventDedupRepository(store kvstore.Store) *EventDedupRepository {
	return &EventDedupRepository{store: store}
}

func (r *EventDedupRepository) MarkSeen(ctx context.Context, matchKey, stableKey string) (bool, error) {
	added, err := r.store.SetAddWithTTL(ctx, seenKey(matchKey), stableKey, seenTTL)
	if err != nil {
		return false, fmt.Errorf("mark event seen %s: %w", matchKey, err)
	}
	return added, nil
}
