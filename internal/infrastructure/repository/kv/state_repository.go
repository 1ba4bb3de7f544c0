package kv

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
)

type StateRepository struct {
	store kvstore.Store
}

func NewStateRepository(store kvstore.Store) *StateRepository {
	return &StateRepository{store: store}
}

func (r *StateRepository) Get(ctx context.Context, matchKey string) (match.State, bool, error) {
	raw, ok, err := r.store.Get(ctx, stateKey(matchKey))
	if err != nil {
		return match.State{}, false, fmt.Errorf("get match state %s: %w", matchKey, err)
	}
	if !ok {
		return match.State{}, false, nil
	}

	var state match.State
	if err := sonic.UnmarshalString(raw, &state); err != nil {
		return match.State{}, false, fmt.Errorf("decode match state %s: %w", matchKey, err)
	}
	return state, true, nil
}

func (r *StateRepository) Put(ctx context.Context, state match.State) error {
	matchKey := state.Key()
	raw, err := sonic.MarshalString(state)
	if err != nil {
		return fmt.Errorf("encode match state %s: %w", matchKey, err)
	}
	if err := r.store.Set(ctx, stateKey(matchKey), raw, retentionFor(state.Status)); err != nil {
		return fmt.Errorf("put match state %s: %w", matchKey, err)
	}
	return nil
}

func retentionFor(status match.Status) time.Duration {
	switch {
	case status == match.StatusNotStarted:
		return notStartedTTL
	case status.IsLive():
		return liveTTL
	case status.IsFinished():
		return finishedTTL
	default:
		return otherTTL
	}
}
