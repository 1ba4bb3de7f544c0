package kv

import (
	"context"
	"fmt"

	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
)

// KeySetRepository keeps live keys as a short-lived set and board keys as an ordered list without expiry.
type KeySetRepository struct {
	store kvstore.Store
}

func NewKeySetRepository(store kvstore.Store) *KeySetRepository {
	return &KeySetRepository{store: store}
}

func (r *KeySetRepository) LiveKeys(ctx context.Context) ([]string, error) {
	keys, err := r.store.SetMembers(ctx, liveKeysKey)
	if err != nil {
		return nil, fmt.Errorf("list live keys: %w", err)
	}
	return keys, nil
}

func (r *KeySetRepository) ReplaceLiveKeys(ctx context.Context, keys []string) error {
	if err := r.store.SetReplace(ctx, liveKeysKey, keys, liveKeysTTL); err != nil {
		return fmt.Errorf("replace live keys: %w", err)
	}
	return nil
}

func (r *KeySetRepository) BoardKeys(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListRange(ctx, boardKeysKey)
	if err != nil {
		return nil, fmt.Errorf("list board keys: %w", err)
	}
	return keys, nil
}

func (r *KeySetRepository) ReplaceBoardKeys(ctx context.Context, keys []string) error {
	if err := r.store.ListReplace(ctx, boardKeysKey, keys); err != nil {
		return fmt.Errorf("replace board keys: %w", err)
	}
	return nil
}
