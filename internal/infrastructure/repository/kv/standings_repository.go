package kv

import (
	"context"
	"fmt"

	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
)

type StandingsCache struct {
	store kvstore.Store
}

func NewStandingsCache(store kvstore.Store) *StandingsCache {
	return &StandingsCache{store: store}
}

func (c *StandingsCache) Get(ctx context.Context, competitionID string) (string, bool, error) {
	payload, ok, err := c.store.Get(ctx, standingsKey(competitionID))
	if err != nil {
		return "", false, fmt.Errorf("get standings %s: %w", competitionID, err)
	}
	return payload, ok, nil
}

func (c *StandingsCache) Put(ctx context.Context, competitionID, payload string) error {
	if err := c.store.Set(ctx, standingsKey(competitionID), payload, standingsTTL); err != nil {
		return fmt.Errorf("put standings %s: %w", competitionID, err)
	}
	return nil
}

func (c *StandingsCache) Delete(ctx context.Context, competitionID string) error {
	if err := c.store.Del(ctx, standingsKey(competitionID)); err != nil {
		return fmt.Errorf("delete standings %s: %w", competitionID, err)
	}
	return nil
}
