package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
)

type QuotaCounter struct {
	store kvstore.Store
}

func NewQuotaCounter(store kvstore.Store) *QuotaCounter {
	return &QuotaCounter{store: store}
}

func (c *QuotaCounter) Current(ctx context.Context, day string) (int64, error) {
	raw, ok, err := c.store.Get(ctx, quotaKey(day))
	if err != nil {
		return 0, fmt.Errorf("get quota counter %s: %w", day, err)
	}
	if !ok {
		return 0, nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quota counter %s: %w", day, err)
	}
	return value, nil
}

// Increment bumps the day's counter; the first hit of a day gives it a two-day expiry.
func (c *QuotaCounter) Increment(ctx context.Context, day string) (int64, error) {
	value, err := c.store.IncrWithExpiry(ctx, quotaKey(day), quotaTTL)
	if err != nil {
		return 0, fmt.Errorf("increment quota counter %s: %w", day, err)
	}
	return value, nil
}
