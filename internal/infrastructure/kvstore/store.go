package kvstore

import (
	"context"
	"time"
)

// Store is the state store contract: TTL'd values, sets, ordered lists and counters.
// A ttl of zero means no expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	// SetAddWithTTL adds member to the set at key and refreshes its ttl.
	// It reports whether the member was not present before.
	SetAddWithTTL(ctx context.Context, key, member string, ttl time.Duration) (bool, error)
	SetReplace(ctx context.Context, key string, members []string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)

	ListReplace(ctx context.Context, key string, values []string) error
	ListRange(ctx context.Context, key string) ([]string, error)

	// IncrWithExpiry atomically increments the counter at key and sets ttl
	// when the increment created it.
	IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
