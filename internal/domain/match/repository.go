package match

import "context"

// StateRepository stores one whole State per match key.
type StateRepository interface {
	Get(ctx context.Context, matchKey string) (State, bool, error)
	Put(ctx context.Context, state State) error
}

// KeySetRepository holds the live and board match key collections.
type KeySetRepository interface {
	LiveKeys(ctx context.Context) ([]string, error)
	ReplaceLiveKeys(ctx context.Context, keys []string) error
	BoardKeys(ctx context.Context) ([]string, error)
	ReplaceBoardKeys(ctx context.Context, keys []string) error
}

// EventDedupRepository marks stable event keys as seen and reports novelty.
type EventDedupRepository interface {
	MarkSeen(ctx context.Context, matchKey, stableKey string) (bool, error)
}
