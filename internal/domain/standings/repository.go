package standings

import "context"

// Cache holds the provider's raw table payload per competition.
type Cache interface {
	Get(ctx context.Context, competitionID string) (string, bool, error)
	Put(ctx context.Context, competitionID, payload string) error
	Delete(ctx context.Context, competitionID string) error
}
