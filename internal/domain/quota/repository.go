package quota

import "context"

// Counter is the per-day upstream request counter. day is a UTC date in YYYY-MM-DD form.
type Counter interface {
	Current(ctx context.Context, day string) (int64, error)
	Increment(ctx context.Context, day string) (int64, error)
}
