package livescore

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/quota"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/riskibarqy/live-scores/internal/usecase"
)

const (
	DefaultQuotaPerDay = 14500
	quotaDayLayout     = "2006-01-02"
)

// QuotaGate accounts outbound provider requests against a per-UTC-day cap.
type QuotaGate struct {
	counter quota.Counter
	limit   int64
	logger  *logging.Logger
	now     func() time.Time
}

func NewQuotaGate(counter quota.Counter, limit int64, logger *logging.Logger) *QuotaGate {
	if logger == nil {
		logger = logging.Default()
	}
	if limit <= 0 {
		limit = DefaultQuotaPerDay
	}
	return &QuotaGate{
		counter: counter,
		limit:   limit,
		logger:  logger,
		now:     time.Now,
	}
}

// Acquire consumes one request from today's quota or fails with usecase.ErrQuotaExceeded.
func (g *QuotaGate) Acquire(ctx context.Context) error {
	day := g.day()

	current, err := g.counter.Current(ctx, day)
	if err != nil {
		return fmt.Errorf("%w: read quota counter: %v", usecase.ErrUpstreamTransient, err)
	}
	if current >= g.limit {
		return fmt.Errorf("%w: %d/%d requests used on %s", usecase.ErrQuotaExceeded, current, g.limit, day)
	}

	next, err := g.counter.Increment(ctx, day)
	if err != nil {
		return fmt.Errorf("%w: increment quota counter: %v", usecase.ErrUpstreamTransient, err)
	}
	if next > g.limit {
		g.logger.WarnContext(ctx, "quota exhausted by concurrent request", "day", day, "used", next, "limit", g.limit)
		return fmt.Errorf("%w: %d/%d requests used on %s", usecase.ErrQuotaExceeded, next, g.limit, day)
	}
	return nil
}

// Usage reports today's consumed requests and the daily limit.
func (g *QuotaGate) Usage(ctx context.Context) (int64, int64, error) {
	used, err := g.counter.Current(ctx, g.day())
	if err != nil {
		return 0, g.limit, err
	}
	return used, g.limit, nil
}

func (g *QuotaGate) day() string {
	return g.now().UTC().Format(quotaDayLayout)
}
