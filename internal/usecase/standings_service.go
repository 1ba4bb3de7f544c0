package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/domain/standings"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/riskibarqy/live-scores/internal/platform/resilience"
)

// StandingsService is a cache-aside passthrough for competition tables.
type StandingsService struct {
	cache    standings.Cache
	provider LiveScoreProvider
	guard    *UpstreamGuard
	flight   resilience.SingleFlight[string]
	logger   *logging.Logger
}

func NewStandingsService(cache standings.Cache, provider LiveScoreProvider, guard *UpstreamGuard, logger *logging.Logger) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingsService{
		cache:    cache,
		provider: provider,
		guard:    guard,
		logger:   logger,
	}
}

// CompetitionTable returns the provider's table JSON for competitionID.
func (s *StandingsService) CompetitionTable(ctx context.Context, competitionID string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.CompetitionTable")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	if id, err := strconv.ParseInt(competitionID, 10, 64); err != nil || id <= 0 {
		return "", fmt.Errorf("%w: competition id must be a positive integer", ErrInvalidInput)
	}

	cached, ok, err := s.cache.Get(ctx, competitionID)
	if err != nil {
		s.logger.WarnContext(ctx, "read standings cache failed", "competition_id", competitionID, "error", err)
	}
	if ok && strings.TrimSpace(cached) != "" {
		return cached, nil
	}

	payload, err, _ := s.flight.Do(competitionID, func() (string, error) {
		body, ok := guardedCall(ctx, s.guard, "competition_table", func(ctx context.Context) (string, error) {
			return s.provider.FetchCompetitionTable(ctx, competitionID)
		})
		if !ok {
			return "", fmt.Errorf("%w: competition table unavailable", ErrDependencyUnavailable)
		}
		if err := s.cache.Put(ctx, competitionID, body); err != nil {
			s.logger.WarnContext(ctx, "write standings cache failed", "competition_id", competitionID, "error", err)
		}
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return payload, nil
}

func (s *StandingsService) InvalidateCompetition(ctx context.Context, competitionID match.ID) error {
	if competitionID <= 0 {
		return nil
	}
	if err := s.cache.Delete(ctx, competitionID.String()); err != nil {
		return fmt.Errorf("delete standings cache: %w", err)
	}
	return nil
}
