package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
)

type FixtureIngestionConfig struct {
	CompetitionIDs []string
}

// FixtureIngestionService loads today's planned fixtures onto the board.
type FixtureIngestionService struct {
	matches  *MatchService
	provider LiveScoreProvider
	guard    *UpstreamGuard
	cfg      FixtureIngestionConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewFixtureIngestionService(matches *MatchService, provider LiveScoreProvider, guard *UpstreamGuard, cfg FixtureIngestionConfig, logger *logging.Logger) *FixtureIngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureIngestionService{
		matches:  matches,
		provider: provider,
		guard:    guard,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// IngestToday upserts every fixture of the configured competitions as NOT_STARTED.
func (s *FixtureIngestionService) IngestToday(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureIngestionService.IngestToday")
	defer span.End()

	if len(s.cfg.CompetitionIDs) == 0 {
		s.logger.DebugContext(ctx, "skip fixture ingestion: no competitions configured")
		return nil
	}

	today := s.now().UTC().Format(fixtureDateLayout)
	planned := make([]match.State, 0)
	for _, competitionID := range s.cfg.CompetitionIDs {
		result, ok := guardedCall(ctx, s.guard, "fixtures_today", func(ctx context.Context) (FixturesResult, error) {
			return s.provider.FetchFixturesToday(ctx, competitionID)
		})
		if !ok || !result.Success {
			continue
		}
		for _, f := range result.Fixtures {
			if f.ID <= 0 {
				continue
			}
			planned = append(planned, plannedState(f, today))
		}
	}
	if len(planned) == 0 {
		return nil
	}

	hint := IdentityHint{}
	newKeys := make([]string, 0, len(planned))
	for _, state := range planned {
		stored, err := s.matches.UpsertFromProvider(ctx, state, &hint)
		if err != nil {
			return err
		}
		newKeys = append(newKeys, stored.Key())
	}

	boardKeys, err := s.matches.BoardKeys(ctx)
	if err != nil {
		return err
	}
	if err := s.matches.ReplaceBoardKeys(ctx, match.DistinctKeys(boardKeys, newKeys)); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "fixtures ingested", "date", today, "fixtures", len(planned))
	return s.matches.PublishLiveBoard(ctx)
}

func plannedState(f ProviderFixture, today string) match.State {
	scheduled := strings.TrimSpace(f.Time)
	if len(scheduled) > 5 {
		scheduled = scheduled[:5]
	}

	home, away := f.Home, f.Away
	return match.State{
		FixtureID:   f.ID,
		FixtureDate: today,
		Scheduled:   scheduled,
		Status:      match.StatusNotStarted,
		Competition: &match.Competition{
			ID:      f.Competition.ID,
			Name:    f.Competition.Name,
			Country: f.CountryName,
		},
		Home:       &home,
		Away:       &away,
		Scores:     &match.Scores{Score: ""},
		LastEvents: []match.Event{},
	}
}
