package usecase

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
)

func TestFixtureIngestionService_IngestToday(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewFixtureIngestionService(f.service, provider, newFrozenGuard(&now), FixtureIngestionConfig{CompetitionIDs: []string{"2", "3"}}, nil)
	svc.now = func() time.Time { return testNow }

	provider.fixtures["2"] = FixturesResult{Success: true, Fixtures: []ProviderFixture{
		{
			ID:          100,
			Time:        "19:30:00",
			Competition: match.Competition{ID: 2, Name: "Premier League"},
			CountryName: "England",
			Home:        match.Team{ID: 10, Name: "Arsenal"},
			Away:        match.Team{ID: 11, Name: "Chelsea"},
		},
		{ID: 101, Time: "17:00", Competition: match.Competition{ID: 2, Name: "Premier League"}},
		{ID: 0, Time: "12:00"},
	}}
	provider.fixtures["3"] = FixturesResult{Success: false, Fixtures: []ProviderFixture{{ID: 300}}}

	if err := f.service.ReplaceBoardKeys(ctx, []string{"ls-7"}); err != nil {
		t.Fatalf("seed board: %v", err)
	}

	if err := svc.IngestToday(ctx); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	board, _ := f.service.BoardKeys(ctx)
	if want := []string{"ls-7", "ls-100", "ls-101"}; !reflect.DeepEqual(board, want) {
		t.Fatalf("unexpected board keys, got=%v want=%v", board, want)
	}

	got := f.state(t, "ls-100")
	if got.Status != match.StatusNotStarted || got.FixtureDate != "2026-03-14" || got.Scheduled != "19:30" {
		t.Fatalf("unexpected planned state: %+v", got)
	}
	if got.Competition == nil || got.Competition.Country != "England" || got.Home.Name != "Arsenal" {
		t.Fatalf("unexpected descriptors: %+v", got)
	}
	if got.Scores == nil || got.Scores.Score != "" {
		t.Fatalf("expected empty score snapshot, got=%+v", got.Scores)
	}
	if _, ok, _ := f.states.Get(ctx, "ls-300"); ok {
		t.Fatalf("unsuccessful response must be skipped")
	}
	if f.publisher.count(TopicLiveBoard) != 1 {
		t.Fatalf("expected board publish")
	}
}

func TestFixtureIngestionService_NoCompetitions(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewFixtureIngestionService(f.service, provider, newFrozenGuard(&now), FixtureIngestionConfig{}, nil)

	if err := svc.IngestToday(context.Background()); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(provider.fixtureCalls) != 0 {
		t.Fatalf("expected no upstream calls")
	}
}

func TestFixtureIngestionService_DoesNotReopenFinished(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewFixtureIngestionService(f.service, provider, newFrozenGuard(&now), FixtureIngestionConfig{CompetitionIDs: []string{"2"}}, nil)

	done := liveState(0, match.StatusFinished, "FT")
	done.FixtureID = 100
	f.seed(t, done)
	provider.fixtures["2"] = FixturesResult{Success: true, Fixtures: []ProviderFixture{{ID: 100, Time: "15:00"}}}

	if err := svc.IngestToday(ctx); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got := f.state(t, "ls-100"); got.Status != match.StatusFinished {
		t.Fatalf("finished fixture reopened: %+v", got)
	}
}

func TestFixtureIngestionService_DoesNotResetLiveMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	invalidations := &countingInvalidator{}
	f := newMatchServiceFixture(t, invalidations)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewFixtureIngestionService(f.service, provider, newFrozenGuard(&now), FixtureIngestionConfig{CompetitionIDs: []string{"2"}}, nil)
	svc.now = func() time.Time { return testNow }

	playing := liveState(900, match.StatusInPlay, "63")
	playing.FixtureID = 100
	playing.Scores = &match.Scores{Score: "2 - 1"}
	f.seed(t, playing)
	provider.fixtures["2"] = FixturesResult{Success: true, Fixtures: []ProviderFixture{{ID: 100, Time: "15:00", Competition: match.Competition{ID: 2}}}}

	if err := svc.IngestToday(ctx); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got := f.state(t, "ls-100")
	if got.Status != match.StatusInPlay || got.ID != 900 || got.Scores == nil || got.Scores.Score != "2 - 1" {
		t.Fatalf("live match reset by fixture ingestion: %+v", got)
	}
	if invalidations.calls() != 0 {
		t.Fatalf("standings must not be invalidated, got=%d", invalidations.calls())
	}
	board, _ := f.service.BoardKeys(ctx)
	if !reflect.DeepEqual(board, []string{"ls-100"}) {
		t.Fatalf("expected fixture key on board, got=%v", board)
	}
}
