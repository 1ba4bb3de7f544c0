package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	standingsmock "github.com/riskibarqy/live-scores/internal/mocks/domain/standings"
	"github.com/stretchr/testify/mock"
)

func liveState(id match.ID, status match.Status, minute string) match.State {
	return match.State{
		ID:          id,
		Status:      status,
		Time:        match.Text(minute),
		Scheduled:   "15:00",
		Competition: &match.Competition{ID: 2, Name: "Premier League"},
		Home:        &match.Team{ID: 10, Name: "Arsenal"},
		Away:        &match.Team{ID: 11, Name: "Chelsea"},
		Scores:      &match.Scores{Score: "0 - 0"},
	}
}

func TestMatchService_UpsertFromProvider_EventLogAdoption(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()
	hint := IdentityHint{}

	first := liveState(5, match.StatusInPlay, "10")
	first.LastEvents = []match.Event{{Type: match.EventGoal, Time: "8", Side: "home", TS: testNow}}
	stored, err := f.service.UpsertFromProvider(ctx, first, &hint)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if len(stored.LastEvents) != 1 {
		t.Fatalf("expected incoming events adopted on creation, got=%d", len(stored.LastEvents))
	}

	second := liveState(5, match.StatusInPlay, "20")
	second.LastEvents = []match.Event{}
	stored, err = f.service.UpsertFromProvider(ctx, second, &hint)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if len(stored.LastEvents) != 1 || stored.Time != "20" {
		t.Fatalf("expected stored log kept with new fields, got=%+v", stored)
	}

	if got := f.publisher.count("ls-5"); got != 2 {
		t.Fatalf("expected one state frame per upsert, got=%d", got)
	}
}

func TestMatchService_UpsertFromProvider_AttachesFixtureIdentity(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()

	planned := liveState(0, match.StatusNotStarted, "")
	planned.FixtureID = 100
	planned.FixtureDate = "2026-03-14"
	f.seed(t, planned)
	if err := f.service.ReplaceBoardKeys(ctx, []string{"ls-100"}); err != nil {
		t.Fatalf("replace board keys: %v", err)
	}

	stored, err := f.service.UpsertFromProvider(ctx, liveState(999, match.StatusInPlay, "3"), nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stored.Key() != "ls-100" || stored.ID != 999 || stored.FixtureDate != "2026-03-14" {
		t.Fatalf("expected live record merged into fixture key, got=%+v", stored)
	}
	if _, ok, _ := f.states.Get(ctx, "ls-999"); ok {
		t.Fatalf("live id key must not be created")
	}
}

func TestMatchService_UpsertFromProvider_NeverReopensFinished(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()

	finished := liveState(7, match.StatusFinished, "FT")
	f.seed(t, finished)

	got, err := f.service.UpsertFromProvider(ctx, liveState(7, match.StatusInPlay, "88"), &IdentityHint{})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.Status != match.StatusFinished || f.state(t, "ls-7").Status != match.StatusFinished {
		t.Fatalf("finished record reopened: %+v", got)
	}
	if f.publisher.count("ls-7") != 0 {
		t.Fatalf("ignored update must not publish")
	}
}

func TestMatchService_UpsertFromProvider_RejectsRecordWithoutIdentity(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	_, err := f.service.UpsertFromProvider(context.Background(), match.State{Status: match.StatusInPlay}, &IdentityHint{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMatchService_UpsertFromProvider_ScoreChangeInvalidatesStandingsUsingMockery(t *testing.T) {
	t.Parallel()

	cache := standingsmock.NewCache(t)
	standings := NewStandingsService(cache, newStubLiveScoreProvider(), newFrozenGuard(&testNow), nil)
	f := newMatchServiceFixture(t, standings)
	ctx := context.Background()

	f.seed(t, liveState(5, match.StatusInPlay, "10"))

	cache.
		On("Delete", mock.Anything, "2").
		Return(nil).
		Once()

	unchanged := liveState(5, match.StatusInPlay, "11")
	if _, err := f.service.UpsertFromProvider(ctx, unchanged, &IdentityHint{}); err != nil {
		t.Fatalf("upsert unchanged: %v", err)
	}

	scored := liveState(5, match.StatusInPlay, "12")
	scored.Scores = &match.Scores{Score: "1 - 0"}
	if _, err := f.service.UpsertFromProvider(ctx, scored, &IdentityHint{}); err != nil {
		t.Fatalf("upsert scored: %v", err)
	}
}

func TestMatchService_MarkAsFinished(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()

	if _, ok, err := f.service.MarkAsFinished(ctx, "ls-404"); err != nil || ok {
		t.Fatalf("expected absent record, ok=%v err=%v", ok, err)
	}

	f.seed(t, liveState(8, match.StatusInPlay, "70"))
	updated, ok, err := f.service.MarkAsFinished(ctx, "ls-8")
	if err != nil || !ok {
		t.Fatalf("mark finished: ok=%v err=%v", ok, err)
	}
	if updated.Status != match.StatusFinished || updated.Time != match.FinishedMinute {
		t.Fatalf("unexpected frozen record: %+v", updated)
	}
	if f.state(t, "ls-8").Status != match.StatusFinished {
		t.Fatalf("frozen record not persisted")
	}

	if _, _, err := f.service.MarkAsFinished(ctx, "ls-8"); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if got := f.publisher.count("ls-8"); got != 1 {
		t.Fatalf("expected a single publish, got=%d", got)
	}
}

func TestMatchService_GetOrInitState(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()

	got, err := f.service.GetOrInitState(ctx, "ls-321")
	if err != nil {
		t.Fatalf("get or init: %v", err)
	}
	if got.ID != 321 || got.Status != match.StatusUnknown {
		t.Fatalf("unexpected placeholder: %+v", got)
	}
	if f.state(t, "ls-321").Status != match.StatusUnknown {
		t.Fatalf("placeholder not persisted")
	}

	if _, err := f.service.GetOrInitState(ctx, "garbage"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMatchService_AppendEvents(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()
	f.seed(t, liveState(9, match.StatusInPlay, "30"))

	goal := match.Event{Type: match.EventGoal, Time: "23", Side: "h", TS: testNow}
	updated, changed, err := f.service.AppendEvents(ctx, "ls-9", []match.Event{goal})
	if err != nil || !changed || len(updated.LastEvents) != 1 {
		t.Fatalf("expected appended event, changed=%v err=%v state=%+v", changed, err, updated)
	}

	_, changed, err = f.service.AppendEvents(ctx, "ls-9", []match.Event{goal})
	if err != nil || changed {
		t.Fatalf("expected no change on resend, changed=%v err=%v", changed, err)
	}
	if got := f.publisher.count("ls-9"); got != 1 {
		t.Fatalf("expected a single publish, got=%d", got)
	}
}

func TestMatchService_ReplaceEvents(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()
	seeded := liveState(4, match.StatusFinished, "FT")
	seeded.LastEvents = []match.Event{{Type: match.EventGoal, Time: "1", TS: testNow}}
	f.seed(t, seeded)

	replaced := []match.Event{{Type: "SUBST", Time: "60", TS: testNow}}
	got, err := f.service.ReplaceEvents(ctx, "ls-4", replaced)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(got.LastEvents) != 1 || got.LastEvents[0].Type != "SUBST" {
		t.Fatalf("expected replaced log, got=%+v", got.LastEvents)
	}
}

func TestMatchService_BoardMatchesAndPublish(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()

	if err := f.service.PublishLiveBoard(ctx); err != nil {
		t.Fatalf("publish empty board: %v", err)
	}
	if frame, ok := f.publisher.last(TopicLiveBoard); !ok || frame.event != EventLive {
		t.Fatalf("expected live frame on empty board, got=%+v", frame)
	}

	stale := liveState(0, match.StatusNotStarted, "")
	stale.FixtureID = 1
	stale.FixtureDate = "2026-03-13"
	today := liveState(0, match.StatusNotStarted, "")
	today.FixtureID = 2
	today.FixtureDate = "2026-03-14"
	f.seed(t, stale, today, liveState(3, match.StatusInPlay, "40"))
	if err := f.service.ReplaceBoardKeys(ctx, []string{"ls-1", "ls-2", "ls-3", "ls-404", "ls-2"}); err != nil {
		t.Fatalf("replace board keys: %v", err)
	}

	board, err := f.service.BoardMatches(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected stale fixture and missing key dropped, got=%+v", board)
	}

	if err := f.service.PublishLiveBoard(ctx); err != nil {
		t.Fatalf("publish board: %v", err)
	}
	frame, _ := f.publisher.last(TopicLiveBoard)
	if states, ok := frame.payload.([]match.State); !ok || len(states) != 2 {
		t.Fatalf("unexpected board payload: %+v", frame.payload)
	}
}

func TestMatchService_LiveMatchesSortedBySchedule(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()

	late := liveState(1, match.StatusInPlay, "5")
	late.Scheduled = "20:00"
	early := liveState(2, match.StatusInPlay, "50")
	early.Scheduled = "18:00"
	f.seed(t, late, early)
	if err := f.service.ReplaceLiveKeys(ctx, []string{"ls-1", "ls-2"}); err != nil {
		t.Fatalf("replace live keys: %v", err)
	}

	got, err := f.service.LiveMatches(ctx)
	if err != nil {
		t.Fatalf("live matches: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestMatchService_Match(t *testing.T) {
	t.Parallel()

	f := newMatchServiceFixture(t, nil)
	ctx := context.Background()
	f.seed(t, liveState(6, match.StatusInPlay, "1"))

	if _, err := f.service.Match(ctx, "ls-6"); err != nil {
		t.Fatalf("match: %v", err)
	}
	if _, err := f.service.Match(ctx, "ls-7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.service.Match(ctx, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
