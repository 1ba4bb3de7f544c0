package usecase

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/resilience"
)

func TestLiveReconcileService_Tick_EmptySnapshotFreezesPreviousLive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	provider.live = LiveMatchesResult{Success: true}
	now := testNow
	svc := NewLiveReconcileService(f.service, provider, newFrozenGuard(&now), nil)

	f.seed(t, liveState(1, match.StatusInPlay, "80"))
	if err := f.service.ReplaceLiveKeys(ctx, []string{"ls-1"}); err != nil {
		t.Fatalf("seed live keys: %v", err)
	}
	if err := f.service.ReplaceBoardKeys(ctx, []string{"ls-1", "ls-50"}); err != nil {
		t.Fatalf("seed board keys: %v", err)
	}

	if err := svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if got := f.state(t, "ls-1"); got.Status != match.StatusFinished || got.Time != "FT" {
		t.Fatalf("expected frozen record, got=%+v", got)
	}
	live, _ := f.service.LiveKeys(ctx)
	if len(live) != 0 {
		t.Fatalf("expected live keys cleared, got=%v", live)
	}
	board, _ := f.service.BoardKeys(ctx)
	if !reflect.DeepEqual(board, []string{"ls-1", "ls-50"}) {
		t.Fatalf("board keys must be untouched, got=%v", board)
	}
	if f.publisher.count(TopicLiveBoard) != 1 {
		t.Fatalf("expected board published")
	}
}

func TestLiveReconcileService_Tick_ReconcilesLiveFinishedAndDisappeared(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewLiveReconcileService(f.service, provider, newFrozenGuard(&now), nil)

	stillLive := liveState(1, match.StatusInPlay, "55")
	stillLive.Scheduled = "14:00"
	gone := liveState(2, match.StatusInPlay, "88")
	gone.Scheduled = "13:00"
	f.seed(t, stillLive, gone)
	if err := f.service.ReplaceLiveKeys(ctx, []string{"ls-1", "ls-2"}); err != nil {
		t.Fatalf("seed live keys: %v", err)
	}
	if err := f.service.ReplaceBoardKeys(ctx, []string{"ls-1", "ls-2", "ls-50"}); err != nil {
		t.Fatalf("seed board keys: %v", err)
	}

	nowLive := liveState(1, match.StatusInPlay, "60")
	nowLive.Scheduled = "14:00"
	justFinished := liveState(3, match.StatusFinished, "90+4")
	justFinished.Scheduled = "12:30"
	provider.live = LiveMatchesResult{Success: true, Matches: []match.State{nowLive, justFinished}}
	provider.setEvents(2, match.Event{Type: match.EventGoal, Time: "12", Player: "Havertz", TS: testNow}, match.Event{Type: "."})
	provider.setEvents(3, match.Event{Type: match.EventRedCard, Time: "77", Player: "Rice", TS: testNow})

	if err := svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	live, _ := f.service.LiveKeys(ctx)
	if !reflect.DeepEqual(live, []string{"ls-1"}) {
		t.Fatalf("unexpected live keys: %v", live)
	}
	if got := f.state(t, "ls-1"); got.Time != "60" || got.Status != match.StatusInPlay {
		t.Fatalf("live record not updated: %+v", got)
	}

	disappeared := f.state(t, "ls-2")
	if disappeared.Status != match.StatusFinished || len(disappeared.LastEvents) != 1 || disappeared.LastEvents[0].Player != "Havertz" {
		t.Fatalf("disappeared match not frozen with final events: %+v", disappeared)
	}

	finished := f.state(t, "ls-3")
	if finished.Status != match.StatusFinished || len(finished.LastEvents) != 1 || finished.LastEvents[0].Player != "Rice" {
		t.Fatalf("finished match not refreshed: %+v", finished)
	}

	board, _ := f.service.BoardKeys(ctx)
	if want := []string{"ls-1", "ls-3", "ls-2", "ls-50"}; !reflect.DeepEqual(board, want) {
		t.Fatalf("unexpected board keys, got=%v want=%v", board, want)
	}
	if f.publisher.count(TopicLiveBoard) != 1 {
		t.Fatalf("expected one board publish")
	}
}

func TestLiveReconcileService_Tick_FinishedTwiceRefreshesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewLiveReconcileService(f.service, provider, newFrozenGuard(&now), nil)

	provider.live = LiveMatchesResult{Success: true, Matches: []match.State{liveState(3, match.StatusFinished, "FT")}}

	for i := 0; i < 2; i++ {
		if err := svc.Tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if got := provider.eventCallIDs(); len(got) != 1 {
		t.Fatalf("expected one final event refresh, got=%v", got)
	}
}

func TestLiveReconcileService_Tick_LiveToFinishedRefreshesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMatchServiceFixture(t, nil)
	provider := newStubLiveScoreProvider()
	now := testNow
	svc := NewLiveReconcileService(f.service, provider, newFrozenGuard(&now), nil)

	f.seed(t, liveState(1, match.StatusInPlay, "89"))
	if err := f.service.ReplaceLiveKeys(ctx, []string{"ls-1"}); err != nil {
		t.Fatalf("seed live keys: %v", err)
	}
	if err := f.service.ReplaceBoardKeys(ctx, []string{"ls-1"}); err != nil {
		t.Fatalf("seed board keys: %v", err)
	}

	provider.live = LiveMatchesResult{Success: true, Matches: []match.State{liveState(1, match.StatusFinished, "FT")}}
	provider.setEvents(1, match.Event{Type: match.EventGoal, Time: "90", Player: "Saka", TS: testNow})

	if err := svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if got := provider.eventCallIDs(); !reflect.DeepEqual(got, []match.ID{1}) {
		t.Fatalf("expected a single final event fetch, got=%v", got)
	}
	got := f.state(t, "ls-1")
	if got.Status != match.StatusFinished || len(got.LastEvents) != 1 || got.LastEvents[0].Player != "Saka" {
		t.Fatalf("expected finished record with final events: %+v", got)
	}
	board, _ := f.service.BoardKeys(ctx)
	if !reflect.DeepEqual(board, []string{"ls-1"}) {
		t.Fatalf("unexpected board keys: %v", board)
	}
}

func TestLiveReconcileService_Tick_UpstreamFailureHasNoSideEffects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     LiveMatchesResult
		err        error
		wantReason string
	}{
		{name: "quota", err: ErrQuotaExceeded, wantReason: "quota_exceeded"},
		{name: "payload", err: ErrPayloadShape, wantReason: "json_parse_error"},
		{name: "success false", result: LiveMatchesResult{Success: false, Matches: []match.State{liveState(1, match.StatusInPlay, "1")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			f := newMatchServiceFixture(t, nil)
			provider := newStubLiveScoreProvider()
			provider.live = tt.result
			provider.liveErr = tt.err
			now := testNow
			guard := newFrozenGuard(&now)
			svc := NewLiveReconcileService(f.service, provider, guard, nil)

			f.seed(t, liveState(9, match.StatusInPlay, "10"))
			if err := f.service.ReplaceLiveKeys(ctx, []string{"ls-9"}); err != nil {
				t.Fatalf("seed live keys: %v", err)
			}

			if err := svc.Tick(ctx); err != nil {
				t.Fatalf("tick must not surface upstream failures: %v", err)
			}
			if got := f.state(t, "ls-9"); got.Status != match.StatusInPlay {
				t.Fatalf("record changed after failed tick: %+v", got)
			}
			if f.publisher.count(TopicLiveBoard) != 0 {
				t.Fatalf("no publish expected")
			}

			snap := guard.Snapshot()
			if tt.wantReason == "" {
				if snap.State != resilience.CircuitStateClosed {
					t.Fatalf("expected closed breaker, got=%+v", snap)
				}
				return
			}
			if snap.Reason != tt.wantReason {
				t.Fatalf("unexpected breaker reason: %+v", snap)
			}

			now = now.Add(time.Minute)
			if err := svc.Tick(ctx); err != nil {
				t.Fatalf("tick while open: %v", err)
			}
			if provider.liveCalls != 1 {
				t.Fatalf("expected no upstream call while open, calls=%d", provider.liveCalls)
			}
		})
	}
}
