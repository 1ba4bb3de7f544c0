package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
)

type countingStateRepository struct {
	states map[string]match.State
	gets   int
	putErr error
}

func (r *countingStateRepository) Get(_ context.Context, matchKey string) (match.State, bool, error) {
	r.gets++
	s, ok := r.states[matchKey]
	return s, ok, nil
}

func (r *countingStateRepository) Put(_ context.Context, state match.State) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.states[state.Key()] = state
	return nil
}

func TestStateRepository_ReadsThroughOnce(t *testing.T) {
	t.Parallel()

	next := &countingStateRepository{states: map[string]match.State{"ls-1": {FixtureID: 1, Time: "10"}}}
	repo := NewStateRepository(next, time.Minute)

	for i := 0; i < 3; i++ {
		got, ok, err := repo.Get(context.Background(), "ls-1")
		if err != nil || !ok || got.Time != "10" {
			t.Fatalf("unexpected read: got=%+v ok=%v err=%v", got, ok, err)
		}
	}
	if next.gets != 1 {
		t.Fatalf("expected one backing read, got=%d", next.gets)
	}
}

func TestStateRepository_PutRefreshesCache(t *testing.T) {
	t.Parallel()

	next := &countingStateRepository{states: map[string]match.State{}}
	repo := NewStateRepository(next, time.Minute)
	ctx := context.Background()

	if _, ok, _ := repo.Get(ctx, "ls-2"); ok {
		t.Fatalf("expected miss")
	}
	if err := repo.Put(ctx, match.State{FixtureID: 2, Time: "55"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := repo.Get(ctx, "ls-2")
	if err != nil || !ok || got.Time != "55" {
		t.Fatalf("expected written state, got=%+v ok=%v err=%v", got, ok, err)
	}
	if next.gets != 1 {
		t.Fatalf("expected write-through without reload, gets=%d", next.gets)
	}
}

func TestStateRepository_FailedPutDropsEntry(t *testing.T) {
	t.Parallel()

	next := &countingStateRepository{states: map[string]match.State{"ls-3": {FixtureID: 3, Time: "1"}}}
	repo := NewStateRepository(next, time.Minute)
	ctx := context.Background()

	_, _, _ = repo.Get(ctx, "ls-3")
	next.putErr = errors.New("down")
	if err := repo.Put(ctx, match.State{FixtureID: 3, Time: "2"}); err == nil {
		t.Fatalf("expected put error")
	}

	_, _, _ = repo.Get(ctx, "ls-3")
	if next.gets != 2 {
		t.Fatalf("expected reload after failed put, gets=%d", next.gets)
	}
}
