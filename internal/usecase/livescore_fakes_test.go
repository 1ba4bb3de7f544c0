package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
	"github.com/riskibarqy/live-scores/internal/infrastructure/repository/kv"
	"github.com/riskibarqy/live-scores/internal/platform/resilience"
)

var testNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

type stubLiveScoreProvider struct {
	mu sync.Mutex

	live     LiveMatchesResult
	liveErr  error
	events   map[match.ID]MatchEventsResult
	fixtures map[string]FixturesResult
	table    string
	tableErr error

	liveCalls    int
	tableCalls   int
	eventCalls   []match.ID
	fixtureCalls []string
}

func newStubLiveScoreProvider() *stubLiveScoreProvider {
	return &stubLiveScoreProvider{
		events:   make(map[match.ID]MatchEventsResult),
		fixtures: make(map[string]FixturesResult),
	}
}

func (p *stubLiveScoreProvider) FetchFixturesToday(_ context.Context, competitionID string) (FixturesResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixtureCalls = append(p.fixtureCalls, competitionID)
	return p.fixtures[competitionID], nil
}

func (p *stubLiveScoreProvider) FetchLiveMatches(context.Context) (LiveMatchesResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.liveCalls++
	return p.live, p.liveErr
}

func (p *stubLiveScoreProvider) FetchMatchEvents(_ context.Context, providerMatchID match.ID) (MatchEventsResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventCalls = append(p.eventCalls, providerMatchID)
	result, ok := p.events[providerMatchID]
	if !ok {
		return MatchEventsResult{Success: true}, nil
	}
	return result, nil
}

func (p *stubLiveScoreProvider) FetchCompetitionTable(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tableCalls++
	return p.table, p.tableErr
}

func (p *stubLiveScoreProvider) setEvents(id match.ID, events ...match.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[id] = MatchEventsResult{Success: true, Events: events}
}

func (p *stubLiveScoreProvider) eventCallIDs() []match.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]match.ID(nil), p.eventCalls...)
}

type publishedFrame struct {
	topic   string
	event   string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	frames []publishedFrame
}

func (p *recordingPublisher) Publish(topic, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, publishedFrame{topic: topic, event: event, payload: payload})
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, f := range p.frames {
		if f.topic == topic {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) last(topic string) (publishedFrame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].topic == topic {
			return p.frames[i], true
		}
	}
	return publishedFrame{}, false
}

type matchServiceFixture struct {
	store     *kvstore.MemoryStore
	states    *kv.StateRepository
	keys      *kv.KeySetRepository
	publisher *recordingPublisher
	service   *MatchService
}

func newMatchServiceFixture(t *testing.T, standings StandingsInvalidator) matchServiceFixture {
	t.Helper()

	store := kvstore.NewMemoryStore(func() time.Time { return testNow })
	states := kv.NewStateRepository(store)
	keys := kv.NewKeySetRepository(store)
	publisher := &recordingPublisher{}

	service := NewMatchService(states, keys, standings, publisher, MatchServiceConfig{}, nil)
	service.now = func() time.Time { return testNow }

	return matchServiceFixture{
		store:     store,
		states:    states,
		keys:      keys,
		publisher: publisher,
		service:   service,
	}
}

func (f matchServiceFixture) seed(t *testing.T, states ...match.State) {
	t.Helper()
	for _, s := range states {
		if err := f.states.Put(context.Background(), s); err != nil {
			t.Fatalf("seed state: %v", err)
		}
	}
}

func (f matchServiceFixture) state(t *testing.T, key string) match.State {
	t.Helper()
	s, ok, err := f.states.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("expected state %s, ok=%v err=%v", key, ok, err)
	}
	return s
}

func newFrozenGuard(now *time.Time) *UpstreamGuard {
	return NewUpstreamGuard(resilience.NewCircuitBreaker(func() time.Time { return *now }), resilience.CooldownConfig{}, nil)
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) InvalidateCompetition(context.Context, match.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingInvalidator) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
