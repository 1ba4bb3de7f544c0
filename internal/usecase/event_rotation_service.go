package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
)

const (
	minRotationCap = 8
	maxRotationCap = 20
)

type EventRotationConfig struct {
	Workers int
}

// EventRotationService polls events for a rotating slice of live matches each tick.
type EventRotationService struct {
	matches  *MatchService
	provider LiveScoreProvider
	guard    *UpstreamGuard
	dedup    match.EventDedupRepository
	cfg      EventRotationConfig
	logger   *logging.Logger

	cursor atomic.Int64
}

func NewEventRotationService(
	matches *MatchService,
	provider LiveScoreProvider,
	guard *UpstreamGuard,
	dedup match.EventDedupRepository,
	cfg EventRotationConfig,
	logger *logging.Logger,
) *EventRotationService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &EventRotationService{
		matches:  matches,
		provider: provider,
		guard:    guard,
		dedup:    dedup,
		cfg:      cfg,
		logger:   logger,
	}
}

// RotationCap sizes a tick so the whole live roster is covered in about five ticks.
func RotationCap(liveCount int) int {
	perTick := (liveCount + 4) / 5
	perTick = max(perTick, minRotationCap)
	perTick = min(perTick, maxRotationCap)
	return min(liveCount, perTick)
}

// rotationWindow returns the roster indexes visited on the given tick: perTick
// consecutive positions from tick*perTick, wrapping past the end of the roster.
func rotationWindow(tick int64, liveCount, perTick int) []int {
	if liveCount <= 0 || perTick <= 0 {
		return nil
	}
	perTick = min(perTick, liveCount)
	start := int(tick%int64(liveCount)) * perTick % liveCount
	out := make([]int, perTick)
	for i := range out {
		out[i] = (start + i) % liveCount
	}
	return out
}

// Tick fetches events for the next slice of live matches and merges what is new.
func (s *EventRotationService) Tick(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventRotationService.Tick")
	defer span.End()

	all, err := s.matches.LiveMatches(ctx)
	if err != nil {
		return err
	}
	live := make([]match.State, 0, len(all))
	for _, state := range all {
		if state.Status.IsLive() {
			live = append(live, state)
		}
	}
	if len(live) == 0 || s.guard.Open() {
		return nil
	}

	tick := s.cursor.Add(1) - 1
	window := rotationWindow(tick, len(live), RotationCap(len(live)))
	selected := make([]match.State, 0, len(window))
	for _, i := range window {
		selected = append(selected, live[i])
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var anyUpdate atomic.Bool
	var firstErr error
	var errOnce sync.Once
	var workers sync.WaitGroup
	for _, state := range selected {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			changed, err := s.pollMatch(ctx, state)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			if changed {
				anyUpdate.Store(true)
			}
		}); err != nil {
			workers.Done()
			return fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	if firstErr != nil {
		return firstErr
	}

	s.logger.DebugContext(ctx, "event rotation done", "tick", tick, "live", len(live), "from", window[0], "count", len(window), "updated", anyUpdate.Load())
	if !anyUpdate.Load() {
		return nil
	}
	return s.matches.PublishLiveBoard(ctx)
}

func (s *EventRotationService) pollMatch(ctx context.Context, state match.State) (bool, error) {
	if state.ID <= 0 {
		return false, nil
	}

	result, ok := guardedCall(ctx, s.guard, "match_events", func(ctx context.Context) (MatchEventsResult, error) {
		return s.provider.FetchMatchEvents(ctx, state.ID)
	})
	if !ok || !result.Success {
		return false, nil
	}

	matchKey := state.Key()
	accepted := make([]match.Event, 0, len(result.Events))
	for _, e := range dropPlaceholders(result.Events) {
		stableKey := match.StableEventKey(matchKey, e)
		isNew, err := s.dedup.MarkSeen(ctx, matchKey, stableKey)
		if err != nil {
			return false, fmt.Errorf("mark event seen: %w", err)
		}
		if shouldAcceptEvent(state, matchKey, stableKey, e, isNew) {
			accepted = append(accepted, e)
		}
	}
	if len(accepted) == 0 {
		return false, nil
	}

	_, changed, err := s.matches.AppendEvents(ctx, matchKey, accepted)
	if err != nil {
		return false, err
	}
	return changed, nil
}

// shouldAcceptEvent lets an event through when the dedup marker has not seen it, when the stored
// log lacks it (marker and state out of sync), or when it names a player the stored copy lacks.
func shouldAcceptEvent(state match.State, matchKey, stableKey string, incoming match.Event, isNew bool) bool {
	if isNew {
		return true
	}

	hasSame := false
	for _, stored := range state.LastEvents {
		if match.StableEventKey(matchKey, stored) != stableKey {
			continue
		}
		hasSame = true
		if strings.TrimSpace(stored.Player) == "" && strings.TrimSpace(incoming.Player) != "" {
			return true
		}
	}
	return !hasSame
}
