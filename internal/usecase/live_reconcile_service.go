package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
)

// LiveReconcileService runs the live/finished reconciliation tick.
type LiveReconcileService struct {
	matches  *MatchService
	provider LiveScoreProvider
	guard    *UpstreamGuard
	logger   *logging.Logger
}

func NewLiveReconcileService(matches *MatchService, provider LiveScoreProvider, guard *UpstreamGuard, logger *logging.Logger) *LiveReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveReconcileService{
		matches:  matches,
		provider: provider,
		guard:    guard,
		logger:   logger,
	}
}

// Tick fetches the live snapshot and reconciles stored records and key sets with it.
// Upstream failures end the tick quietly; only store failures are returned.
func (s *LiveReconcileService) Tick(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveReconcileService.Tick")
	defer span.End()

	previousLive, err := s.matches.LiveKeys(ctx)
	if err != nil {
		return err
	}
	previousBoard, err := s.matches.BoardKeys(ctx)
	if err != nil {
		return err
	}

	result, ok := guardedCall(ctx, s.guard, "live_matches", s.provider.FetchLiveMatches)
	if !ok || !result.Success {
		return nil
	}

	hint, err := s.matches.LoadIdentityHint(ctx, previousBoard)
	if err != nil {
		return err
	}

	var live, finished []match.State
	for _, m := range result.Matches {
		normalized := hint.Normalize(m)
		if normalized.Key() == match.UnknownKey {
			s.logger.WarnContext(ctx, "skip provider match without identity", "home", teamName(normalized.Home), "away", teamName(normalized.Away))
			continue
		}
		switch {
		case normalized.Status.IsLive():
			live = append(live, normalized)
		case normalized.Status.IsFinished():
			finished = append(finished, normalized)
		}
	}

	newLiveKeys := stateKeys(live)
	newFinishedKeys := stateKeys(finished)

	if len(newLiveKeys) == 0 && len(newFinishedKeys) == 0 {
		for _, key := range previousLive {
			if _, _, err := s.matches.MarkAsFinished(ctx, key); err != nil {
				return err
			}
		}
		if err := s.matches.ReplaceLiveKeys(ctx, nil); err != nil {
			return err
		}
		return s.matches.PublishLiveBoard(ctx)
	}

	for _, m := range live {
		if _, err := s.matches.UpsertFromProvider(ctx, m, &hint); err != nil {
			return err
		}
	}
	for _, m := range finished {
		previous, err := s.matches.GetOrInitState(ctx, m.Key())
		if err != nil {
			return err
		}
		updated, err := s.matches.UpsertFromProvider(ctx, m, &hint)
		if err != nil {
			return err
		}
		if !previous.Status.IsFinished() {
			if err := s.refreshFinishedEvents(ctx, updated); err != nil {
				return err
			}
		}
	}

	if err := s.matches.ReplaceLiveKeys(ctx, newLiveKeys); err != nil {
		return err
	}

	liveNow := make(map[string]struct{}, len(newLiveKeys))
	for _, key := range newLiveKeys {
		liveNow[key] = struct{}{}
	}
	finishedNow := make(map[string]struct{}, len(newFinishedKeys))
	for _, key := range newFinishedKeys {
		finishedNow[key] = struct{}{}
	}
	var disappeared []string
	for _, key := range previousLive {
		if _, ok := liveNow[key]; ok {
			continue
		}
		disappeared = append(disappeared, key)
		updated, exists, err := s.matches.MarkAsFinished(ctx, key)
		if err != nil {
			return err
		}
		// explicitly finished matches were refreshed above
		if _, ok := finishedNow[key]; ok {
			continue
		}
		if exists {
			if err := s.refreshFinishedEvents(ctx, updated); err != nil {
				return err
			}
		}
	}

	for _, key := range newFinishedKeys {
		if _, _, err := s.matches.MarkAsFinished(ctx, key); err != nil {
			return err
		}
	}

	boardKeys := match.DistinctKeys(newLiveKeys, newFinishedKeys, previousBoard, disappeared)
	if err := s.matches.ReplaceBoardKeys(ctx, boardKeys); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "live reconciliation done",
		"live", len(newLiveKeys),
		"finished", len(newFinishedKeys),
		"disappeared", len(disappeared),
		"board", len(boardKeys),
	)
	return s.matches.PublishLiveBoard(ctx)
}

// refreshFinishedEvents replaces the log with one final authoritative fetch.
func (s *LiveReconcileService) refreshFinishedEvents(ctx context.Context, state match.State) error {
	if state.ID <= 0 {
		return nil
	}

	result, ok := guardedCall(ctx, s.guard, "match_events", func(ctx context.Context) (MatchEventsResult, error) {
		return s.provider.FetchMatchEvents(ctx, state.ID)
	})
	if !ok || !result.Success {
		return nil
	}

	if _, err := s.matches.ReplaceEvents(ctx, state.Key(), dropPlaceholders(result.Events)); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil
		}
		return fmt.Errorf("replace finished events: %w", err)
	}
	return nil
}

func stateKeys(states []match.State) []string {
	keys := make([]string, 0, len(states))
	for _, s := range states {
		keys = append(keys, s.Key())
	}
	return match.DistinctKeys(keys)
}

func dropPlaceholders(events []match.Event) []match.Event {
	out := make([]match.Event, 0, len(events))
	for _, e := range events {
		if match.IsPlaceholderEvent(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func teamName(t *match.Team) string {
	if t == nil {
		return ""
	}
	return t.Name
}
