package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
)

const fixtureDateLayout = "2006-01-02"

// StandingsInvalidator drops cached competition tables when a score moves.
type StandingsInvalidator interface {
	InvalidateCompetition(ctx context.Context, competitionID match.ID) error
}

type MatchServiceConfig struct {
	KeepLast int
}

// MatchService owns the canonical per-match state and the live/board key sets.
type MatchService struct {
	states    match.StateRepository
	keys      match.KeySetRepository
	standings StandingsInvalidator
	publisher Publisher
	cfg       MatchServiceConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewMatchService(
	states match.StateRepository,
	keys match.KeySetRepository,
	standings StandingsInvalidator,
	publisher Publisher,
	cfg MatchServiceConfig,
	logger *logging.Logger,
) *MatchService {
	if publisher == nil {
		publisher = NewNoopPublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.KeepLast <= 0 {
		cfg.KeepLast = match.DefaultKeepLast
	}

	return &MatchService{
		states:    states,
		keys:      keys,
		standings: standings,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// IdentityHint indexes planned fixtures by (competition, home, away, scheduled).
type IdentityHint struct {
	fixtures map[string]match.State
}

func identityTuple(competitionID, homeID, awayID match.ID, scheduled string) (string, bool) {
	scheduled = strings.TrimSpace(scheduled)
	if competitionID <= 0 || homeID <= 0 || awayID <= 0 || scheduled == "" {
		return "", false
	}
	return fmt.Sprintf("%d|%d|%d|%s", competitionID, homeID, awayID, scheduled), true
}

// Normalize attaches a known fixture id to a live record that arrived without one.
func (h IdentityHint) Normalize(m match.State) match.State {
	if m.FixtureID > 0 {
		return m
	}
	tuple, ok := identityTuple(m.CompetitionID(), m.HomeID(), m.AwayID(), m.Scheduled)
	if !ok {
		return m
	}
	fixture, ok := h.fixtures[tuple]
	if !ok {
		return m
	}
	m.FixtureID = fixture.FixtureID
	m.FixtureDate = fixture.FixtureDate
	return m
}

// LoadIdentityHint reads the stored records behind boardKeys once so a whole batch can be normalized.
func (s *MatchService) LoadIdentityHint(ctx context.Context, boardKeys []string) (IdentityHint, error) {
	states, err := s.loadStates(ctx, boardKeys)
	if err != nil {
		return IdentityHint{}, err
	}

	hint := IdentityHint{fixtures: make(map[string]match.State, len(states))}
	for _, state := range states {
		if state.FixtureID <= 0 {
			continue
		}
		tuple, ok := identityTuple(state.CompetitionID(), state.HomeID(), state.AwayID(), state.Scheduled)
		if !ok {
			continue
		}
		if _, taken := hint.fixtures[tuple]; !taken {
			hint.fixtures[tuple] = state
		}
	}
	return hint, nil
}

// UpsertFromProvider replaces the stored record with the provider's view, keeping the event log.
// A FINISHED record is never reopened by a non-finished provider record, and a live
// record is never reset to NOT_STARTED by a planned fixture.
func (s *MatchService) UpsertFromProvider(ctx context.Context, incoming match.State, hint *IdentityHint) (match.State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UpsertFromProvider")
	defer span.End()

	if hint == nil {
		boardKeys, err := s.keys.BoardKeys(ctx)
		if err != nil {
			return match.State{}, fmt.Errorf("list board keys: %w", err)
		}
		loaded, err := s.LoadIdentityHint(ctx, boardKeys)
		if err != nil {
			return match.State{}, err
		}
		hint = &loaded
	}

	normalized := hint.Normalize(incoming)
	key := normalized.Key()
	if key == match.UnknownKey {
		return match.State{}, fmt.Errorf("%w: provider match has neither id nor fixture id", ErrInvalidInput)
	}

	current, exists, err := s.states.Get(ctx, key)
	if err != nil {
		return match.State{}, fmt.Errorf("get match state: %w", err)
	}
	if exists && current.Status.IsFinished() && !normalized.Status.IsFinished() {
		s.logger.DebugContext(ctx, "ignore provider update for finished match", "match_key", key, "status", normalized.Status)
		return current, nil
	}
	if exists && current.Status.IsLive() && normalized.Status == match.StatusNotStarted {
		s.logger.DebugContext(ctx, "ignore planned fixture for live match", "match_key", key)
		return current, nil
	}

	events := current.LastEvents
	if !exists || (len(current.LastEvents) == 0 && len(normalized.LastEvents) > 0) {
		events = normalized.LastEvents
	}
	merged := normalized.WithEvents(events)

	if !match.SameScores(current.Scores, merged.Scores) {
		s.invalidateStandings(ctx, merged.CompetitionID())
	}

	if err := s.states.Put(ctx, merged); err != nil {
		return match.State{}, fmt.Errorf("put match state: %w", err)
	}
	s.publisher.Publish(key, EventState, merged)
	return merged, nil
}

func (s *MatchService) invalidateStandings(ctx context.Context, competitionID match.ID) {
	if s.standings == nil || competitionID <= 0 {
		return
	}
	if err := s.standings.InvalidateCompetition(ctx, competitionID); err != nil {
		s.logger.WarnContext(ctx, "invalidate standings failed", "competition_id", competitionID, "error", err)
	}
}

// MarkAsFinished freezes a record. ok is false when no record exists.
func (s *MatchService) MarkAsFinished(ctx context.Context, matchKey string) (match.State, bool, error) {
	current, exists, err := s.states.Get(ctx, matchKey)
	if err != nil {
		return match.State{}, false, fmt.Errorf("get match state: %w", err)
	}
	if !exists {
		return match.State{}, false, nil
	}
	if current.Status.IsFinished() {
		return current, true, nil
	}

	updated := current.Finished()
	if err := s.states.Put(ctx, updated); err != nil {
		return match.State{}, false, fmt.Errorf("put match state: %w", err)
	}
	s.publisher.Publish(matchKey, EventState, updated)
	return updated, true, nil
}

// GetOrInitState returns the stored record or persists an UNKNOWN placeholder for matchKey.
func (s *MatchService) GetOrInitState(ctx context.Context, matchKey string) (match.State, error) {
	current, exists, err := s.states.Get(ctx, matchKey)
	if err != nil {
		return match.State{}, fmt.Errorf("get match state: %w", err)
	}
	if exists {
		return current, nil
	}

	id := match.IDFromKey(matchKey)
	if id <= 0 {
		return match.State{}, fmt.Errorf("%w: match key=%s", ErrInvalidInput, matchKey)
	}
	placeholder := match.State{
		ID:         id,
		Status:     match.StatusUnknown,
		LastEvents: []match.Event{},
	}
	if err := s.states.Put(ctx, placeholder); err != nil {
		return match.State{}, fmt.Errorf("put placeholder state: %w", err)
	}
	return placeholder, nil
}

// AppendEvents merges events into the stored log. changed is false when the log is unchanged.
func (s *MatchService) AppendEvents(ctx context.Context, matchKey string, events []match.Event) (match.State, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.AppendEvents")
	defer span.End()

	current, err := s.GetOrInitState(ctx, matchKey)
	if err != nil {
		return match.State{}, false, err
	}
	if len(events) == 0 {
		return current, false, nil
	}

	merged := match.MergeEvents(matchKey, current.LastEvents, events, s.cfg.KeepLast)
	if match.SameEvents(merged, current.LastEvents) {
		return current, false, nil
	}

	updated := current.WithEvents(merged)
	if err := s.states.Put(ctx, updated); err != nil {
		return match.State{}, false, fmt.Errorf("put match state: %w", err)
	}
	s.publisher.Publish(matchKey, EventState, updated)
	return updated, true, nil
}

// ReplaceEvents overwrites the stored log with an authoritative fetch.
func (s *MatchService) ReplaceEvents(ctx context.Context, matchKey string, events []match.Event) (match.State, error) {
	current, err := s.GetOrInitState(ctx, matchKey)
	if err != nil {
		return match.State{}, err
	}

	updated := current.WithEvents(events)
	if err := s.states.Put(ctx, updated); err != nil {
		return match.State{}, fmt.Errorf("put match state: %w", err)
	}
	s.publisher.Publish(matchKey, EventState, updated)
	return updated, nil
}

func (s *MatchService) Match(ctx context.Context, matchKey string) (match.State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Match")
	defer span.End()

	matchKey = strings.TrimSpace(matchKey)
	if match.IDFromKey(matchKey) <= 0 {
		return match.State{}, fmt.Errorf("%w: match key=%s", ErrInvalidInput, matchKey)
	}
	state, exists, err := s.states.Get(ctx, matchKey)
	if err != nil {
		return match.State{}, fmt.Errorf("get match state: %w", err)
	}
	if !exists {
		return match.State{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchKey)
	}
	return state, nil
}

func (s *MatchService) LiveKeys(ctx context.Context) ([]string, error) {
	keys, err := s.keys.LiveKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list live keys: %w", err)
	}
	return keys, nil
}

func (s *MatchService) ReplaceLiveKeys(ctx context.Context, keys []string) error {
	if err := s.keys.ReplaceLiveKeys(ctx, match.DistinctKeys(keys)); err != nil {
		return fmt.Errorf("replace live keys: %w", err)
	}
	return nil
}

func (s *MatchService) BoardKeys(ctx context.Context) ([]string, error) {
	keys, err := s.keys.BoardKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list board keys: %w", err)
	}
	return keys, nil
}

func (s *MatchService) ReplaceBoardKeys(ctx context.Context, keys []string) error {
	if err := s.keys.ReplaceBoardKeys(ctx, match.DistinctKeys(keys)); err != nil {
		return fmt.Errorf("replace board keys: %w", err)
	}
	return nil
}

// LiveMatches returns the records behind the live key set ordered by kickoff.
func (s *MatchService) LiveMatches(ctx context.Context) ([]match.State, error) {
	keys, err := s.LiveKeys(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.loadStates(ctx, keys)
	if err != nil {
		return nil, err
	}
	match.SortByScheduled(states)
	return states, nil
}

// BoardMatches is the deduplicated display list.
func (s *MatchService) BoardMatches(ctx context.Context) ([]match.State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.BoardMatches")
	defer span.End()

	keys, err := s.BoardKeys(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.loadStates(ctx, keys)
	if err != nil {
		return nil, err
	}
	return match.BoardView(states, s.today()), nil
}

// PublishLiveBoard pushes the board, or the live list while the board is still empty.
func (s *MatchService) PublishLiveBoard(ctx context.Context) error {
	board, err := s.BoardMatches(ctx)
	if err != nil {
		return err
	}
	if len(board) == 0 {
		board, err = s.LiveMatches(ctx)
		if err != nil {
			return err
		}
	}
	s.publisher.Publish(TopicLiveBoard, EventLive, board)
	return nil
}

func (s *MatchService) today() string {
	return s.now().UTC().Format(fixtureDateLayout)
}

func (s *MatchService) loadStates(ctx context.Context, keys []string) ([]match.State, error) {
	out := make([]match.State, 0, len(keys))
	for _, key := range keys {
		state, exists, err := s.states.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get match state %s: %w", key, err)
		}
		if exists {
			out = append(out, state)
		}
	}
	return out, nil
}
