package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/live-scores/internal/domain/match"
)

const (
	TopicLiveBoard = "live-board"
	EventLive      = "live"
	EventState     = "state"
)

// LiveScoreProvider is the upstream contract. A result with Success=false carries nothing useful
// and is not an error.
type LiveScoreProvider interface {
	FetchFixturesToday(ctx context.Context, competitionID string) (FixturesResult, error)
	FetchLiveMatches(ctx context.Context) (LiveMatchesResult, error)
	FetchMatchEvents(ctx context.Context, providerMatchID match.ID) (MatchEventsResult, error)
	FetchCompetitionTable(ctx context.Context, competitionID string) (string, error)
}

type LiveMatchesResult struct {
	Success bool
	Matches []match.State
}

type MatchEventsResult struct {
	Success bool
	Events  []match.Event
}

type FixturesResult struct {
	Success  bool
	Fixtures []ProviderFixture
}

type ProviderFixture struct {
	ID          match.ID
	Time        string
	Competition match.Competition
	CountryName string
	Home        match.Team
	Away        match.Team
}

// Publisher fans a payload out to the subscribers of a topic.
type Publisher interface {
	Publish(topic, event string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, any) {}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

// disabledProvider stands in when the upstream is switched off: polls come back empty
// and table reads report the dependency as unavailable.
type disabledProvider struct{}

func (disabledProvider) FetchFixturesToday(context.Context, string) (FixturesResult, error) {
	return FixturesResult{}, nil
}

func (disabledProvider) FetchLiveMatches(context.Context) (LiveMatchesResult, error) {
	return LiveMatchesResult{}, nil
}

func (disabledProvider) FetchMatchEvents(context.Context, match.ID) (MatchEventsResult, error) {
	return MatchEventsResult{}, nil
}

func (disabledProvider) FetchCompetitionTable(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: live score provider disabled", ErrDependencyUnavailable)
}

func NewDisabledProvider() LiveScoreProvider {
	return disabledProvider{}
}
