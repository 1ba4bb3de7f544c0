package livescore

import "github.com/riskibarqy/live-scores/internal/domain/match"

type liveMatchesEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Match []match.State `json:"match"`
	} `json:"data"`
}

type matchEventsEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Event []match.Event `json:"event"`
	} `json:"data"`
}

type fixturesEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Fixtures []fixtureItem `json:"fixtures"`
	} `json:"data"`
}

type fixtureItem struct {
	ID          match.ID          `json:"id"`
	Time        match.Text        `json:"time"`
	Competition match.Competition `json:"competition"`
	Country     struct {
		ID   match.ID `json:"id"`
		Name string   `json:"name"`
	} `json:"country"`
	Home match.Team `json:"home"`
	Away match.Team `json:"away"`
}
