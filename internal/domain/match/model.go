package match

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
)

const (
	KeyPrefix  = "ls-"
	UnknownKey = KeyPrefix + "unknown"

	// FinishedMinute replaces the minute text when a match is frozen.
	FinishedMinute = "FT"
)

// ID is a provider numeric id. Zero means absent.
// The provider sends ids either as numbers or as numeric strings.
type ID int64

func (id *ID) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*id = 0
		return nil
	}
	text := strings.Trim(string(raw), `"`)
	if strings.TrimSpace(text) == "" {
		*id = 0
		return nil
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		*id = 0
		return nil
	}
	*id = ID(parsed)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Text is a string field that tolerates numbers and null on the wire.
type Text string

func (t *Text) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*t = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := sonic.Unmarshal(raw, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(raw)
	return nil
}

type Competition struct {
	ID      ID     `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
}

type Team struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Logo string `json:"logo,omitempty"`
}

type Scores struct {
	Score   string `json:"score"`
	HTScore string `json:"ht_score,omitempty"`
	FTScore string `json:"ft_score,omitempty"`
	ETScore string `json:"et_score,omitempty"`
	PSScore string `json:"ps_score,omitempty"`
}

// Event is one provider incident. Values are never mutated after construction.
type Event struct {
	ID      Text      `json:"id,omitempty"`
	Type    string    `json:"event"`
	Time    Text      `json:"time,omitempty"`
	Player  string    `json:"player,omitempty"`
	Side    string    `json:"home_away,omitempty"`
	MatchID Text      `json:"match_id,omitempty"`
	TS      time.Time `json:"ts"`
}

// State is the canonical record for one match. Writers always replace the whole value.
type State struct {
	ID          ID           `json:"id,omitempty"`
	FixtureID   ID           `json:"fixture_id,omitempty"`
	FixtureDate string       `json:"fixture_date,omitempty"`
	Scheduled   string       `json:"scheduled,omitempty"`
	Status      Status       `json:"status"`
	Time        Text         `json:"time,omitempty"`
	Competition *Competition `json:"competition,omitempty"`
	Home        *Team        `json:"home,omitempty"`
	Away        *Team        `json:"away,omitempty"`
	Scores      *Scores      `json:"scores,omitempty"`
	LastEvents  []Event      `json:"lastEvents"`
}

// Key derives the match identity: fixture id first, then live id.
func (s State) Key() string {
	switch {
	case s.FixtureID > 0:
		return KeyPrefix + s.FixtureID.String()
	case s.ID > 0:
		return KeyPrefix + s.ID.String()
	default:
		return UnknownKey
	}
}

func (s State) CompetitionID() ID {
	if s.Competition == nil {
		return 0
	}
	return s.Competition.ID
}

func (s State) CompetitionName() string {
	if s.Competition == nil {
		return ""
	}
	return s.Competition.Name
}

func (s State) HomeID() ID {
	if s.Home == nil {
		return 0
	}
	return s.Home.ID
}

func (s State) AwayID() ID {
	if s.Away == nil {
		return 0
	}
	return s.Away.ID
}

// WithEvents returns a copy of s holding events.
func (s State) WithEvents(events []Event) State {
	s.LastEvents = append([]Event(nil), events...)
	return s
}

// Finished returns a frozen copy of s.
func (s State) Finished() State {
	s.Status = StatusFinished
	s.Time = FinishedMinute
	s.LastEvents = append([]Event(nil), s.LastEvents...)
	return s
}

// SameScores compares two optional score snapshots.
func SameScores(a, b *Scores) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IDFromKey extracts the numeric suffix of a match key, or zero.
func IDFromKey(key string) ID {
	suffix, ok := strings.CutPrefix(strings.TrimSpace(key), KeyPrefix)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return ID(parsed)
}
