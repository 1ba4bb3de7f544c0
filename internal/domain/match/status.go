package match

import (
	"strings"

	sonic "github.com/bytedance/sonic"
)

type Status string

const (
	StatusNotStarted    Status = "NOT_STARTED"
	StatusInPlay        Status = "IN_PLAY"
	StatusAddedTime     Status = "ADDED_TIME"
	StatusHalfTimeBreak Status = "HALF_TIME_BREAK"
	StatusFinished      Status = "FINISHED"
	StatusUnknown       Status = "UNKNOWN"
)

// ParseStatus maps provider spellings ("IN PLAY", "in_play") onto the closed set.
func ParseStatus(raw string) Status {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	switch Status(normalized) {
	case StatusNotStarted, StatusInPlay, StatusAddedTime, StatusHalfTimeBreak, StatusFinished:
		return Status(normalized)
	default:
		return StatusUnknown
	}
}

func (s Status) IsLive() bool {
	switch s {
	case StatusInPlay, StatusAddedTime, StatusHalfTimeBreak:
		return true
	default:
		return false
	}
}

func (s Status) IsFinished() bool {
	return s == StatusFinished
}

func (s *Status) UnmarshalJSON(raw []byte) error {
	var text Text
	if err := text.UnmarshalJSON(raw); err != nil {
		return err
	}
	*s = ParseStatus(string(text))
	return nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s == "" {
		s = StatusUnknown
	}
	return sonic.Marshal(string(s))
}
