package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	EventGoal       = "GOAL"
	EventYellowCard = "YELLOWCARD"
	EventRedCard    = "REDCARD"

	SideHome = "h"
	SideAway = "a"
)

// NormalizeEventType upper-cases and trims a provider event code.
func NormalizeEventType(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsGoal reports whether an event code is a plain GOAL, the only type kept past the retention cap.
func IsGoal(eventType string) bool {
	return NormalizeEventType(eventType) == EventGoal
}

// isJitterBucketed reports event types whose minute drifts between polls.
func isJitterBucketed(eventType string) bool {
	normalized := strings.ReplaceAll(NormalizeEventType(eventType), "_", "")
	switch normalized {
	case EventGoal, EventYellowCard, EventRedCard:
		return true
	default:
		return false
	}
}

// NormalizeSide maps "home"/"h"/"host" to "h" and "away"/"a" to "a".
func NormalizeSide(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(value, "h"):
		return SideHome
	case strings.HasPrefix(value, "a"):
		return SideAway
	default:
		return value
	}
}

func hasKnownSide(raw string) bool {
	side := NormalizeSide(raw)
	return side == SideHome || side == SideAway
}

// NormalizePlayer strips diacritics and punctuation: "V. Gyökeres" and "V Gyokeres" both become "vgyokeres".
func NormalizePlayer(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range norm.NFD.String(trimmed) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsPlaceholderEvent reports provider filler rows with no event code.
func IsPlaceholderEvent(e Event) bool {
	eventType := strings.TrimSpace(e.Type)
	return eventType == "" || eventType == "."
}

// StableEventKey identifies an event across polls without the provider id or the player,
// so a later enrichment of the same incident maps to the same key.
func StableEventKey(matchKey string, e Event) string {
	parts := []string{matchKey, string(e.Time), e.Type, e.Side}
	for i, part := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return strings.Join(parts, "|")
}

// SameEvents compares two logs field by field.
func SameEvents(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Type != y.Type || x.Time != y.Time || x.Player != y.Player ||
			x.Side != y.Side || x.MatchID != y.MatchID || !x.TS.Equal(y.TS) {
			return false
		}
	}
	return true
}
