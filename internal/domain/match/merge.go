package match

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultKeepLast is the event log retention cap.
const DefaultKeepLast = 30

// MergeEvents folds incoming into current and returns the new canonical log.
//
// Events collapse on (type, minute bucket, side) and, when a player is named, on the
// normalized player too. The richer of two colliding events wins. Goals are never
// trimmed; the remaining capacity keeps the most recent other events.
func MergeEvents(matchKey string, current, incoming []Event, keepLast int) []Event {
	if len(incoming) == 0 {
		return append([]Event(nil), current...)
	}
	if keepLast <= 0 {
		keepLast = DefaultKeepLast
	}

	merged := make(map[string]Event, len(current)+len(incoming))
	order := make([]string, 0, len(current)+len(incoming))
	enrichedByCoarse := make(map[string]string, len(current)+len(incoming))

	for _, batch := range [][]Event{current, incoming} {
		for _, e := range batch {
			coarse, fine := eventKeys(matchKey, e)

			key := fine
			if _, ok := merged[coarse]; ok {
				key = coarse
			} else if fine == coarse {
				if enriched, ok := enrichedByCoarse[coarse]; ok {
					key = enriched
				}
			}

			existing, ok := merged[key]
			if !ok {
				order = append(order, key)
				if key != coarse {
					if _, taken := enrichedByCoarse[coarse]; !taken {
						enrichedByCoarse[coarse] = key
					}
				}
				merged[key] = e
				continue
			}
			if isBetterEvent(e, existing) {
				merged[key] = e
			}
		}
	}

	ordered := make([]Event, 0, len(order))
	for _, key := range order {
		ordered = append(ordered, merged[key])
	}
	sortEvents(ordered)

	return trimEvents(ordered, keepLast)
}

func trimEvents(ordered []Event, keepLast int) []Event {
	if len(ordered) <= keepLast {
		return ordered
	}

	goals := make([]Event, 0, len(ordered))
	others := make([]Event, 0, len(ordered))
	for _, e := range ordered {
		if IsGoal(e.Type) {
			goals = append(goals, e)
			continue
		}
		others = append(others, e)
	}

	kept := goals
	if remaining := keepLast - len(goals); remaining > 0 {
		if len(others) > remaining {
			others = others[len(others)-remaining:]
		}
		kept = append(kept, others...)
	}
	sortEvents(kept)
	return kept
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		mi, mj := MinuteOrder(string(events[i].Time)), MinuteOrder(string(events[j].Time))
		if mi != mj {
			return mi < mj
		}
		return events[i].TS.Before(events[j].TS)
	})
}

// eventKeys returns the coarse key (type, minute bucket, side) and the fine key
// (coarse plus normalized player, or coarse itself when no player is named).
func eventKeys(matchKey string, e Event) (string, string) {
	eventType := NormalizeEventType(e.Type)

	var b strings.Builder
	b.WriteString(matchKey)
	b.WriteByte('|')
	b.WriteString(eventType)
	b.WriteString("|m:")
	b.WriteString(strconv.Itoa(minuteBucket(eventType, string(e.Time))))
	if side := NormalizeSide(e.Side); side == SideHome || side == SideAway {
		b.WriteString("|s:")
		b.WriteString(side)
	}
	coarse := b.String()

	player := NormalizePlayer(e.Player)
	if player == "" {
		return coarse, coarse
	}
	return coarse, coarse + "|player:" + player
}

// minuteBucket groups goals and cards into two-minute windows; other types keep the exact minute.
func minuteBucket(eventType, minute string) int {
	value := MinuteValue(minute)
	if value < 0 {
		return MissingMinuteBucket
	}
	if isJitterBucketed(eventType) {
		return (value / 100) / 2
	}
	return value
}

func isBetterEvent(candidate, existing Event) bool {
	newPlayer := strings.TrimSpace(candidate.Player)
	oldPlayer := strings.TrimSpace(existing.Player)

	newHasPlayer, oldHasPlayer := newPlayer != "", oldPlayer != ""
	if newHasPlayer != oldHasPlayer {
		return newHasPlayer
	}
	if newHasPlayer && len([]rune(newPlayer)) != len([]rune(oldPlayer)) {
		return len([]rune(newPlayer)) > len([]rune(oldPlayer))
	}

	newHasSide, oldHasSide := hasKnownSide(candidate.Side), hasKnownSide(existing.Side)
	if newHasSide != oldHasSide {
		return newHasSide
	}

	newHasTime := NormalizeMinute(string(candidate.Time)) != ""
	oldHasTime := NormalizeMinute(string(existing.Time)) != ""
	if newHasTime != oldHasTime {
		return newHasTime
	}

	return candidate.TS.After(existing.TS)
}
