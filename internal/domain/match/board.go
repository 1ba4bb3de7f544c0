package match

import (
	"sort"
	"strings"
)

// IdentityKey collapses the fixture and live representations of one match.
func IdentityKey(s State) string {
	if s.FixtureID > 0 {
		return "fx:" + s.FixtureID.String()
	}
	return "cmp:" + idOrUnknown(s.CompetitionID()) +
		"|h:" + idOrUnknown(s.HomeID()) +
		"|a:" + idOrUnknown(s.AwayID()) +
		"|t:" + strings.TrimSpace(s.Scheduled)
}

func idOrUnknown(id ID) string {
	if id <= 0 {
		return "?"
	}
	return id.String()
}

// ChooseBetter returns the more advanced of two records for the same match.
func ChooseBetter(a, b State) State {
	minuteA, minuteB := MinuteValue(string(a.Time)), MinuteValue(string(b.Time))
	if minuteA != minuteB {
		if minuteB > minuteA {
			return b
		}
		return a
	}
	if len(a.LastEvents) != len(b.LastEvents) {
		if len(b.LastEvents) > len(a.LastEvents) {
			return b
		}
		return a
	}
	if a.ID <= 0 && b.ID > 0 {
		return b
	}
	return a
}

// IsStaleFixture reports planned fixtures left over from a previous day.
func IsStaleFixture(s State, today string) bool {
	return s.Status == StatusNotStarted && s.FixtureDate != "" && s.FixtureDate != today
}

// BoardView dedups states by identity and orders them by competition then kickoff.
// today is the local calendar date in YYYY-MM-DD form.
func BoardView(states []State, today string) []State {
	byIdentity := make(map[string]int, len(states))
	out := make([]State, 0, len(states))

	for _, s := range states {
		if IsStaleFixture(s, today) {
			continue
		}
		key := IdentityKey(s)
		if idx, ok := byIdentity[key]; ok {
			out[idx] = ChooseBetter(out[idx], s)
			continue
		}
		byIdentity[key] = len(out)
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].CompetitionName(), out[j].CompetitionName()
		if ci != cj {
			return ci < cj
		}
		return out[i].Scheduled < out[j].Scheduled
	})
	return out
}

// SortByScheduled orders states by kickoff text.
func SortByScheduled(states []State) {
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].Scheduled < states[j].Scheduled
	})
}

// DistinctKeys keeps the first occurrence of every non-blank key.
func DistinctKeys(groups ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, group := range groups {
		for _, key := range group {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}
