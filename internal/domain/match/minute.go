package match

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MissingMinuteOrder sorts events without a usable minute after every parseable one.
	MissingMinuteOrder = math.MaxInt
	// MissingMinuteBucket is the dedup bucket for events without a usable minute.
	MissingMinuteBucket = -1
)

var minutePattern = regexp.MustCompile(`^(\d+)(?:\+(\d+))?$`)

var minuteNormalizer = strings.NewReplacer(
	"’", "'",
	"′", "'",
	"`", "'",
	" ", "",
	"\t", "",
)

// NormalizeMinute turns provider minute text ("45 + 2 '", "90’") into its compact form ("45+2", "90").
func NormalizeMinute(raw string) string {
	normalized := minuteNormalizer.Replace(strings.TrimSpace(raw))
	return strings.TrimSuffix(normalized, "'")
}

// ParseMinute returns base*100+stoppage, so 45+2 sorts after 45 and before 46.
func ParseMinute(raw string) (int, bool) {
	normalized := NormalizeMinute(raw)
	if normalized == "" {
		return 0, false
	}
	groups := minutePattern.FindStringSubmatch(normalized)
	if groups == nil {
		return 0, false
	}
	base, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0, false
	}
	stoppage := 0
	if groups[2] != "" {
		stoppage, err = strconv.Atoi(groups[2])
		if err != nil {
			return 0, false
		}
	}
	return base*100 + stoppage, true
}

// MinuteOrder is the sort key for a minute text.
func MinuteOrder(raw string) int {
	if value, ok := ParseMinute(raw); ok {
		return value
	}
	return MissingMinuteOrder
}

// MinuteValue is the parsed minute or -1.
func MinuteValue(raw string) int {
	if value, ok := ParseMinute(raw); ok {
		return value
	}
	return MissingMinuteBucket
}
