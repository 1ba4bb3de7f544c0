package kv

import "time"

const (
	stateKeyPrefix     = "match:state:"
	liveKeysKey        = "matches:live"
	boardKeysKey       = "livescores:board-keys"
	seenKeyPrefix      = "match:events:seen:"
	standingsKeyPrefix = "livescore:standings:"
	quotaKeyPrefix     = "livescore:quota:"
)

// Retention windows. Expiry is left to the store.
const (
	notStartedTTL = 24 * time.Hour
	liveTTL       = 6 * time.Hour
	finishedTTL   = 48 * time.Hour
	otherTTL      = 12 * time.Hour

	liveKeysTTL  = 5 * time.Minute
	seenTTL      = 12 * time.Hour
	standingsTTL = 5 * time.Minute
	quotaTTL     = 48 * time.Hour
)

func stateKey(matchKey string) string {
	return stateKeyPrefix + matchKey
}

func seenKey(matchKey string) string {
	return seenKeyPrefix + matchKey
}

func standingsKey(competitionID string) string {
	return standingsKeyPrefix + competitionID
}

func quotaKey(day string) string {
	return quotaKeyPrefix + day
}
