package merge

import (
	"strings"

	"github.com/yourusername/pitchside/internal/models"
)

// marketKeyAliases maps the provider market-key variants seen across feed
// versions onto the canonical category taxonomy
var marketKeyAliases = map[string]models.CategoryCode{
	"1x2":                 models.CategoryMatchWinner,
	"match winner":        models.CategoryMatchWinner,
	"match result":        models.CategoryMatchWinner,
	"full time result":    models.CategoryMatchWinner,
	"totals":              models.CategoryTotals,
	"over/under":          models.CategoryTotals,
	"goals over/under":    models.CategoryTotals,
	"total goals":         models.CategoryTotals,
	"handicap":            models.CategoryHandicap,
	"asian handicap":      models.CategoryHandicap,
	"european handicap":   models.CategoryHandicap,
	"btts":                models.CategoryBTTS,
	"both teams score":    models.CategoryBTTS,
	"both teams to score": models.CategoryBTTS,
	"double chance":       models.CategoryDoubleChance,
}

// NormalizeMarketKey resolves a provider market key to its canonical category
// code. Unknown keys are reported, not guessed.
func NormalizeMarketKey(key string) (models.CategoryCode, bool) {
	code, ok := marketKeyAliases[strings.ToLower(strings.TrimSpace(key))]
	return code, ok
}

// providerStatuses maps provider fixture status codes onto the match lifecycle
var providerStatuses = map[string]models.MatchStatus{
	"NS":   models.MatchStatusScheduled,
	"TBD":  models.MatchStatusScheduled,
	"1H":   models.MatchStatusLive,
	"HT":   models.MatchStatusLive,
	"2H":   models.MatchStatusLive,
	"ET":   models.MatchStatusLive,
	"P":    models.MatchStatusLive,
	"LIVE": models.MatchStatusLive,
	"FT":   models.MatchStatusFinished,
	"AET":  models.MatchStatusFinished,
	"PEN":  models.MatchStatusFinished,
	"PST":  models.MatchStatusPostponed,
	"CANC": models.MatchStatusCancelled,
	"ABD":  models.MatchStatusCancelled,
}

// StatusFromProvider maps a provider status code to the internal lifecycle
// status
func StatusFromProvider(code string) (models.MatchStatus, bool) {
	status, ok := providerStatuses[strings.ToUpper(strings.TrimSpace(code))]
	return status, ok
}
