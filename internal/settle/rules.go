package settle

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pitchside/internal/models"
)

// ResolveOutcome applies the category-specific rule for one outcome against
// the final score. ok is false when no rule covers the category or the
// outcome name is unrecognized; the engine voids such outcomes instead of
// guessing a result.
func ResolveOutcome(code models.CategoryCode, name string, line *decimal.Decimal, home, away int) (models.OutcomeResult, bool) {
	switch code {
	case models.CategoryMatchWinner:
		return resolveMatchWinner(name, home, away)
	case models.CategoryTotals:
		return resolveTotals(name, line, home, away)
	case models.CategoryHandicap:
		return resolveHandicap(name, line, home, away)
	case models.CategoryBTTS:
		return resolveBTTS(name, home, away)
	case models.CategoryDoubleChance:
		return resolveDoubleChance(name, home, away)
	default:
		return models.OutcomeResultUnresolved, false
	}
}

func resolveMatchWinner(name string, home, away int) (models.OutcomeResult, bool) {
	var winner string
	switch {
	case home > away:
		winner = "home"
	case away > home:
		winner = "away"
	default:
		winner = "draw"
	}

	switch normalizeSide(name) {
	case "home", "1":
		return wonOrLost(winner == "home"), true
	case "draw", "x":
		return wonOrLost(winner == "draw"), true
	case "away", "2":
		return wonOrLost(winner == "away"), true
	default:
		return models.OutcomeResultUnresolved, false
	}
}

// resolveTotals compares combined goals to the line. The line comes from the
// market when set, otherwise from the outcome name ("Over 2.5"). A
// whole-number line met exactly is a push.
func resolveTotals(name string, line *decimal.Decimal, home, away int) (models.OutcomeResult, bool) {
	side, nameLine := splitSideAndLine(name)
	if line == nil {
		line = nameLine
	}
	if line == nil {
		return models.OutcomeResultUnresolved, false
	}

	total := decimal.NewFromInt(int64(home + away))
	cmp := total.Cmp(*line)

	switch side {
	case "over":
		if cmp == 0 {
			return models.OutcomeResultPush, true
		}
		return wonOrLost(cmp > 0), true
	case "under":
		if cmp == 0 {
			return models.OutcomeResultPush, true
		}
		return wonOrLost(cmp < 0), true
	default:
		return models.OutcomeResultUnresolved, false
	}
}

// resolveHandicap applies the handicap to the backed side. The line comes
// from the outcome name when present ("Home -1.5"), else from the market
// line, which is expressed from the home side's perspective.
func resolveHandicap(name string, line *decimal.Decimal, home, away int) (models.OutcomeResult, bool) {
	side, nameLine := splitSideAndLine(name)

	var handicap decimal.Decimal
	switch {
	case nameLine != nil:
		handicap = *nameLine
	case line != nil && side == "home":
		handicap = *line
	case line != nil && side == "away":
		handicap = line.Neg()
	default:
		return models.OutcomeResultUnresolved, false
	}

	var margin decimal.Decimal
	switch side {
	case "home":
		margin = decimal.NewFromInt(int64(home - away)).Add(handicap)
	case "away":
		margin = decimal.NewFromInt(int64(away - home)).Add(handicap)
	default:
		return models.OutcomeResultUnresolved, false
	}

	cmp := margin.Cmp(decimal.Zero)
	if cmp == 0 {
		return models.OutcomeResultPush, true
	}
	return wonOrLost(cmp > 0), true
}

func resolveBTTS(name string, home, away int) (models.OutcomeResult, bool) {
	both := home > 0 && away > 0
	switch normalizeSide(name) {
	case "yes":
		return wonOrLost(both), true
	case "no":
		return wonOrLost(!both), true
	default:
		return models.OutcomeResultUnresolved, false
	}
}

func resolveDoubleChance(name string, home, away int) (models.OutcomeResult, bool) {
	var winner string
	switch {
	case home > away:
		winner = "home"
	case away > home:
		winner = "away"
	default:
		winner = "draw"
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " or ", "/")
	normalized = strings.ReplaceAll(normalized, " ", "")

	switch normalized {
	case "home/draw", "1x":
		return wonOrLost(winner != "away"), true
	case "home/away", "12":
		return wonOrLost(winner != "draw"), true
	case "draw/away", "x2":
		return wonOrLost(winner != "home"), true
	default:
		return models.OutcomeResultUnresolved, false
	}
}

func wonOrLost(won bool) models.OutcomeResult {
	if won {
		return models.OutcomeResultWon
	}
	return models.OutcomeResultLost
}

func normalizeSide(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// splitSideAndLine breaks an outcome name like "Over 2.5" or "Home -1" into
// its side word and optional numeric line
func splitSideAndLine(name string) (string, *decimal.Decimal) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return "", nil
	}

	side := fields[0]
	for _, f := range fields[1:] {
		raw := strings.TrimPrefix(f, "+")
		if line, err := decimal.NewFromString(raw); err == nil {
			return side, &line
		}
	}
	return side, nil
}
