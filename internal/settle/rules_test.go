package settle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/pitchside/internal/models"
)

func line(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestResolveOutcome(t *testing.T) {
	tests := []struct {
		name     string
		category models.CategoryCode
		outcome  string
		line     *decimal.Decimal
		home     int
		away     int
		want     models.OutcomeResult
		ok       bool
	}{
		{"home win backs home", models.CategoryMatchWinner, "Home", nil, 2, 1, models.OutcomeResultWon, true},
		{"home win fails draw", models.CategoryMatchWinner, "Draw", nil, 2, 1, models.OutcomeResultLost, true},
		{"home win fails away", models.CategoryMatchWinner, "Away", nil, 2, 1, models.OutcomeResultLost, true},
		{"draw backs X", models.CategoryMatchWinner, "X", nil, 1, 1, models.OutcomeResultWon, true},
		{"numeric aliases", models.CategoryMatchWinner, "2", nil, 0, 3, models.OutcomeResultWon, true},

		{"over line from name", models.CategoryTotals, "Over 2.5", nil, 2, 1, models.OutcomeResultWon, true},
		{"under line from name", models.CategoryTotals, "Under 2.5", nil, 1, 1, models.OutcomeResultWon, true},
		{"over loses under line", models.CategoryTotals, "Over 2.5", nil, 1, 1, models.OutcomeResultLost, true},
		{"market line wins over name absence", models.CategoryTotals, "Over", line("1.5"), 2, 1, models.OutcomeResultWon, true},
		{"whole line exact total pushes over", models.CategoryTotals, "Over 3", nil, 2, 1, models.OutcomeResultPush, true},
		{"whole line exact total pushes under", models.CategoryTotals, "Under 3", nil, 2, 1, models.OutcomeResultPush, true},
		{"totals without any line unresolvable", models.CategoryTotals, "Over", nil, 2, 1, models.OutcomeResultUnresolved, false},

		{"handicap home covers", models.CategoryHandicap, "Home -1.5", nil, 3, 1, models.OutcomeResultWon, true},
		{"handicap home misses", models.CategoryHandicap, "Home -1.5", nil, 2, 1, models.OutcomeResultLost, true},
		{"handicap whole line push", models.CategoryHandicap, "Home -1", nil, 2, 1, models.OutcomeResultPush, true},
		{"handicap away with market line", models.CategoryHandicap, "Away", line("-1"), 1, 1, models.OutcomeResultWon, true},

		{"btts yes", models.CategoryBTTS, "Yes", nil, 2, 1, models.OutcomeResultWon, true},
		{"btts no", models.CategoryBTTS, "No", nil, 2, 0, models.OutcomeResultWon, true},
		{"btts yes fails on shutout", models.CategoryBTTS, "Yes", nil, 2, 0, models.OutcomeResultLost, true},

		{"double chance 1X on draw", models.CategoryDoubleChance, "Home/Draw", nil, 1, 1, models.OutcomeResultWon, true},
		{"double chance 12 on draw", models.CategoryDoubleChance, "12", nil, 1, 1, models.OutcomeResultLost, true},
		{"double chance X2 on away win", models.CategoryDoubleChance, "Draw or Away", nil, 0, 1, models.OutcomeResultWon, true},

		{"unknown outcome name", models.CategoryMatchWinner, "Banker", nil, 2, 1, models.OutcomeResultUnresolved, false},
		{"unknown category", models.CategoryCode("CORNERS"), "Over 9.5", nil, 2, 1, models.OutcomeResultUnresolved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveOutcome(tt.category, tt.outcome, tt.line, tt.home, tt.away)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
