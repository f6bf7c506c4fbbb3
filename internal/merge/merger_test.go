package merge

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitchside/internal/feed"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository"
	"github.com/yourusername/pitchside/internal/repository/repotest"
)

func newTestMerger(t *testing.T) (*Merger, *repotest.Store, *repository.Repositories) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := repotest.NewStore()
	repos := repotest.NewRepositories(store)
	require.NoError(t, repos.Category.EnsureDefaults(context.Background()))

	return NewMerger(repos, log), store, repos
}

func oddsPayload(outcomes ...feed.OutcomeOdds) *feed.OddsPayload {
	return &feed.OddsPayload{
		FixtureID: "1001",
		Bookmakers: []feed.BookmakerOdds{
			{
				ID:   "8",
				Name: "bet365",
				Markets: []feed.MarketOdds{
					{Key: "1X2", Outcomes: outcomes},
				},
			},
		},
	}
}

func TestMergeCompetitionsUpsertsByExternalID(t *testing.T) {
	merger, _, repos := newTestMerger(t)
	ctx := context.Background()

	payload := []feed.CompetitionPayload{
		{ID: "39", Name: "Premier League", Country: "England", Season: "2026"},
		{ID: "140", Name: "La Liga", Country: "Spain", Season: "2026"},
		{ID: "", Name: "nameless"},
	}

	merged, err := merger.MergeCompetitions(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	// Second pass must not duplicate
	merged, err = merger.MergeCompetitions(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	active, err := repos.Competition.GetActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestMergeFixturesCreatesMatchAndTeams(t *testing.T) {
	merger, _, repos := newTestMerger(t)
	ctx := context.Background()

	competition := &models.Competition{ID: uuid.New(), ExternalID: "39", Name: "Premier League", IsActive: true}
	require.NoError(t, repos.Competition.Upsert(ctx, competition))

	payload := []feed.FixturePayload{
		{
			ID: "1001", Date: "2026-09-01", Time: "19:45", Status: "NS",
			HomeTeam: feed.TeamPayload{ID: "50", Name: "Manchester City"},
			AwayTeam: feed.TeamPayload{ID: "42", Name: "Arsenal"},
		},
	}

	ids, err := merger.MergeFixtures(ctx, competition, payload)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	match, err := repos.Match.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusScheduled, match.Status)
	require.NotNil(t, match.KickoffAt)
	assert.Equal(t, time.Date(2026, 9, 1, 19, 45, 0, 0, time.UTC), *match.KickoffAt)

	home, err := repos.Team.GetByExternalID(ctx, "50")
	require.NoError(t, err)
	assert.Equal(t, "Manchester City", home.Name)
}

func TestMergeFixturesAcceptsAlternateDateLayout(t *testing.T) {
	merger, _, repos := newTestMerger(t)
	ctx := context.Background()

	competition := &models.Competition{ID: uuid.New(), ExternalID: "39", Name: "Premier League", IsActive: true}
	require.NoError(t, repos.Competition.Upsert(ctx, competition))

	payload := []feed.FixturePayload{
		{
			ID: "1002", Date: "01/09/2026", Time: "15:00", Status: "NS",
			HomeTeam: feed.TeamPayload{ID: "33", Name: "Manchester United"},
			AwayTeam: feed.TeamPayload{ID: "40", Name: "Liverpool"},
		},
	}

	ids, err := merger.MergeFixtures(ctx, competition, payload)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	match, err := repos.Match.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, match.KickoffAt)
	assert.Equal(t, time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC), *match.KickoffAt)
}

func TestMergeFixturesUnparseableKickoffLeftUnset(t *testing.T) {
	merger, _, repos := newTestMerger(t)
	ctx := context.Background()

	competition := &models.Competition{ID: uuid.New(), ExternalID: "39", Name: "Premier League", IsActive: true}
	require.NoError(t, repos.Competition.Upsert(ctx, competition))

	payload := []feed.FixturePayload{
		{
			ID: "1003", Date: "next tuesday", Time: "evening", Status: "NS",
			HomeTeam: feed.TeamPayload{ID: "47", Name: "Tottenham"},
			AwayTeam: feed.TeamPayload{ID: "49", Name: "Chelsea"},
		},
	}

	// The batch must survive an unparseable timestamp
	ids, err := merger.MergeFixtures(ctx, competition, payload)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	match, err := repos.Match.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, match.KickoffAt)
}

func TestMergeFixturesReconcilesTeamNameTowardFixture(t *testing.T) {
	merger, _, repos := newTestMerger(t)
	ctx := context.Background()

	competition := &models.Competition{ID: uuid.New(), ExternalID: "39", Name: "Premier League", IsActive: true}
	require.NoError(t, repos.Competition.Upsert(ctx, competition))

	existing := &models.Team{ID: uuid.New(), ExternalID: "50", Name: "Man City"}
	require.NoError(t, repos.Team.Upsert(ctx, existing))

	payload := []feed.FixturePayload{
		{
			ID: "1001", Date: "2026-09-01", Time: "19:45", Status: "NS",
			HomeTeam: feed.TeamPayload{ID: "50", Name: "Manchester City"},
			AwayTeam: feed.TeamPayload{ID: "42", Name: "Arsenal"},
		},
	}

	_, err := merger.MergeFixtures(ctx, competition, payload)
	require.NoError(t, err)

	team, err := repos.Team.GetByExternalID(ctx, "50")
	require.NoError(t, err)
	assert.Equal(t, "Manchester City", team.Name)
}

func TestMergeOddsIsIdempotent(t *testing.T) {
	merger, store, _ := newTestMerger(t)
	ctx := context.Background()

	match := &models.Match{ID: uuid.New(), ExternalID: "1001", Status: models.MatchStatusScheduled}
	store.SeedMatch(match)

	payload := oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "2.10"},
		feed.OutcomeOdds{Name: "Draw", Price: "3.40"},
		feed.OutcomeOdds{Name: "Away", Price: "3.60"},
	)

	first, err := merger.MergeOdds(ctx, match, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Bookmakers)
	assert.Equal(t, 1, first.MarketsCreated)
	assert.Equal(t, 3, first.OutcomesCreated)

	second, err := merger.MergeOdds(ctx, match, payload)
	require.NoError(t, err)
	assert.Equal(t, 0, second.MarketsCreated)
	assert.Equal(t, 0, second.OutcomesCreated)
	assert.Equal(t, 0, second.OutcomesUpdated)
	assert.Equal(t, 0, second.OutcomesDeactivated)

	markets, outcomes := store.Counts()
	assert.Equal(t, 1, markets)
	assert.Equal(t, 3, outcomes)
}

func TestMergeOddsUpdatesPriceInPlace(t *testing.T) {
	merger, store, repos := newTestMerger(t)
	ctx := context.Background()

	match := &models.Match{ID: uuid.New(), ExternalID: "1001", Status: models.MatchStatusScheduled}
	store.SeedMatch(match)

	_, err := merger.MergeOdds(ctx, match, oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "2.10"},
	))
	require.NoError(t, err)

	summary, err := merger.MergeOdds(ctx, match, oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "1.95"},
	))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.OutcomesCreated)
	assert.Equal(t, 1, summary.OutcomesUpdated)

	markets, err := repos.Market.GetByMatch(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, markets, 1)

	outcome, err := repos.Outcome.GetByMarketAndName(ctx, markets[0].ID, "Home")
	require.NoError(t, err)
	assert.True(t, outcome.Price.Equal(decimal.RequireFromString("1.95")))
}

func TestMergeOddsPreservesWageredOutcome(t *testing.T) {
	merger, store, repos := newTestMerger(t)
	ctx := context.Background()

	match := &models.Match{ID: uuid.New(), ExternalID: "1001", Status: models.MatchStatusScheduled}
	store.SeedMatch(match)

	_, err := merger.MergeOdds(ctx, match, oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "2.10"},
		feed.OutcomeOdds{Name: "Draw", Price: "3.40"},
	))
	require.NoError(t, err)

	markets, err := repos.Market.GetByMatch(ctx, match.ID)
	require.NoError(t, err)
	draw, err := repos.Outcome.GetByMarketAndName(ctx, markets[0].ID, "Draw")
	require.NoError(t, err)

	wager := &models.Wager{
		ID:        uuid.New(),
		TicketID:  uuid.New(),
		OutcomeID: draw.ID,
		Odds:      decimal.RequireFromString("3.40"),
		Stake:     decimal.RequireFromString("10"),
		Status:    models.WagerStatusPending,
	}
	store.SeedWager(wager)

	// Re-merge with the wagered outcome missing from the payload
	summary, err := merger.MergeOdds(ctx, match, oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "2.05"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OutcomesDeactivated)

	survivor, err := repos.Outcome.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.False(t, survivor.IsActive)

	kept, err := repos.Wager.GetByID(ctx, wager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WagerStatusPending, kept.Status)
	assert.Equal(t, draw.ID, kept.OutcomeID)
}

func TestMergeOddsDeactivatesVanishedMarket(t *testing.T) {
	merger, store, repos := newTestMerger(t)
	ctx := context.Background()

	match := &models.Match{ID: uuid.New(), ExternalID: "1001", Status: models.MatchStatusScheduled}
	store.SeedMatch(match)

	full := &feed.OddsPayload{
		FixtureID: "1001",
		Bookmakers: []feed.BookmakerOdds{
			{
				ID:   "8",
				Name: "bet365",
				Markets: []feed.MarketOdds{
					{Key: "1X2", Outcomes: []feed.OutcomeOdds{
						{Name: "Home", Price: "2.10"},
						{Name: "Away", Price: "3.60"},
					}},
					{Key: "Goals Over/Under", Line: "2.5", Outcomes: []feed.OutcomeOdds{
						{Name: "Over 2.5", Price: "1.90"},
						{Name: "Under 2.5", Price: "1.90"},
					}},
				},
			},
		},
	}

	first, err := merger.MergeOdds(ctx, match, full)
	require.NoError(t, err)
	assert.Equal(t, 2, first.MarketsCreated)

	// Re-merge with the totals market dropped from the offering entirely
	summary, err := merger.MergeOdds(ctx, match, oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "2.10"},
		feed.OutcomeOdds{Name: "Away", Price: "3.60"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.OutcomesDeactivated)

	markets, err := repos.Market.GetByMatch(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	for _, market := range markets {
		outcomes, err := repos.Outcome.GetByMarket(ctx, market.ID)
		require.NoError(t, err)
		if market.ProviderKey == "Goals Over/Under" {
			assert.False(t, market.IsActive)
			for _, o := range outcomes {
				assert.False(t, o.IsActive, o.Name)
			}
		} else {
			assert.True(t, market.IsActive)
			for _, o := range outcomes {
				assert.True(t, o.IsActive, o.Name)
			}
		}
	}

	// A third identical merge must be a no-op
	again, err := merger.MergeOdds(ctx, match, oddsPayload(
		feed.OutcomeOdds{Name: "Home", Price: "2.10"},
		feed.OutcomeOdds{Name: "Away", Price: "3.60"},
	))
	require.NoError(t, err)
	assert.Equal(t, 0, again.OutcomesDeactivated)
}

func TestMergeOddsReactivatesReturnedMarket(t *testing.T) {
	merger, store, repos := newTestMerger(t)
	ctx := context.Background()

	match := &models.Match{ID: uuid.New(), ExternalID: "1001", Status: models.MatchStatusScheduled}
	store.SeedMatch(match)

	quote := func() *feed.OddsPayload {
		return oddsPayload(
			feed.OutcomeOdds{Name: "Home", Price: "2.10"},
			feed.OutcomeOdds{Name: "Away", Price: "3.60"},
		)
	}

	_, err := merger.MergeOdds(ctx, match, quote())
	require.NoError(t, err)

	// Bookmaker suspends the market, then quotes it again
	_, err = merger.MergeOdds(ctx, match, &feed.OddsPayload{
		FixtureID:  "1001",
		Bookmakers: []feed.BookmakerOdds{{ID: "8", Name: "bet365"}},
	})
	require.NoError(t, err)

	summary, err := merger.MergeOdds(ctx, match, quote())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MarketsCreated)
	assert.Equal(t, 1, summary.MarketsUpdated)

	markets, err := repos.Market.GetByMatch(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.True(t, markets[0].IsActive)

	home, err := repos.Outcome.GetByMarketAndName(ctx, markets[0].ID, "Home")
	require.NoError(t, err)
	assert.True(t, home.IsActive)
}

func TestMergeOddsSkipsUnknownMarketKey(t *testing.T) {
	merger, store, _ := newTestMerger(t)
	ctx := context.Background()

	match := &models.Match{ID: uuid.New(), ExternalID: "1001", Status: models.MatchStatusScheduled}
	store.SeedMatch(match)

	payload := &feed.OddsPayload{
		FixtureID: "1001",
		Bookmakers: []feed.BookmakerOdds{
			{
				ID:   "8",
				Name: "bet365",
				Markets: []feed.MarketOdds{
					{Key: "Corners Race", Outcomes: []feed.OutcomeOdds{{Name: "5", Price: "4.00"}}},
				},
			},
		},
	}

	summary, err := merger.MergeOdds(ctx, match, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Bookmakers)
	assert.Equal(t, 0, summary.MarketsCreated)
}

func TestNormalizeMarketKey(t *testing.T) {
	tests := []struct {
		key  string
		code models.CategoryCode
		ok   bool
	}{
		{"1X2", models.CategoryMatchWinner, true},
		{"Match Winner", models.CategoryMatchWinner, true},
		{"Goals Over/Under", models.CategoryTotals, true},
		{"Asian Handicap", models.CategoryHandicap, true},
		{"Both Teams To Score", models.CategoryBTTS, true},
		{"Double Chance", models.CategoryDoubleChance, true},
		{"Corners Race", "", false},
	}

	for _, tt := range tests {
		code, ok := NormalizeMarketKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.ok {
			assert.Equal(t, tt.code, code, tt.key)
		}
	}
}

func TestStatusFromProvider(t *testing.T) {
	tests := []struct {
		code   string
		status models.MatchStatus
		ok     bool
	}{
		{"NS", models.MatchStatusScheduled, true},
		{"1H", models.MatchStatusLive, true},
		{"HT", models.MatchStatusLive, true},
		{"FT", models.MatchStatusFinished, true},
		{"AET", models.MatchStatusFinished, true},
		{"PST", models.MatchStatusPostponed, true},
		{"CANC", models.MatchStatusCancelled, true},
		{"???", "", false},
	}

	for _, tt := range tests {
		status, ok := StatusFromProvider(tt.code)
		assert.Equal(t, tt.ok, ok, tt.code)
		if tt.ok {
			assert.Equal(t, tt.status, status, tt.code)
		}
	}
}
