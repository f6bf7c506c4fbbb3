package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/feed"
	"github.com/yourusername/pitchside/internal/merge"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository/repotest"
)

type stubFeed struct {
	mu sync.Mutex

	competitions     []feed.CompetitionPayload
	competitionsErr  error
	competitionCalls int

	fixtures    map[string][]feed.FixturePayload
	fixturesErr map[string]error

	odds      map[string]*feed.OddsPayload
	oddsCalls []string
}

func (s *stubFeed) Competitions(_ context.Context) ([]feed.CompetitionPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitionCalls++
	if s.competitionsErr != nil {
		return nil, s.competitionsErr
	}
	return s.competitions, nil
}

func (s *stubFeed) FixturesByCompetition(_ context.Context, competitionID string, _, _ time.Time) ([]feed.FixturePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fixturesErr[competitionID]; err != nil {
		return nil, err
	}
	return s.fixtures[competitionID], nil
}

func (s *stubFeed) OddsByFixture(_ context.Context, fixtureID string) (*feed.OddsPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oddsCalls = append(s.oddsCalls, fixtureID)
	if payload, ok := s.odds[fixtureID]; ok {
		return payload, nil
	}
	return &feed.OddsPayload{FixtureID: fixtureID}, nil
}

func (s *stubFeed) LiveScores(_ context.Context) ([]feed.FixturePayload, error) {
	return nil, nil
}

func (s *stubFeed) FinishedScores(_ context.Context, _ time.Time) ([]feed.FixturePayload, error) {
	return nil, nil
}

func (s *stubFeed) oddsFetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.oddsCalls)
}

func (s *stubFeed) oddsFetched(fixtureID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.oddsCalls {
		if id == fixtureID {
			return true
		}
	}
	return false
}

func testIngestionConfig() config.IngestionConfig {
	return config.IngestionConfig{
		LeadWindowDays:             7,
		StalenessThresholdMinutes:  30,
		FetchWorkers:               3,
		CompetitionCacheTTLMinutes: 15,
		RunSchedule:                "0 */6 * * *",
		ScoreSyncIntervalSeconds:   60,
	}
}

func newTestOrchestrator(t *testing.T, client feed.Client) (*Orchestrator, *repotest.Store) {
	t.Helper()

	store := repotest.NewStore()
	repos := repotest.NewRepositories(store)
	require.NoError(t, repos.Category.EnsureDefaults(context.Background()))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	o := NewOrchestrator(client, merge.NewMerger(repos, log), repos, testIngestionConfig(), log)
	return o, store
}

func fixturePayload(id string, kickoff time.Time) feed.FixturePayload {
	return feed.FixturePayload{
		ID:     id,
		Date:   kickoff.Format("2006-01-02 15:04"),
		Status: "NS",
		HomeTeam: feed.TeamPayload{
			ID:   "h-" + id,
			Name: "Home " + id,
		},
		AwayTeam: feed.TeamPayload{
			ID:   "a-" + id,
			Name: "Away " + id,
		},
	}
}

func oddsFor(fixtureID string) *feed.OddsPayload {
	return &feed.OddsPayload{
		FixtureID: fixtureID,
		Bookmakers: []feed.BookmakerOdds{
			{
				ID:   "8",
				Name: "bet365",
				Markets: []feed.MarketOdds{
					{
						Key: "1X2",
						Outcomes: []feed.OutcomeOdds{
							{Name: "Home", Price: "2.10"},
							{Name: "Draw", Price: "3.40"},
							{Name: "Away", Price: "3.60"},
						},
					},
				},
			},
		},
	}
}

func TestRunMergesFixturesAndOdds(t *testing.T) {
	kickoff := time.Now().Add(48 * time.Hour)
	client := &stubFeed{
		competitions: []feed.CompetitionPayload{
			{ID: "39", Name: "Premier League", Country: "England", Season: "2026"},
		},
		fixtures: map[string][]feed.FixturePayload{
			"39": {fixturePayload("1001", kickoff), fixturePayload("1002", kickoff)},
		},
		odds: map[string]*feed.OddsPayload{
			"1001": oddsFor("1001"),
			"1002": oddsFor("1002"),
		},
	}

	o, _ := newTestOrchestrator(t, client)
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 2, client.oddsFetchCount())

	ctx := context.Background()
	comp, err := o.repos.Competition.GetByExternalID(ctx, "39")
	require.NoError(t, err)

	for _, externalID := range []string{"1001", "1002"} {
		match, err := o.repos.Match.GetByExternalID(ctx, comp.ID, externalID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusScheduled, match.Status)
		require.NotNil(t, match.LastOddsSyncAt, "odds sync stamp should be recorded")

		markets, err := o.repos.Market.GetByMatch(ctx, match.ID)
		require.NoError(t, err)
		require.Len(t, markets, 1)

		outcomes, err := o.repos.Outcome.GetByMarket(ctx, markets[0].ID)
		require.NoError(t, err)
		assert.Len(t, outcomes, 3)
	}
}

func TestStalenessSweepRequeuesOnlyStale(t *testing.T) {
	client := &stubFeed{
		competitions: []feed.CompetitionPayload{
			{ID: "39", Name: "Premier League", Country: "England", Season: "2026"},
		},
	}

	o, store := newTestOrchestrator(t, client)

	kickoff := time.Now().Add(24 * time.Hour)
	recent := time.Now().Add(-5 * time.Minute)
	old := time.Now().Add(-2 * time.Hour)

	staleNever := &models.Match{
		ID: uuid.New(), CompetitionID: uuid.New(), ExternalID: "2001",
		Status: models.MatchStatusScheduled, KickoffAt: &kickoff,
	}
	staleOld := &models.Match{
		ID: uuid.New(), CompetitionID: uuid.New(), ExternalID: "2002",
		Status: models.MatchStatusScheduled, KickoffAt: &kickoff, LastOddsSyncAt: &old,
	}
	fresh := &models.Match{
		ID: uuid.New(), CompetitionID: uuid.New(), ExternalID: "2003",
		Status: models.MatchStatusScheduled, KickoffAt: &kickoff, LastOddsSyncAt: &recent,
	}
	store.SeedMatch(staleNever)
	store.SeedMatch(staleOld)
	store.SeedMatch(fresh)

	require.NoError(t, o.Run(context.Background()))

	assert.True(t, client.oddsFetched("2001"), "never-synced fixture should be re-queued")
	assert.True(t, client.oddsFetched("2002"), "stale fixture should be re-queued")
	assert.False(t, client.oddsFetched("2003"), "fresh fixture must not be re-fetched")
}

func TestCompetitionFetchFailureFallsBackToStoredSet(t *testing.T) {
	client := &stubFeed{
		competitionsErr: errors.New("provider down"),
	}

	o, _ := newTestOrchestrator(t, client)

	comp := &models.Competition{
		ID: uuid.New(), ExternalID: "39", Name: "Premier League",
		Country: "England", Season: "2026", IsActive: true,
	}
	require.NoError(t, o.repos.Competition.Upsert(context.Background(), comp))

	kickoff := time.Now().Add(24 * time.Hour)
	client.fixtures = map[string][]feed.FixturePayload{
		"39": {fixturePayload("3001", kickoff)},
	}

	require.NoError(t, o.Run(context.Background()))
	assert.True(t, client.oddsFetched("3001"))
}

func TestFixtureFetchFailureIsIsolated(t *testing.T) {
	kickoff := time.Now().Add(24 * time.Hour)
	client := &stubFeed{
		competitions: []feed.CompetitionPayload{
			{ID: "39", Name: "Premier League", Country: "England", Season: "2026"},
			{ID: "140", Name: "La Liga", Country: "Spain", Season: "2026"},
		},
		fixtures: map[string][]feed.FixturePayload{
			"140": {fixturePayload("4001", kickoff)},
		},
		fixturesErr: map[string]error{
			"39": errors.New("timeout"),
		},
	}

	o, _ := newTestOrchestrator(t, client)
	require.NoError(t, o.Run(context.Background()))

	assert.True(t, client.oddsFetched("4001"), "healthy competition should still be ingested")
}

func TestEmptyOddsStillStampsSync(t *testing.T) {
	kickoff := time.Now().Add(24 * time.Hour)
	client := &stubFeed{
		competitions: []feed.CompetitionPayload{
			{ID: "39", Name: "Premier League", Country: "England", Season: "2026"},
		},
		fixtures: map[string][]feed.FixturePayload{
			"39": {fixturePayload("5001", kickoff)},
		},
		// no odds entry: the stub returns an empty payload
	}

	o, _ := newTestOrchestrator(t, client)
	require.NoError(t, o.Run(context.Background()))

	ctx := context.Background()
	comp, err := o.repos.Competition.GetByExternalID(ctx, "39")
	require.NoError(t, err)
	match, err := o.repos.Match.GetByExternalID(ctx, comp.ID, "5001")
	require.NoError(t, err)

	assert.NotNil(t, match.LastOddsSyncAt, "empty odds should still count as a sync")

	markets, err := o.repos.Market.GetByMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestCompetitionListingIsCachedAcrossRuns(t *testing.T) {
	client := &stubFeed{
		competitions: []feed.CompetitionPayload{
			{ID: "39", Name: "Premier League", Country: "England", Season: "2026"},
		},
	}

	o, _ := newTestOrchestrator(t, client)
	require.NoError(t, o.Run(context.Background()))
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 1, client.competitionCalls)
}

func TestSyncMatchOdds(t *testing.T) {
	client := &stubFeed{
		odds: map[string]*feed.OddsPayload{"6001": oddsFor("6001")},
	}

	o, store := newTestOrchestrator(t, client)

	kickoff := time.Now().Add(2 * time.Hour)
	match := &models.Match{
		ID: uuid.New(), CompetitionID: uuid.New(), ExternalID: "6001",
		Status: models.MatchStatusScheduled, KickoffAt: &kickoff,
	}
	store.SeedMatch(match)

	require.NoError(t, o.SyncMatchOdds(context.Background(), match.ID))

	reloaded, err := o.repos.Match.GetByID(context.Background(), match.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastOddsSyncAt)

	markets, err := o.repos.Market.GetByMatch(context.Background(), match.ID)
	require.NoError(t, err)
	assert.Len(t, markets, 1)
}
