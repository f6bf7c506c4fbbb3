package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/logger"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/notify"
	"github.com/yourusername/pitchside/internal/repository"
	"github.com/yourusername/pitchside/internal/repository/repotest"
	"github.com/yourusername/pitchside/internal/settle"
)

func testSettlementConfig() config.SettlementConfig {
	return config.SettlementConfig{
		AssumedDurationMinutes: 120,
		SettleWorkers:          2,
		SweepIntervalMinutes:   10,
	}
}

func newTestReconciler(t *testing.T) (*Reconciler, *repotest.Store, *repository.Repositories) {
	t.Helper()

	store := repotest.NewStore()
	repos := repotest.NewRepositories(store)
	require.NoError(t, repos.Category.EnsureDefaults(context.Background()))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	engine := settle.NewEngine(repos, log, logger.NewAuditLogger(log), notify.NewLogNotifier(log))
	r := NewReconciler(repos, engine, testSettlementConfig(), log)
	return r, store, repos
}

type fixtureSeed struct {
	match   *models.Match
	userID  uuid.UUID
	ticket  *models.Ticket
	wager   *models.Wager
	homeOut *models.MarketOutcome
}

// seedWageredMatch installs a match with a match-winner market, a bet on Home
// at 2.00 with stake 10, and a zero-balance wallet for the bettor.
func seedWageredMatch(t *testing.T, store *repotest.Store, repos *repository.Repositories, status models.MatchStatus, kickoff time.Time, homeScore, awayScore *int) *fixtureSeed {
	t.Helper()

	ctx := context.Background()
	category, err := repos.Category.GetByCode(ctx, models.CategoryMatchWinner)
	require.NoError(t, err)

	match := &models.Match{
		ID:            uuid.New(),
		CompetitionID: uuid.New(),
		ExternalID:    uuid.NewString(),
		Status:        status,
		KickoffAt:     &kickoff,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
	}
	store.SeedMatch(match)

	market := &models.Market{
		ID:          uuid.New(),
		MatchID:     match.ID,
		BookmakerID: uuid.New(),
		ProviderKey: "1X2",
		CategoryID:  category.ID,
		IsActive:    true,
	}
	store.SeedMarket(market)

	outcomes := map[string]*models.MarketOutcome{}
	for _, name := range []string{"Home", "Draw", "Away"} {
		o := &models.MarketOutcome{
			ID:       uuid.New(),
			MarketID: market.ID,
			Name:     name,
			Price:    decimal.RequireFromString("2.00"),
			IsActive: true,
			Result:   models.OutcomeResultUnresolved,
		}
		store.SeedOutcome(o)
		outcomes[name] = o
	}

	userID := uuid.New()
	store.SeedWallet(&models.Wallet{
		ID: uuid.New(), UserID: userID, Balance: decimal.Zero,
	})

	ticket := &models.Ticket{
		ID:         uuid.New(),
		UserID:     userID,
		TotalStake: decimal.RequireFromString("10"),
		Status:     models.TicketStatusPending,
	}
	store.SeedTicket(ticket)

	wager := &models.Wager{
		ID:        uuid.New(),
		TicketID:  ticket.ID,
		OutcomeID: outcomes["Home"].ID,
		Odds:      decimal.RequireFromString("2.00"),
		Stake:     decimal.RequireFromString("10"),
		Status:    models.WagerStatusPending,
	}
	store.SeedWager(wager)

	return &fixtureSeed{
		match:   match,
		userID:  userID,
		ticket:  ticket,
		wager:   wager,
		homeOut: outcomes["Home"],
	}
}

func intPtr(n int) *int { return &n }

func TestStuckLiveMatchIsForceFinishedWithLastScore(t *testing.T) {
	r, store, repos := newTestReconciler(t)
	ctx := context.Background()

	// Kickoff 150 minutes ago, last observed score 1-0, provider went quiet
	kickoff := time.Now().Add(-150 * time.Minute)
	seed := seedWageredMatch(t, store, repos, models.MatchStatusLive, kickoff, intPtr(1), intPtr(0))

	require.NoError(t, r.Run(ctx))

	match, err := repos.Match.GetByID(ctx, seed.match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusFinished, match.Status)
	assert.Equal(t, 1, *match.HomeScore)
	assert.Equal(t, 0, *match.AwayScore)

	outcome, err := repos.Outcome.GetByID(ctx, seed.homeOut.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeResultWon, outcome.Result)

	wager, err := repos.Wager.GetByID(ctx, seed.wager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WagerStatusWon, wager.Status)

	wallet, err := repos.Wallet.GetByUser(ctx, seed.userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("20")),
		"stake 10 at odds 2.00 pays 20, got %s", wallet.Balance)
}

func TestSweepIsIdempotent(t *testing.T) {
	r, store, repos := newTestReconciler(t)
	ctx := context.Background()

	kickoff := time.Now().Add(-150 * time.Minute)
	seed := seedWageredMatch(t, store, repos, models.MatchStatusLive, kickoff, intPtr(1), intPtr(0))

	require.NoError(t, r.Run(ctx))
	require.NoError(t, r.Run(ctx))

	wallet, err := repos.Wallet.GetByUser(ctx, seed.userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("20")),
		"repeated sweeps must not double-pay, got %s", wallet.Balance)
	assert.Len(t, store.Ledger(), 1)
}

func TestStuckMatchWithoutScorePushesWagers(t *testing.T) {
	r, store, repos := newTestReconciler(t)
	ctx := context.Background()

	kickoff := time.Now().Add(-3 * time.Hour)
	seed := seedWageredMatch(t, store, repos, models.MatchStatusScheduled, kickoff, nil, nil)

	require.NoError(t, r.Run(ctx))

	wager, err := repos.Wager.GetByID(ctx, seed.wager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WagerStatusVoid, wager.Status)

	ticket, err := repos.Ticket.GetByID(ctx, seed.ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusVoid, ticket.Status)

	wallet, err := repos.Wallet.GetByUser(ctx, seed.userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("10")),
		"void must refund the stake, got %s", wallet.Balance)
}

func TestRecentMatchIsLeftAlone(t *testing.T) {
	r, store, repos := newTestReconciler(t)
	ctx := context.Background()

	// In play for an hour, well inside the completion window
	kickoff := time.Now().Add(-60 * time.Minute)
	seed := seedWageredMatch(t, store, repos, models.MatchStatusLive, kickoff, intPtr(0), intPtr(0))

	require.NoError(t, r.Run(ctx))

	match, err := repos.Match.GetByID(ctx, seed.match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusLive, match.Status)

	wager, err := repos.Wager.GetByID(ctx, seed.wager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WagerStatusPending, wager.Status)
}

func TestPendingTicketOnFinishedMatchIsRedriven(t *testing.T) {
	r, store, repos := newTestReconciler(t)
	ctx := context.Background()

	// Simulates a crash between wager and ticket settlement: the match is
	// FINISHED, the outcome resolved and the wager settled, but the ticket
	// never aggregated and the wallet was never credited.
	kickoff := time.Now().Add(-3 * time.Hour)
	seed := seedWageredMatch(t, store, repos, models.MatchStatusFinished, kickoff, intPtr(2), intPtr(1))

	settledAt := time.Now().Add(-10 * time.Minute)
	seed.homeOut.Result = models.OutcomeResultWon
	store.SeedOutcome(seed.homeOut)
	seed.wager.Status = models.WagerStatusWon
	seed.wager.SettledAt = &settledAt
	store.SeedWager(seed.wager)

	require.NoError(t, r.Run(ctx))

	ticket, err := repos.Ticket.GetByID(ctx, seed.ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusWon, ticket.Status)
	assert.NotNil(t, ticket.PaidAt)

	wallet, err := repos.Wallet.GetByUser(ctx, seed.userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("20")))
}
