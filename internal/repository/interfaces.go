// Package repository defines the persistence contracts of the domain model
// and their PostgreSQL implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/pitchside/internal/models"
)

// CompetitionRepository manages competition persistence
type CompetitionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Competition, error)
	GetActive(ctx context.Context) ([]*models.Competition, error)
	Upsert(ctx context.Context, competition *models.Competition) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// TeamRepository manages team persistence
type TeamRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Team, error)
	Upsert(ctx context.Context, team *models.Team) error
}

// BookmakerRepository manages bookmaker persistence
type BookmakerRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Bookmaker, error)
	Upsert(ctx context.Context, bookmaker *models.Bookmaker) error
}

// MarketCategoryRepository manages the canonical bet-type taxonomy
type MarketCategoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.MarketCategory, error)
	GetByCode(ctx context.Context, code models.CategoryCode) (*models.MarketCategory, error)
	EnsureDefaults(ctx context.Context) error
}

// MatchRepository manages fixture persistence
type MatchRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	GetByExternalID(ctx context.Context, competitionID uuid.UUID, externalID string) (*models.Match, error)
	Upsert(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	TouchOddsSync(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
	// GetScheduledInWindow returns SCHEDULED fixtures with a known kickoff
	// inside [from, to).
	GetScheduledInWindow(ctx context.Context, from, to time.Time) ([]*models.Match, error)
	// GetStaleOdds returns SCHEDULED fixtures whose last_odds_sync_at is null
	// or older than the cutoff.
	GetStaleOdds(ctx context.Context, cutoff time.Time) ([]*models.Match, error)
	// GetUnfinishedPastKickoff returns SCHEDULED/LIVE matches whose kickoff is
	// before the cutoff, candidates for the completion-window fallback.
	GetUnfinishedPastKickoff(ctx context.Context, cutoff time.Time) ([]*models.Match, error)
	GetByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error)
}

// MarketRepository manages market persistence. Markets are updated in place;
// there is deliberately no Delete.
type MarketRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Market, error)
	GetByUniqueKey(ctx context.Context, matchID, bookmakerID uuid.UUID, providerKey string) (*models.Market, error)
	GetByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Market, error)
	Create(ctx context.Context, market *models.Market) error
	Update(ctx context.Context, market *models.Market) error
}

// OutcomeRepository manages market-outcome persistence. Outcomes are soft
// deactivated, never deleted, because wagers reference them.
type OutcomeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.MarketOutcome, error)
	GetByMarketAndName(ctx context.Context, marketID uuid.UUID, name string) (*models.MarketOutcome, error)
	GetByMarket(ctx context.Context, marketID uuid.UUID) ([]*models.MarketOutcome, error)
	Create(ctx context.Context, outcome *models.MarketOutcome) error
	Update(ctx context.Context, outcome *models.MarketOutcome) error
	// DeactivateMissing marks outcomes of the market inactive unless their
	// name is in keep. Returns the number of rows deactivated.
	DeactivateMissing(ctx context.Context, marketID uuid.UUID, keep []string) (int, error)
	// SetResult records the settlement resolution of an outcome. Writing the
	// same result twice is a no-op.
	SetResult(ctx context.Context, id uuid.UUID, result models.OutcomeResult) error
}

// WagerRepository manages wager persistence
type WagerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error)
	GetByTicket(ctx context.Context, ticketID uuid.UUID) ([]*models.Wager, error)
	GetPendingByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Wager, error)
	Create(ctx context.Context, wager *models.Wager) error
	// Settle transitions a wager out of PENDING with a check-and-set; it
	// returns false when the wager was already settled.
	Settle(ctx context.Context, id uuid.UUID, status models.WagerStatus, payout decimal.Decimal, settledAt time.Time) (bool, error)
}

// TicketRepository manages ticket persistence
type TicketRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	GetPendingByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	// Settle transitions a ticket out of PENDING with a check-and-set; it
	// returns false when the ticket was already settled.
	Settle(ctx context.Context, id uuid.UUID, status models.TicketStatus, payout decimal.Decimal, settledAt time.Time) (bool, error)
	// MarkPaid stamps the wallet payout exactly once; it returns false when
	// the ticket was already paid.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
}

// WalletRepository manages wallet and ledger persistence
type WalletRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	// Credit adds amount to the user's balance under a row lock and records a
	// ledger entry keyed by reference. A repeated reference leaves the
	// balance untouched, making settlement credits idempotent.
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, operation models.LedgerOperation, reference, description string) (decimal.Decimal, error)
	GetLedger(ctx context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error)
}
