package repository

import (
	"fmt"

	"github.com/yourusername/pitchside/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Competition CompetitionRepository
	Team        TeamRepository
	Bookmaker   BookmakerRepository
	Category    MarketCategoryRepository
	Match       MatchRepository
	Market      MarketRepository
	Outcome     OutcomeRepository
	Wager       WagerRepository
	Ticket      TicketRepository
	Wallet      WalletRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Competition: NewPostgresCompetitionRepository(db),
		Team:        NewPostgresTeamRepository(db),
		Bookmaker:   NewPostgresBookmakerRepository(db),
		Category:    NewPostgresMarketCategoryRepository(db),
		Match:       NewPostgresMatchRepository(db),
		Market:      NewPostgresMarketRepository(db),
		Outcome:     NewPostgresOutcomeRepository(db),
		Wager:       NewPostgresWagerRepository(db),
		Ticket:      NewPostgresTicketRepository(db),
		Wallet:      NewPostgresWalletRepository(db),
	}, nil
}
