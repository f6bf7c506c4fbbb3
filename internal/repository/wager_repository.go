package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/models"
)

// PostgresWagerRepository implements WagerRepository for PostgreSQL
type PostgresWagerRepository struct {
	db *database.DB
}

// NewPostgresWagerRepository creates a new wager repository
func NewPostgresWagerRepository(db *database.DB) WagerRepository {
	return &PostgresWagerRepository{db: db}
}

const wagerColumns = `id, ticket_id, outcome_id, odds, stake, potential_payout, status,
	settled_at, created_at, updated_at`

func scanWager(row pgx.Row) (*models.Wager, error) {
	w := &models.Wager{}
	err := row.Scan(
		&w.ID, &w.TicketID, &w.OutcomeID, &w.Odds, &w.Stake, &w.PotentialPayout, &w.Status,
		&w.SettledAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wager: %w", err)
	}
	return w, nil
}

// GetByID retrieves a wager by ID
func (r *PostgresWagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`
	return scanWager(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetByTicket retrieves all wagers belonging to a ticket
func (r *PostgresWagerRepository) GetByTicket(ctx context.Context, ticketID uuid.UUID) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE ticket_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.GetPool().Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers by ticket: %w", err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, w)
	}

	return wagers, rows.Err()
}

// GetPendingByMatch retrieves PENDING wagers whose outcome belongs to the match
func (r *PostgresWagerRepository) GetPendingByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Wager, error) {
	query := `
		SELECT w.id, w.ticket_id, w.outcome_id, w.odds, w.stake, w.potential_payout, w.status,
		       w.settled_at, w.created_at, w.updated_at
		FROM wagers w
		JOIN market_outcomes o ON o.id = w.outcome_id
		JOIN markets m ON m.id = o.market_id
		WHERE m.match_id = $1 AND w.status = 'PENDING'
		ORDER BY w.created_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending wagers by match: %w", err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, w)
	}

	return wagers, rows.Err()
}

// Create inserts a new wager
func (r *PostgresWagerRepository) Create(ctx context.Context, w *models.Wager) error {
	query := `
		INSERT INTO wagers (id, ticket_id, outcome_id, odds, stake, potential_payout, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		w.ID, w.TicketID, w.OutcomeID, w.Odds, w.Stake, w.PotentialPayout, w.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}

	return nil
}

// Settle performs the check-and-set transition out of PENDING. A wager that
// is no longer PENDING is left alone and reported as not settled.
func (r *PostgresWagerRepository) Settle(ctx context.Context, id uuid.UUID, status models.WagerStatus, payout decimal.Decimal, settledAt time.Time) (bool, error) {
	query := `
		UPDATE wagers SET status = $2, potential_payout = $3, settled_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`

	tag, err := r.db.GetPool().Exec(ctx, query, id, status, payout, settledAt)
	if err != nil {
		return false, fmt.Errorf("failed to settle wager: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
