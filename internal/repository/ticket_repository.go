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

// PostgresTicketRepository implements TicketRepository for PostgreSQL
type PostgresTicketRepository struct {
	db *database.DB
}

// NewPostgresTicketRepository creates a new ticket repository
func NewPostgresTicketRepository(db *database.DB) TicketRepository {
	return &PostgresTicketRepository{db: db}
}

const ticketColumns = `id, user_id, total_stake, total_payout, status, settled_at, paid_at,
	created_at, updated_at`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	t := &models.Ticket{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.TotalStake, &t.TotalPayout, &t.Status, &t.SettledAt, &t.PaidAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}
	return t, nil
}

// GetByID retrieves a ticket by ID
func (r *PostgresTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetPendingByMatch retrieves PENDING tickets with at least one wager on the match
func (r *PostgresTicketRepository) GetPendingByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Ticket, error) {
	query := `
		SELECT DISTINCT t.id, t.user_id, t.total_stake, t.total_payout, t.status, t.settled_at,
		       t.paid_at, t.created_at, t.updated_at
		FROM tickets t
		JOIN wagers w ON w.ticket_id = t.id
		JOIN market_outcomes o ON o.id = w.outcome_id
		JOIN markets m ON m.id = o.market_id
		WHERE m.match_id = $1 AND t.status = 'PENDING'
	`

	rows, err := r.db.GetPool().Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tickets by match: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// Create inserts a new ticket
func (r *PostgresTicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	query := `
		INSERT INTO tickets (id, user_id, total_stake, total_payout, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.GetPool().Exec(ctx, query, t.ID, t.UserID, t.TotalStake, t.TotalPayout, t.Status)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// Settle performs the check-and-set transition out of PENDING
func (r *PostgresTicketRepository) Settle(ctx context.Context, id uuid.UUID, status models.TicketStatus, payout decimal.Decimal, settledAt time.Time) (bool, error) {
	query := `
		UPDATE tickets SET status = $2, total_payout = $3, settled_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`

	tag, err := r.db.GetPool().Exec(ctx, query, id, status, payout, settledAt)
	if err != nil {
		return false, fmt.Errorf("failed to settle ticket: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkPaid stamps the wallet payout exactly once
func (r *PostgresTicketRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	query := `
		UPDATE tickets SET paid_at = $2, updated_at = NOW()
		WHERE id = $1 AND paid_at IS NULL
	`

	tag, err := r.db.GetPool().Exec(ctx, query, id, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark ticket paid: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
