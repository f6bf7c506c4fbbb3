package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/models"
)

// PostgresMarketRepository implements MarketRepository for PostgreSQL
type PostgresMarketRepository struct {
	db *database.DB
}

// NewPostgresMarketRepository creates a new market repository
func NewPostgresMarketRepository(db *database.DB) MarketRepository {
	return &PostgresMarketRepository{db: db}
}

const marketColumns = `id, match_id, bookmaker_id, provider_key, category_id, line,
	is_active, last_synced_at, created_at, updated_at`

func scanMarket(row pgx.Row) (*models.Market, error) {
	m := &models.Market{}
	err := row.Scan(
		&m.ID, &m.MatchID, &m.BookmakerID, &m.ProviderKey, &m.CategoryID, &m.Line,
		&m.IsActive, &m.LastSyncedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan market: %w", err)
	}
	return m, nil
}

// GetByID retrieves a market by ID
func (r *PostgresMarketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`
	return scanMarket(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetByUniqueKey retrieves a market by its (match, bookmaker, provider key) triple
func (r *PostgresMarketRepository) GetByUniqueKey(ctx context.Context, matchID, bookmakerID uuid.UUID, providerKey string) (*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE match_id = $1 AND bookmaker_id = $2 AND provider_key = $3`
	return scanMarket(r.db.GetPool().QueryRow(ctx, query, matchID, bookmakerID, providerKey))
}

// GetByMatch retrieves all markets under a match
func (r *PostgresMarketRepository) GetByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE match_id = $1 ORDER BY provider_key`

	rows, err := r.db.GetPool().Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets by match: %w", err)
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}

	return markets, rows.Err()
}

// Create inserts a new market
func (r *PostgresMarketRepository) Create(ctx context.Context, m *models.Market) error {
	query := `
		INSERT INTO markets (id, match_id, bookmaker_id, provider_key, category_id, line, is_active, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		m.ID, m.MatchID, m.BookmakerID, m.ProviderKey, m.CategoryID, m.Line, m.IsActive, m.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create market: %w", err)
	}

	return nil
}

// Update writes new state into an existing market row
func (r *PostgresMarketRepository) Update(ctx context.Context, m *models.Market) error {
	query := `
		UPDATE markets SET
			category_id = $2, line = $3, is_active = $4, last_synced_at = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query, m.ID, m.CategoryID, m.Line, m.IsActive, m.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("failed to update market: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
