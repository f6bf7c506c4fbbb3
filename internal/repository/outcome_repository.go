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

// PostgresOutcomeRepository implements OutcomeRepository for PostgreSQL
type PostgresOutcomeRepository struct {
	db *database.DB
}

// NewPostgresOutcomeRepository creates a new outcome repository
func NewPostgresOutcomeRepository(db *database.DB) OutcomeRepository {
	return &PostgresOutcomeRepository{db: db}
}

const outcomeColumns = `id, market_id, name, price, is_active, result, created_at, updated_at`

func scanOutcome(row pgx.Row) (*models.MarketOutcome, error) {
	o := &models.MarketOutcome{}
	err := row.Scan(&o.ID, &o.MarketID, &o.Name, &o.Price, &o.IsActive, &o.Result, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan outcome: %w", err)
	}
	return o, nil
}

// GetByID retrieves an outcome by ID
func (r *PostgresOutcomeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MarketOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM market_outcomes WHERE id = $1`
	return scanOutcome(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetByMarketAndName retrieves an outcome by its unique (market, name) pair
func (r *PostgresOutcomeRepository) GetByMarketAndName(ctx context.Context, marketID uuid.UUID, name string) (*models.MarketOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM market_outcomes WHERE market_id = $1 AND name = $2`
	return scanOutcome(r.db.GetPool().QueryRow(ctx, query, marketID, name))
}

// GetByMarket retrieves all outcomes under a market
func (r *PostgresOutcomeRepository) GetByMarket(ctx context.Context, marketID uuid.UUID) ([]*models.MarketOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM market_outcomes WHERE market_id = $1 ORDER BY name`

	rows, err := r.db.GetPool().Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes by market: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.MarketOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// Create inserts a new outcome
func (r *PostgresOutcomeRepository) Create(ctx context.Context, o *models.MarketOutcome) error {
	query := `
		INSERT INTO market_outcomes (id, market_id, name, price, is_active, result)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	result := o.Result
	if result == "" {
		result = models.OutcomeResultUnresolved
	}

	_, err := r.db.GetPool().Exec(ctx, query, o.ID, o.MarketID, o.Name, o.Price, o.IsActive, result)
	if err != nil {
		return fmt.Errorf("failed to create outcome: %w", err)
	}

	return nil
}

// Update writes a new price and active flag into an existing outcome row
func (r *PostgresOutcomeRepository) Update(ctx context.Context, o *models.MarketOutcome) error {
	query := `
		UPDATE market_outcomes SET price = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query, o.ID, o.Price, o.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeactivateMissing soft-removes outcomes absent from the latest payload.
// Rows are never deleted here; wagers may still reference them.
func (r *PostgresOutcomeRepository) DeactivateMissing(ctx context.Context, marketID uuid.UUID, keep []string) (int, error) {
	query := `
		UPDATE market_outcomes SET is_active = FALSE, updated_at = NOW()
		WHERE market_id = $1 AND is_active AND NOT (name = ANY($2))
	`

	tag, err := r.db.GetPool().Exec(ctx, query, marketID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate missing outcomes: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// SetResult records the settlement resolution. The guard keeps resolution
// idempotent: an outcome already resolved to the same value is untouched, and
// a conflicting re-resolution is refused.
func (r *PostgresOutcomeRepository) SetResult(ctx context.Context, id uuid.UUID, result models.OutcomeResult) error {
	query := `
		UPDATE market_outcomes SET result = $2, updated_at = NOW()
		WHERE id = $1 AND (result = 'UNRESOLVED' OR result = $2)
	`

	tag, err := r.db.GetPool().Exec(ctx, query, id, result)
	if err != nil {
		return fmt.Errorf("failed to set outcome result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing row from an already-resolved conflict
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("outcome %s already resolved to a different result", id)
	}

	return nil
}
