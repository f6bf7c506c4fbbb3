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

// PostgresCompetitionRepository implements CompetitionRepository for PostgreSQL
type PostgresCompetitionRepository struct {
	db *database.DB
}

// NewPostgresCompetitionRepository creates a new competition repository
func NewPostgresCompetitionRepository(db *database.DB) CompetitionRepository {
	return &PostgresCompetitionRepository{db: db}
}

const competitionColumns = `id, external_id, name, country, season, is_active, created_at, updated_at`

func scanCompetition(row pgx.Row) (*models.Competition, error) {
	c := &models.Competition{}
	err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Country, &c.Season, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan competition: %w", err)
	}
	return c, nil
}

// GetByID retrieves a competition by ID
func (r *PostgresCompetitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`
	return scanCompetition(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetByExternalID retrieves a competition by its provider identity
func (r *PostgresCompetitionRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE external_id = $1`
	return scanCompetition(r.db.GetPool().QueryRow(ctx, query, externalID))
}

// GetActive retrieves all active competitions
func (r *PostgresCompetitionRepository) GetActive(ctx context.Context) ([]*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE is_active ORDER BY name`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active competitions: %w", err)
	}
	defer rows.Close()

	var competitions []*models.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		competitions = append(competitions, c)
	}

	return competitions, rows.Err()
}

// Upsert creates or updates a competition keyed by its external identity.
// Competitions are never deleted; re-discovery reactivates them.
func (r *PostgresCompetitionRepository) Upsert(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions (id, external_id, name, country, season, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			season = EXCLUDED.season,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		c.ID, c.ExternalID, c.Name, c.Country, c.Season, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert competition: %w", err)
	}

	return nil
}

// Deactivate marks a competition inactive without removing it
func (r *PostgresCompetitionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE competitions SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.GetPool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate competition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
