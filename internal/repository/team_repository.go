package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/models"
)

// PostgresTeamRepository implements TeamRepository for PostgreSQL
type PostgresTeamRepository struct {
	db *database.DB
}

// NewPostgresTeamRepository creates a new team repository
func NewPostgresTeamRepository(db *database.DB) TeamRepository {
	return &PostgresTeamRepository{db: db}
}

// GetByExternalID retrieves a team by its provider identity
func (r *PostgresTeamRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Team, error) {
	query := `
		SELECT id, external_id, name, badge_url, created_at, updated_at
		FROM teams WHERE external_id = $1
	`

	t := &models.Team{}
	err := r.db.GetPool().QueryRow(ctx, query, externalID).Scan(
		&t.ID, &t.ExternalID, &t.Name, &t.BadgeURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return t, nil
}

// Upsert creates or updates a team keyed by its external identity
func (r *PostgresTeamRepository) Upsert(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (id, external_id, name, badge_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			badge_url = COALESCE(EXCLUDED.badge_url, teams.badge_url),
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query, t.ID, t.ExternalID, t.Name, t.BadgeURL).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}

	return nil
}
