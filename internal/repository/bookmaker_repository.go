package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/models"
)

// PostgresBookmakerRepository implements BookmakerRepository for PostgreSQL
type PostgresBookmakerRepository struct {
	db *database.DB
}

// NewPostgresBookmakerRepository creates a new bookmaker repository
func NewPostgresBookmakerRepository(db *database.DB) BookmakerRepository {
	return &PostgresBookmakerRepository{db: db}
}

// GetByExternalID retrieves a bookmaker by its provider identity
func (r *PostgresBookmakerRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Bookmaker, error) {
	query := `SELECT id, external_id, name, created_at FROM bookmakers WHERE external_id = $1`

	b := &models.Bookmaker{}
	err := r.db.GetPool().QueryRow(ctx, query, externalID).Scan(&b.ID, &b.ExternalID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmaker: %w", err)
	}

	return b, nil
}

// Upsert creates or updates a bookmaker keyed by its external identity
func (r *PostgresBookmakerRepository) Upsert(ctx context.Context, b *models.Bookmaker) error {
	query := `
		INSERT INTO bookmakers (id, external_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at
	`

	err := r.db.GetPool().QueryRow(ctx, query, b.ID, b.ExternalID, b.Name).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert bookmaker: %w", err)
	}

	return nil
}
