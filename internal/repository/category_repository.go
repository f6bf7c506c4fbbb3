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

// PostgresMarketCategoryRepository implements MarketCategoryRepository for PostgreSQL
type PostgresMarketCategoryRepository struct {
	db *database.DB
}

// NewPostgresMarketCategoryRepository creates a new market category repository
func NewPostgresMarketCategoryRepository(db *database.DB) MarketCategoryRepository {
	return &PostgresMarketCategoryRepository{db: db}
}

// defaultCategories seeds the canonical taxonomy. Provider market-key variants
// are mapped onto these codes at the merge boundary.
var defaultCategories = map[models.CategoryCode]string{
	models.CategoryMatchWinner:  "Match Winner",
	models.CategoryTotals:       "Over/Under Goals",
	models.CategoryHandicap:     "Handicap",
	models.CategoryBTTS:         "Both Teams To Score",
	models.CategoryDoubleChance: "Double Chance",
}

// GetByID retrieves a category by ID
func (r *PostgresMarketCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MarketCategory, error) {
	query := `SELECT id, code, name, created_at FROM market_categories WHERE id = $1`

	c := &models.MarketCategory{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market category: %w", err)
	}

	return c, nil
}

// GetByCode retrieves a category by its stable code
func (r *PostgresMarketCategoryRepository) GetByCode(ctx context.Context, code models.CategoryCode) (*models.MarketCategory, error) {
	query := `SELECT id, code, name, created_at FROM market_categories WHERE code = $1`

	c := &models.MarketCategory{}
	err := r.db.GetPool().QueryRow(ctx, query, code).Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market category: %w", err)
	}

	return c, nil
}

// EnsureDefaults inserts any missing taxonomy rows
func (r *PostgresMarketCategoryRepository) EnsureDefaults(ctx context.Context) error {
	query := `
		INSERT INTO market_categories (id, code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
	`

	for code, name := range defaultCategories {
		if _, err := r.db.GetPool().Exec(ctx, query, uuid.New(), code, name); err != nil {
			return fmt.Errorf("failed to seed market category %s: %w", code, err)
		}
	}

	return nil
}
