package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/models"
)

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

const matchColumns = `id, external_id, competition_id, home_team_id, away_team_id, kickoff_at,
	status, home_score, away_score, feed_updated_at, last_odds_sync_at, last_score_sync_at,
	created_at, updated_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.ExternalID, &m.CompetitionID, &m.HomeTeamID, &m.AwayTeamID, &m.KickoffAt,
		&m.Status, &m.HomeScore, &m.AwayScore, &m.FeedUpdatedAt, &m.LastOddsSyncAt, &m.LastScoreSyncAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return m, nil
}

func (r *PostgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// GetByID retrieves a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetByExternalID retrieves a match by its provider identity within a competition
func (r *PostgresMatchRepository) GetByExternalID(ctx context.Context, competitionID uuid.UUID, externalID string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE competition_id = $1 AND external_id = $2`
	return scanMatch(r.db.GetPool().QueryRow(ctx, query, competitionID, externalID))
}

// Upsert creates or updates a match keyed by (competition, external id).
// Scores and sync stamps are only advanced by explicit updates, so a fixture
// refresh cannot erase an observed score.
func (r *PostgresMatchRepository) Upsert(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (id, external_id, competition_id, home_team_id, away_team_id,
			kickoff_at, status, home_score, away_score, feed_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (competition_id, external_id) DO UPDATE SET
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			kickoff_at = COALESCE(EXCLUDED.kickoff_at, matches.kickoff_at),
			home_score = COALESCE(EXCLUDED.home_score, matches.home_score),
			away_score = COALESCE(EXCLUDED.away_score, matches.away_score),
			feed_updated_at = COALESCE(EXCLUDED.feed_updated_at, matches.feed_updated_at),
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		m.ID, m.ExternalID, m.CompetitionID, m.HomeTeamID, m.AwayTeamID,
		m.KickoffAt, m.Status, m.HomeScore, m.AwayScore, m.FeedUpdatedAt,
	).Scan(&m.ID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}

	return nil
}

// Update writes status, scores and sync stamps of an existing match
func (r *PostgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			status = $2, home_score = $3, away_score = $4, feed_updated_at = $5,
			last_odds_sync_at = $6, last_score_sync_at = $7, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		m.ID, m.Status, m.HomeScore, m.AwayScore, m.FeedUpdatedAt,
		m.LastOddsSyncAt, m.LastScoreSyncAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// TouchOddsSync records the completion of an odds fetch for the fixture
func (r *PostgresMatchRepository) TouchOddsSync(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	query := `UPDATE matches SET last_odds_sync_at = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.GetPool().Exec(ctx, query, id, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to touch odds sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// GetScheduledInWindow returns SCHEDULED fixtures with known kickoff in [from, to)
func (r *PostgresMatchRepository) GetScheduledInWindow(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE status = 'SCHEDULED' AND kickoff_at IS NOT NULL AND kickoff_at >= $1 AND kickoff_at < $2
		ORDER BY kickoff_at ASC
	`
	return r.queryMatches(ctx, query, from, to)
}

// GetStaleOdds returns SCHEDULED fixtures due for an odds refresh
func (r *PostgresMatchRepository) GetStaleOdds(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE status = 'SCHEDULED' AND kickoff_at IS NOT NULL
			AND (last_odds_sync_at IS NULL OR last_odds_sync_at < $1)
		ORDER BY kickoff_at ASC
	`
	return r.queryMatches(ctx, query, cutoff)
}

// GetUnfinishedPastKickoff returns matches that should have completed by now
func (r *PostgresMatchRepository) GetUnfinishedPastKickoff(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE status IN ('SCHEDULED', 'LIVE') AND kickoff_at IS NOT NULL AND kickoff_at < $1
		ORDER BY kickoff_at ASC
	`
	return r.queryMatches(ctx, query, cutoff)
}

// GetByStatus returns all matches in the given lifecycle status
func (r *PostgresMatchRepository) GetByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE status = $1 ORDER BY kickoff_at ASC`
	return r.queryMatches(ctx, query, status)
}
