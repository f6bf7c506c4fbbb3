package database

import (
	"context"
	"fmt"

	"github.com/yourusername/pitchside/internal/config"
)

// schema holds the relational contracts of the domain model. The
// wagers.outcome_id constraint is deliberately ON DELETE RESTRICT: a market
// refresh must never be able to cascade into wager rows, regardless of what
// application code does.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS competitions (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		season TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		badge_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL,
		competition_id UUID NOT NULL REFERENCES competitions(id),
		home_team_id UUID NOT NULL REFERENCES teams(id),
		away_team_id UUID NOT NULL REFERENCES teams(id),
		kickoff_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'SCHEDULED',
		home_score INT,
		away_score INT,
		feed_updated_at TIMESTAMPTZ,
		last_odds_sync_at TIMESTAMPTZ,
		last_score_sync_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (competition_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookmakers (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS market_categories (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id UUID PRIMARY KEY,
		match_id UUID NOT NULL REFERENCES matches(id),
		bookmaker_id UUID NOT NULL REFERENCES bookmakers(id),
		provider_key TEXT NOT NULL,
		category_id UUID NOT NULL REFERENCES market_categories(id),
		line NUMERIC(8,2),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_synced_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (match_id, bookmaker_id, provider_key)
	)`,
	`CREATE TABLE IF NOT EXISTS market_outcomes (
		id UUID PRIMARY KEY,
		market_id UUID NOT NULL REFERENCES markets(id),
		name TEXT NOT NULL,
		price NUMERIC(10,3) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		result TEXT NOT NULL DEFAULT 'UNRESOLVED',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (market_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		total_stake NUMERIC(14,2) NOT NULL,
		total_payout NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'PENDING',
		settled_at TIMESTAMPTZ,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wagers (
		id UUID PRIMARY KEY,
		ticket_id UUID NOT NULL REFERENCES tickets(id),
		outcome_id UUID NOT NULL REFERENCES market_outcomes(id) ON DELETE RESTRICT,
		odds NUMERIC(10,3) NOT NULL,
		stake NUMERIC(14,2) NOT NULL,
		potential_payout NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'PENDING',
		settled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE,
		balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_ledger (
		id UUID PRIMARY KEY,
		wallet_id UUID NOT NULL REFERENCES wallets(id),
		operation TEXT NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		reference TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (wallet_id, reference)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_status_kickoff ON matches (status, kickoff_at)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_odds_sync ON matches (status, last_odds_sync_at)`,
	`CREATE INDEX IF NOT EXISTS idx_wagers_status ON wagers (status)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status)`,
	`CREATE INDEX IF NOT EXISTS idx_outcomes_market ON market_outcomes (market_id)`,
}

// Initialize creates a database connection pool and applies the schema.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.ApplySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// ApplySchema executes the idempotent DDL statements for the domain model.
func (db *DB) ApplySchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
