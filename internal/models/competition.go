package models

import (
	"time"

	"github.com/google/uuid"
)

// Competition represents a league or tournament discovered from the feed.
// Competitions are never deleted, only deactivated.
type Competition struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ExternalID string    `db:"external_id" json:"external_id" validate:"required"`
	Name       string    `db:"name" json:"name" validate:"required"`
	Country    string    `db:"country" json:"country"`
	Season     string    `db:"season" json:"season"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Team represents a side referenced by fixtures and odds payloads.
type Team struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ExternalID string    `db:"external_id" json:"external_id" validate:"required"`
	Name       string    `db:"name" json:"name" validate:"required"`
	BadgeURL   *string   `db:"badge_url" json:"badge_url"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Bookmaker represents an odds provider referenced by markets.
type Bookmaker struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ExternalID string    `db:"external_id" json:"external_id" validate:"required"`
	Name       string    `db:"name" json:"name" validate:"required"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
