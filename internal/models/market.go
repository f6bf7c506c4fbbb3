package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryCode is a stable, provider-agnostic bet-type code
type CategoryCode string

const (
	CategoryMatchWinner  CategoryCode = "MATCH_WINNER"
	CategoryTotals       CategoryCode = "TOTALS"
	CategoryHandicap     CategoryCode = "HANDICAP"
	CategoryBTTS         CategoryCode = "BTTS"
	CategoryDoubleChance CategoryCode = "DOUBLE_CHANCE"
)

// MarketCategory is the canonical bet-type taxonomy entry. Provider market-key
// variants are normalized onto these codes at the merge boundary.
type MarketCategory struct {
	ID        uuid.UUID    `db:"id" json:"id" validate:"required,uuid4"`
	Code      CategoryCode `db:"code" json:"code" validate:"required"`
	Name      string       `db:"name" json:"name" validate:"required"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Market is a bettable proposition, unique per (match, bookmaker, provider
// market key). Markets are updated in place, never deleted and recreated,
// because wagers hang off their outcomes.
type Market struct {
	ID           uuid.UUID        `db:"id" json:"id" validate:"required,uuid4"`
	MatchID      uuid.UUID        `db:"match_id" json:"match_id" validate:"required,uuid4"`
	BookmakerID  uuid.UUID        `db:"bookmaker_id" json:"bookmaker_id" validate:"required,uuid4"`
	ProviderKey  string           `db:"provider_key" json:"provider_key" validate:"required"`
	CategoryID   uuid.UUID        `db:"category_id" json:"category_id" validate:"required,uuid4"`
	Line         *decimal.Decimal `db:"line" json:"line"`
	IsActive     bool             `db:"is_active" json:"is_active"`
	LastSyncedAt *time.Time       `db:"last_synced_at" json:"last_synced_at"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// OutcomeResult represents the resolution of an outcome against a final score
type OutcomeResult string

const (
	OutcomeResultUnresolved OutcomeResult = "UNRESOLVED"
	OutcomeResultWon        OutcomeResult = "WON"
	OutcomeResultLost       OutcomeResult = "LOST"
	OutcomeResultPush       OutcomeResult = "PUSH"
)

// MarketOutcome is one selectable result within a market, unique per
// (market, name). Outcomes absent from the latest payload are deactivated,
// never deleted.
type MarketOutcome struct {
	ID        uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	MarketID  uuid.UUID       `db:"market_id" json:"market_id" validate:"required,uuid4"`
	Name      string          `db:"name" json:"name" validate:"required"`
	Price     decimal.Decimal `db:"price" json:"price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	Result    OutcomeResult   `db:"result" json:"result"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// IsResolved reports whether the outcome has been resolved by settlement.
func (o *MarketOutcome) IsResolved() bool {
	return o.Result != OutcomeResultUnresolved && o.Result != ""
}
