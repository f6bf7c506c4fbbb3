package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WagerStatus represents the settlement status of a single wager
type WagerStatus string

const (
	WagerStatusPending WagerStatus = "PENDING"
	WagerStatusWon     WagerStatus = "WON"
	WagerStatusLost    WagerStatus = "LOST"
	WagerStatusVoid    WagerStatus = "VOID"
)

// IsSettled reports whether the wager has reached a terminal status.
func (s WagerStatus) IsSettled() bool {
	return s == WagerStatusWon || s == WagerStatusLost || s == WagerStatusVoid
}

// Wager is a user's stake on a single market outcome. The outcome reference
// is non-owning: refreshing odds for the match must never touch this row.
type Wager struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	TicketID        uuid.UUID       `db:"ticket_id" json:"ticket_id" validate:"required,uuid4"`
	OutcomeID       uuid.UUID       `db:"outcome_id" json:"outcome_id" validate:"required,uuid4"`
	Odds            decimal.Decimal `db:"odds" json:"odds" validate:"required"`
	Stake           decimal.Decimal `db:"stake" json:"stake" validate:"required"`
	PotentialPayout decimal.Decimal `db:"potential_payout" json:"potential_payout"`
	Status          WagerStatus     `db:"status" json:"status" validate:"required"`
	SettledAt       *time.Time      `db:"settled_at" json:"settled_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Payout returns the amount to credit for this wager given its status.
// WON pays stake times odds, VOID refunds the stake, LOST pays nothing.
func (w *Wager) Payout() decimal.Decimal {
	switch w.Status {
	case WagerStatusWon:
		return w.Stake.Mul(w.Odds)
	case WagerStatusVoid:
		return w.Stake
	default:
		return decimal.Zero
	}
}

// TicketStatus represents the aggregate settlement status of a ticket
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusWon     TicketStatus = "WON"
	TicketStatusLost    TicketStatus = "LOST"
	TicketStatusVoid    TicketStatus = "VOID"
)

// Ticket groups one or more wagers settled together.
type Ticket struct {
	ID          uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id" validate:"required,uuid4"`
	TotalStake  decimal.Decimal `db:"total_stake" json:"total_stake" validate:"required"`
	TotalPayout decimal.Decimal `db:"total_payout" json:"total_payout"`
	Status      TicketStatus    `db:"status" json:"status" validate:"required"`
	SettledAt   *time.Time      `db:"settled_at" json:"settled_at"`
	PaidAt      *time.Time      `db:"paid_at" json:"paid_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsSettled reports whether the ticket has reached a terminal status.
func (t *Ticket) IsSettled() bool {
	return t.Status != TicketStatusPending
}

// ResolveStatus derives the aggregate ticket status from its wagers. A ticket
// with any unsettled wager stays PENDING. Any lost leg loses the ticket; a
// ticket of only void legs is void; otherwise it is won.
func ResolveStatus(wagers []*Wager) TicketStatus {
	if len(wagers) == 0 {
		return TicketStatusPending
	}
	allVoid := true
	for _, w := range wagers {
		if !w.Status.IsSettled() {
			return TicketStatusPending
		}
		if w.Status == WagerStatusLost {
			return TicketStatusLost
		}
		if w.Status != WagerStatusVoid {
			allVoid = false
		}
	}
	if allVoid {
		return TicketStatusVoid
	}
	return TicketStatusWon
}

// TicketPayout computes the amount owed for a settled ticket. Won legs
// multiply into the accumulator; void legs count as odds 1.0.
func TicketPayout(t *Ticket, wagers []*Wager) decimal.Decimal {
	switch ResolveStatus(wagers) {
	case TicketStatusLost, TicketStatusPending:
		return decimal.Zero
	case TicketStatusVoid:
		return t.TotalStake
	}
	combined := decimal.NewFromInt(1)
	for _, w := range wagers {
		if w.Status == WagerStatusWon {
			combined = combined.Mul(w.Odds)
		}
	}
	return t.TotalStake.Mul(combined)
}
