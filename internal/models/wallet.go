package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerOperation classifies a ledger entry
type LedgerOperation string

const (
	LedgerOperationCredit LedgerOperation = "CREDIT"
	LedgerOperationDebit  LedgerOperation = "DEBIT"
	LedgerOperationRefund LedgerOperation = "REFUND"
)

// Wallet holds a user's balance. The balance is mutated only through
// settlement payouts or payment-gateway callbacks, under a per-user row lock.
type Wallet struct {
	ID        uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id" validate:"required,uuid4"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// LedgerEntry records a single wallet mutation. The reference points at the
// ticket (or external payment) that caused it, which also serves as the
// idempotency key for settlement credits.
type LedgerEntry struct {
	ID          uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	WalletID    uuid.UUID       `db:"wallet_id" json:"wallet_id" validate:"required,uuid4"`
	Operation   LedgerOperation `db:"operation" json:"operation" validate:"required"`
	Amount      decimal.Decimal `db:"amount" json:"amount" validate:"required"`
	Reference   string          `db:"reference" json:"reference" validate:"required"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
