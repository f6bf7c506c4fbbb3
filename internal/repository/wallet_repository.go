package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/models"
)

// PostgresWalletRepository implements WalletRepository for PostgreSQL
type PostgresWalletRepository struct {
	db *database.DB
}

// NewPostgresWalletRepository creates a new wallet repository
func NewPostgresWalletRepository(db *database.DB) WalletRepository {
	return &PostgresWalletRepository{db: db}
}

const walletColumns = `id, user_id, balance, created_at, updated_at`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	return w, nil
}

// GetByUser retrieves a wallet by user ID
func (r *PostgresWalletRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return scanWallet(r.db.GetPool().QueryRow(ctx, query, userID))
}

// GetOrCreateByUser retrieves the user's wallet, creating an empty one if absent
func (r *PostgresWalletRepository) GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = wallets.updated_at
		RETURNING ` + walletColumns

	return scanWallet(r.db.GetPool().QueryRow(ctx, query, uuid.New(), userID))
}

// Credit mutates the balance under a per-user row lock. The ledger row is the
// idempotency guard: a reference seen before means the credit already landed,
// and the balance is returned unchanged. The lock is held only for this
// transaction and never across a network call.
func (r *PostgresWalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, operation models.LedgerOperation, reference, description string) (decimal.Decimal, error) {
	var newBalance decimal.Decimal

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var walletID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&walletID)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO wallet_ledger (id, wallet_id, operation, amount, reference, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (wallet_id, reference) DO NOTHING
		`, uuid.New(), walletID, operation, amount, reference, description)
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}

		if tag.RowsAffected() == 0 {
			// Credit already applied by a previous run
			return tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&newBalance)
		}

		return tx.QueryRow(ctx, `
			UPDATE wallets SET balance = balance + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING balance
		`, walletID, amount).Scan(&newBalance)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// GetLedger retrieves all ledger entries for a wallet, newest first
func (r *PostgresWalletRepository) GetLedger(ctx context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, wallet_id, operation, amount, reference, description, created_at
		FROM wallet_ledger WHERE wallet_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e := &models.LedgerEntry{}
		err := rows.Scan(&e.ID, &e.WalletID, &e.Operation, &e.Amount, &e.Reference, &e.Description, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
