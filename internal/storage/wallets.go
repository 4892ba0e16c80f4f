package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// creditWalletTx records the credit for a top-up and adds it to the user's
// balance. The credit ledger is keyed by top-up id, so a second credit for
// the same entry fails and rolls the whole transaction back.
func (s *SQLiteStorage) creditWalletTx(ctx context.Context, tx *sql.Tx, topUpID, userID string, amount decimal.Decimal, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_credits (topup_id, user_id, amount, created_at)
		VALUES (?, ?, ?, ?)
	`, topUpID, userID, amount.String(), at)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: top-up %s already credited", common.ErrAlreadyResolved, topUpID)
		}
		return fmt.Errorf("failed to record wallet credit: %w", err)
	}

	balance := decimal.Zero
	var stored string
	err = tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, userID).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read wallet balance: %w", err)
	default:
		if balance, err = decimal.NewFromString(stored); err != nil {
			return fmt.Errorf("invalid stored balance %q: %w", stored, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			balance = excluded.balance,
			updated_at = excluded.updated_at
	`, userID, balance.Add(amount).String(), at)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE pending_topups SET credited = 1 WHERE id = ?`, topUpID); err != nil {
		return fmt.Errorf("failed to mark top-up credited: %w", err)
	}
	return nil
}

// GetWallet returns a user's wallet. Users that were never credited have a zero balance.
func (s *SQLiteStorage) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, common.Validationf("user id is required")
	}

	wallet := &model.Wallet{UserID: userID, Balance: decimal.Zero}
	var balance string
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, updated_at FROM wallets WHERE user_id = ?
	`, userID).Scan(&balance, &wallet.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("invalid stored balance %q: %w", balance, err)
	}
	return wallet, nil
}

// GetWalletCredits lists the credits issued to a user, newest first.
func (s *SQLiteStorage) GetWalletCredits(ctx context.Context, userID string) ([]model.WalletCredit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT topup_id, user_id, amount, created_at
		FROM wallet_credits
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet credits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var credits []model.WalletCredit
	for rows.Next() {
		var (
			c      model.WalletCredit
			amount string
		)
		if err := rows.Scan(&c.TopUpID, &c.UserID, &amount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet credit: %w", err)
		}
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		credits = append(credits, c)
	}
	return credits, rows.Err()
}
