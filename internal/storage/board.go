package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetBoardItemID returns the board item mirrored for a top-up, or "" if none.
func (s *SQLiteStorage) GetBoardItemID(ctx context.Context, topUpID string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(topUpID, "topUpID"); err != nil {
		return "", err
	}

	var itemID string
	err := s.db.QueryRowContext(ctx, `
		SELECT item_id FROM board_items WHERE topup_id = ?
	`, topUpID).Scan(&itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get board item: %w", err)
	}
	return itemID, nil
}

// SaveBoardItemID remembers the board item created for a top-up.
func (s *SQLiteStorage) SaveBoardItemID(ctx context.Context, topUpID, itemID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(topUpID, "topUpID"); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO board_items (topup_id, item_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(topup_id) DO UPDATE SET
			item_id = excluded.item_id,
			updated_at = excluded.updated_at
	`, topUpID, itemID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save board item: %w", err)
	}
	return nil
}
