package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/wallet-topups/internal/model"
)

const defaultLogLimit = 100

func (s *SQLiteStorage) insertLogTx(ctx context.Context, q queryable, e *model.ProcessingLogEntry) error {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	snapshot := e.ParsedSnapshot
	if snapshot == nil {
		snapshot = map[string]string{}
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal parsed snapshot: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO processing_log (
			id, message_id, email_from, subject, outcome, reason,
			parsed_snapshot, topup_id, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.MessageID, e.From, e.Subject, e.Outcome, e.Reason,
		string(encoded), e.TopUpID, e.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert processing log entry: %w", err)
	}
	return nil
}

// IsMessageProcessed reports whether a mailbox message was already handled.
func (s *SQLiteStorage) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM processing_log WHERE message_id = ?)
	`, messageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processing log: %w", err)
	}
	return exists, nil
}

// ListProcessingLog returns log entries newest first.
func (s *SQLiteStorage) ListProcessingLog(ctx context.Context, filter model.LogFilter) ([]model.ProcessingLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}

	query := `
		SELECT id, message_id, email_from, subject, outcome, reason,
			parsed_snapshot, topup_id, processed_at
		FROM processing_log`
	args := []any{}
	if filter.Outcome != "" {
		query += " WHERE outcome = ?"
		args = append(args, filter.Outcome)
	}
	query += " ORDER BY processed_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ProcessingLogEntry
	for rows.Next() {
		var (
			e        model.ProcessingLogEntry
			snapshot string
		)
		if err := rows.Scan(&e.ID, &e.MessageID, &e.From, &e.Subject, &e.Outcome, &e.Reason,
			&snapshot, &e.TopUpID, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processing log entry: %w", err)
		}
		if err := json.Unmarshal([]byte(snapshot), &e.ParsedSnapshot); err != nil {
			return nil, fmt.Errorf("invalid parsed snapshot for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
