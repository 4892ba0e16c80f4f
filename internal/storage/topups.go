package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/service"
)

const topUpColumns = `id, amount, currency, sender_name, bank_reference, source, status,
	risk_level, risk_matches, email_from, email_subject, email_excerpt, message_id,
	received_at, ai_parsed_data, target_user_id, credited, reviewed_by, reviewed_at,
	reject_reason, notes, created_at, updated_at`

// SaveIntake stores a new top-up, its processing log entry and any risk
// upgrades of existing entries in one transaction.
func (s *SQLiteStorage) SaveIntake(ctx context.Context, intake *service.Intake) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if intake == nil {
		return fmt.Errorf("%w: intake", ErrNilParameter)
	}
	if intake.TopUp != nil {
		if err := validateTopUp(intake.TopUp); err != nil {
			return err
		}
	}
	if intake.Log != nil {
		if err := validateLogEntry(intake.Log); err != nil {
			return err
		}
	}
	if intake.AutoApproval != nil {
		if intake.TopUp == nil {
			return fmt.Errorf("%w: auto approval without top-up", ErrNilParameter)
		}
		if err := validateResolution(*intake.AutoApproval); err != nil {
			return err
		}
	}

	var resolved *model.TopUp
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if intake.TopUp != nil {
			if err := s.insertTopUpTx(ctx, tx, intake.TopUp); err != nil {
				return err
			}
		}
		for _, up := range intake.Upgrades {
			if err := s.upgradeRiskTx(ctx, tx, up); err != nil {
				return err
			}
		}
		if intake.AutoApproval != nil {
			var err error
			if resolved, err = s.resolveTx(ctx, tx, intake.TopUp.ID, *intake.AutoApproval); err != nil {
				return err
			}
		}
		if intake.Log != nil {
			if err := s.insertLogTx(ctx, tx, intake.Log); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if resolved != nil {
		*intake.TopUp = *resolved
	}
	return nil
}

func (s *SQLiteStorage) insertTopUpTx(ctx context.Context, q queryable, t *model.TopUp) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	if t.ReceivedAt.IsZero() {
		t.ReceivedAt = t.CreatedAt
	}
	if t.RiskLevel == "" {
		t.RiskLevel = model.RiskClear
	}

	matches, err := json.Marshal(nonNil(t.RiskMatches))
	if err != nil {
		return fmt.Errorf("failed to marshal risk matches: %w", err)
	}
	parsed, err := json.Marshal(t.AIParsedData)
	if err != nil {
		return fmt.Errorf("failed to marshal parsed data: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO pending_topups (
			id, amount, currency, sender_name, bank_reference, normalized_reference,
			source, status, risk_level, risk_matches, email_from, email_subject,
			email_excerpt, message_id, received_at, ai_parsed_data, target_user_id,
			notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Amount.String(), t.Currency, t.SenderName, t.BankReference,
		model.NormalizeReference(t.BankReference),
		t.Source, t.Status, t.RiskLevel, string(matches), t.EmailFrom, t.EmailSubject,
		t.EmailExcerpt, t.MessageID, t.ReceivedAt.UTC(), string(parsed), t.TargetUserID,
		t.Notes, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert top-up: %w", err)
	}
	return nil
}

// upgradeRiskTx raises a pending entry's risk level. Resolved entries and
// entries already at or above the level are left alone.
func (s *SQLiteStorage) upgradeRiskTx(ctx context.Context, q queryable, up service.RiskUpgrade) error {
	var (
		status  model.TopUpStatus
		level   model.RiskLevel
		matches string
	)
	err := q.QueryRowContext(ctx, `
		SELECT status, risk_level, risk_matches FROM pending_topups WHERE id = ?
	`, up.TopUpID).Scan(&status, &level, &matches)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read risk level: %w", err)
	}
	if status != model.StatusPending || level.Severity() >= up.Level.Severity() {
		return nil
	}

	var ids []string
	_ = json.Unmarshal([]byte(matches), &ids)
	if up.MatchID != "" {
		ids = appendUnique(ids, up.MatchID)
	}
	encoded, err := json.Marshal(nonNil(ids))
	if err != nil {
		return fmt.Errorf("failed to marshal risk matches: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		UPDATE pending_topups
		SET risk_level = ?, risk_matches = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, up.Level, string(encoded), time.Now().UTC(), up.TopUpID)
	if err != nil {
		return fmt.Errorf("failed to upgrade risk level: %w", err)
	}
	return nil
}

// GetTopUp retrieves a top-up by id.
func (s *SQLiteStorage) GetTopUp(ctx context.Context, id string) (*model.TopUp, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTopUpTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTopUpTx(ctx context.Context, q queryable, id string) (*model.TopUp, error) {
	row := q.QueryRowContext(ctx, `SELECT `+topUpColumns+` FROM pending_topups WHERE id = ?`, id)
	t, err := scanTopUp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("top-up %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top-up: %w", err)
	}
	return t, nil
}

// ListTopUps returns top-ups newest first.
func (s *SQLiteStorage) ListTopUps(ctx context.Context, filter model.TopUpFilter) ([]model.TopUp, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, common.Validationf("unknown status %q", filter.Status)
		}
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Since != nil {
		where = append(where, "received_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT ` + topUpColumns + ` FROM pending_topups`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	return s.queryTopUps(ctx, s.db, query, args...)
}

// GetRecentTopUps returns pending and approved top-ups received since the given time.
func (s *SQLiteStorage) GetRecentTopUps(ctx context.Context, since time.Time) ([]model.TopUp, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTopUps(ctx, s.db, `
		SELECT `+topUpColumns+` FROM pending_topups
		WHERE status IN ('pending', 'approved') AND received_at >= ?
		ORDER BY received_at DESC
	`, since.UTC())
}

// ReferenceExists reports whether any top-up carries the bank reference.
func (s *SQLiteStorage) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	normalized := model.NormalizeReference(reference)
	if normalized == "" {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM pending_topups WHERE normalized_reference = ?)
	`, normalized).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}
	return exists, nil
}

// ResolveTopUp moves a pending top-up to approved or rejected. An approval
// with a target user credits that user's wallet in the same transaction.
// Resolving an entry that has already left pending returns ErrAlreadyResolved.
func (s *SQLiteStorage) ResolveTopUp(ctx context.Context, id string, r model.Resolution) (*model.TopUp, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateResolution(r); err != nil {
		return nil, err
	}

	var result *model.TopUp
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		result, err = s.resolveTx(ctx, tx, id, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveTx moves a pending entry to its final status and credits the target
// wallet on approval. A status other than pending yields ErrAlreadyResolved.
func (s *SQLiteStorage) resolveTx(ctx context.Context, tx *sql.Tx, id string, r model.Resolution) (*model.TopUp, error) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	at := r.At.UTC()

	current, err := s.getTopUpTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current.IsResolved() {
		return nil, fmt.Errorf("%w: top-up %s is %s", common.ErrAlreadyResolved, id, current.Status)
	}

	target := strings.TrimSpace(r.TargetUserID)
	if target == "" {
		target = current.TargetUserID
	}
	reason := ""
	if r.Status == model.StatusRejected {
		reason = strings.TrimSpace(r.RejectReason)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE pending_topups
		SET status = ?, reviewed_by = ?, reviewed_at = ?, reject_reason = ?,
			target_user_id = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, r.Status, r.ReviewedBy, at, reason, target, at, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve top-up: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check resolved rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: top-up %s", common.ErrAlreadyResolved, id)
	}

	if r.Status == model.StatusApproved && target != "" {
		if err := s.creditWalletTx(ctx, tx, id, target, current.Amount, at); err != nil {
			return nil, err
		}
	}

	return s.getTopUpTx(ctx, tx, id)
}

// GetStats aggregates the queue by status and risk level.
func (s *SQLiteStorage) GetStats(ctx context.Context) (*model.Stats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	stats := &model.Stats{
		ByRisk:              make(map[model.RiskLevel]int),
		TotalApprovedAmount: decimal.Zero,
		TotalCreditedAmount: decimal.Zero,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, risk_level, amount, credited FROM pending_topups
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			status   model.TopUpStatus
			risk     model.RiskLevel
			amount   string
			credited bool
		)
		if err := rows.Scan(&status, &risk, &amount, &credited); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}

		stats.Total++
		stats.ByRisk[risk]++
		switch status {
		case model.StatusPending:
			stats.Pending++
		case model.StatusApproved:
			stats.Approved++
			stats.TotalApprovedAmount = stats.TotalApprovedAmount.Add(value)
			if credited {
				stats.TotalCreditedAmount = stats.TotalCreditedAmount.Add(value)
			}
		case model.StatusRejected:
			stats.Rejected++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStorage) queryTopUps(ctx context.Context, q queryable, query string, args ...any) ([]model.TopUp, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top-ups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var topUps []model.TopUp
	for rows.Next() {
		t, err := scanTopUp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan top-up: %w", err)
		}
		topUps = append(topUps, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top-ups: %w", err)
	}
	return topUps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTopUp(row scanner) (*model.TopUp, error) {
	var (
		t          model.TopUp
		amount     string
		matches    string
		parsed     string
		reviewedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &amount, &t.Currency, &t.SenderName, &t.BankReference, &t.Source, &t.Status,
		&t.RiskLevel, &matches, &t.EmailFrom, &t.EmailSubject, &t.EmailExcerpt, &t.MessageID,
		&t.ReceivedAt, &parsed, &t.TargetUserID, &t.Credited, &t.ReviewedBy, &reviewedAt,
		&t.RejectReason, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	if err := json.Unmarshal([]byte(matches), &t.RiskMatches); err != nil {
		return nil, fmt.Errorf("invalid risk matches for %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(parsed), &t.AIParsedData); err != nil {
		return nil, fmt.Errorf("invalid parsed data for %s: %w", t.ID, err)
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		t.ReviewedAt = &at
	}
	return &t, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
