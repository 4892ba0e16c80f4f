package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// The rule config, settings and board config are singleton JSON documents.

// GetRuleConfig returns the saved rule config or the default when none was saved.
func (s *SQLiteStorage) GetRuleConfig(ctx context.Context) (*model.RuleConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	cfg := model.DefaultRuleConfig()
	updatedAt, err := s.loadSingleton(ctx, "rule_config", "config", &cfg)
	if err != nil {
		return nil, err
	}
	cfg.UpdatedAt = updatedAt
	cfg.Normalize()
	return &cfg, nil
}

// SaveRuleConfig validates and persists the rule config.
func (s *SQLiteStorage) SaveRuleConfig(ctx context.Context, cfg *model.RuleConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("%w: rule config", ErrNilParameter)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Normalize()
	cfg.UpdatedAt = time.Now().UTC()
	return s.storeSingleton(ctx, "rule_config", "config", cfg, cfg.UpdatedAt)
}

// GetSettings returns the saved settings or the defaults.
func (s *SQLiteStorage) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	settings := model.DefaultSettings()
	if _, err := s.loadSingleton(ctx, "settings", "settings", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings validates and persists settings.
func (s *SQLiteStorage) SaveSettings(ctx context.Context, settings *model.Settings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if settings == nil {
		return fmt.Errorf("%w: settings", ErrNilParameter)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.storeSingleton(ctx, "settings", "settings", settings, time.Now().UTC())
}

// GetBoardConfig returns the saved board config, unmasked.
func (s *SQLiteStorage) GetBoardConfig(ctx context.Context) (*model.BoardConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	cfg := model.BoardConfig{ColumnMapping: map[string]string{}}
	if _, err := s.loadSingleton(ctx, "board_config", "config", &cfg); err != nil {
		return nil, err
	}
	if cfg.ColumnMapping == nil {
		cfg.ColumnMapping = map[string]string{}
	}
	return &cfg, nil
}

// SaveBoardConfig validates and persists the board config.
func (s *SQLiteStorage) SaveBoardConfig(ctx context.Context, cfg *model.BoardConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("%w: board config", ErrNilParameter)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.storeSingleton(ctx, "board_config", "config", cfg, time.Now().UTC())
}

// table and column are package constants, never user input.
func (s *SQLiteStorage) loadSingleton(ctx context.Context, table, column string, dest any) (time.Time, error) {
	var (
		raw       string
		updatedAt time.Time
	)
	// #nosec G201 - table and column are fixed identifiers
	query := fmt.Sprintf(`SELECT %s, updated_at FROM %s WHERE id = 1`, column, table)
	err := s.db.QueryRowContext(ctx, query).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load %s: %w", table, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return time.Time{}, fmt.Errorf("%w: stored %s is corrupt: %w", common.ErrConfig, table, err)
	}
	return updatedAt, nil
}

func (s *SQLiteStorage) storeSingleton(ctx context.Context, table, column string, value any, at time.Time) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", table, err)
	}
	// #nosec G201 - table and column are fixed identifiers
	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET %s = excluded.%s, updated_at = excluded.updated_at
	`, table, column, column, column)
	if _, err := s.db.ExecContext(ctx, query, string(encoded), at); err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}
