package engine

import (
	"context"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// Rules returns the active rule set.
func (e *Engine) Rules(ctx context.Context) (*model.RuleConfig, error) {
	return e.storage.GetRuleConfig(ctx)
}

// SaveRules validates and stores a new rule set.
func (e *Engine) SaveRules(ctx context.Context, cfg *model.RuleConfig) (*model.RuleConfig, error) {
	if err := e.storage.SaveRuleConfig(ctx, cfg); err != nil {
		return nil, err
	}
	e.logger.Info("rules updated",
		"enabled", cfg.Enabled,
		"whitelist", len(cfg.SenderWhitelist),
		"auto_approve_threshold", cfg.AutoApproveThreshold.String(),
		"max_threshold", cfg.MaxThreshold.String())
	return e.storage.GetRuleConfig(ctx)
}

// Settings returns the ingestion settings.
func (e *Engine) Settings(ctx context.Context) (*model.Settings, error) {
	return e.storage.GetSettings(ctx)
}

// SaveSettings validates and stores ingestion settings.
func (e *Engine) SaveSettings(ctx context.Context, settings *model.Settings) (*model.Settings, error) {
	if err := e.storage.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	e.logger.Info("settings updated",
		"polling_enabled", settings.PollingEnabled,
		"realtime_mode", settings.RealtimeMode,
		"ai_parsing_enabled", settings.AIParsingEnabled)
	return e.storage.GetSettings(ctx)
}

// BoardConfig returns the board sync configuration with the token masked.
func (e *Engine) BoardConfig(ctx context.Context) (*model.BoardConfig, error) {
	cfg, err := e.storage.GetBoardConfig(ctx)
	if err != nil {
		return nil, err
	}
	masked := cfg.Masked()
	return &masked, nil
}

// BoardCredentials returns the unmasked board configuration.
func (e *Engine) BoardCredentials(ctx context.Context) (*model.BoardConfig, error) {
	return e.storage.GetBoardConfig(ctx)
}

// SaveBoardConfig stores the board configuration. A blank or masked token
// keeps the stored one.
func (e *Engine) SaveBoardConfig(ctx context.Context, cfg *model.BoardConfig) (*model.BoardConfig, error) {
	if cfg.APIToken == "" || cfg.APIToken == model.MaskedToken {
		current, err := e.storage.GetBoardConfig(ctx)
		if err != nil {
			return nil, err
		}
		cfg.APIToken = current.APIToken
	}
	if err := e.storage.SaveBoardConfig(ctx, cfg); err != nil {
		return nil, err
	}
	e.logger.Info("board config updated", "enabled", cfg.Enabled, "board_id", cfg.BoardID)
	return e.BoardConfig(ctx)
}

// ProcessingLog lists recent ingestion outcomes.
func (e *Engine) ProcessingLog(ctx context.Context, filter model.LogFilter) ([]model.ProcessingLogEntry, error) {
	return e.storage.ListProcessingLog(ctx, filter)
}
