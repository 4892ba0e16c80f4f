package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// Settings holds the admin-tunable ingestion behavior.
type Settings struct {
	GmailQuery            string  `json:"gmail_query"`
	DefaultCurrency       string  `json:"default_currency"`
	PollIntervalSeconds   int     `json:"poll_interval_seconds"`
	RealtimeIntervalSecs  int     `json:"realtime_interval_seconds"`
	MaxMessagesPerScan    int     `json:"max_messages_per_scan"`
	ScanTimeoutSeconds    int     `json:"scan_timeout_seconds"`
	DedupWindowDays       int     `json:"dedup_window_days"`
	ShortWindowHours      int     `json:"short_window_hours"`
	AIConfidenceThreshold float64 `json:"ai_confidence_threshold"`
	PollingEnabled        bool    `json:"polling_enabled"`
	RealtimeMode          bool    `json:"realtime_mode"`
	AIParsingEnabled      bool    `json:"ai_parsing_enabled"`
	AutoApproveEnabled    bool    `json:"auto_approve_enabled"`
}

// DefaultSettings returns the settings used before an admin saves any.
func DefaultSettings() Settings {
	return Settings{
		GmailQuery:            "in:inbox newer_than:7d",
		DefaultCurrency:       "ILS",
		PollIntervalSeconds:   300,
		RealtimeIntervalSecs:  30,
		MaxMessagesPerScan:    50,
		ScanTimeoutSeconds:    120,
		DedupWindowDays:       30,
		ShortWindowHours:      24,
		AIConfidenceThreshold: 0.7,
		AutoApproveEnabled:    true,
	}
}

// PollInterval is the effective delay between background scans.
func (s Settings) PollInterval() time.Duration {
	if s.RealtimeMode {
		return time.Duration(s.RealtimeIntervalSecs) * time.Second
	}
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// ScanTimeout bounds a single ingestion pass.
func (s Settings) ScanTimeout() time.Duration {
	return time.Duration(s.ScanTimeoutSeconds) * time.Second
}

// DedupWindow is how far back the risk detector looks.
func (s Settings) DedupWindow() time.Duration {
	return time.Duration(s.DedupWindowDays) * 24 * time.Hour
}

// ShortWindow is the same-sender window for potential duplicates.
func (s Settings) ShortWindow() time.Duration {
	return time.Duration(s.ShortWindowHours) * time.Hour
}

// Validate checks ranges before settings are persisted.
func (s Settings) Validate() error {
	switch {
	case s.PollIntervalSeconds < 10:
		return common.Validationf("poll_interval_seconds must be at least 10")
	case s.RealtimeIntervalSecs < 5:
		return common.Validationf("realtime_interval_seconds must be at least 5")
	case s.MaxMessagesPerScan < 1 || s.MaxMessagesPerScan > 500:
		return common.Validationf("max_messages_per_scan must be between 1 and 500")
	case s.ScanTimeoutSeconds < 1:
		return common.Validationf("scan_timeout_seconds must be positive")
	case s.DedupWindowDays < 1:
		return common.Validationf("dedup_window_days must be positive")
	case s.ShortWindowHours < 1:
		return common.Validationf("short_window_hours must be positive")
	case s.AIConfidenceThreshold < 0 || s.AIConfidenceThreshold > 1:
		return common.Validationf("ai_confidence_threshold must be between 0 and 1")
	case len(strings.TrimSpace(s.DefaultCurrency)) != 3:
		return common.Validationf("default_currency %q is not a 3-letter code", s.DefaultCurrency)
	}
	return nil
}

// BoardConfig configures mirroring of top-ups to a monday.com board.
type BoardConfig struct {
	ColumnMapping map[string]string `json:"column_mapping"`
	APIToken      string            `json:"api_token,omitempty"`
	BoardID       string            `json:"board_id"`
	GroupID       string            `json:"group_id"`
	Enabled       bool              `json:"enabled"`
}

// BoardFields are the top-up fields that may be mapped to board columns.
var BoardFields = []string{
	"amount", "currency", "sender_name", "bank_reference",
	"status", "risk_level", "source", "created_at", "reviewed_by",
}

// Ready reports whether sync has everything it needs.
func (c BoardConfig) Ready() bool {
	return c.Enabled && c.APIToken != "" && c.BoardID != ""
}

// MaskedToken replaces the API token in responses.
const MaskedToken = "********"

// Masked returns a copy safe to return to API clients.
func (c BoardConfig) Masked() BoardConfig {
	out := c
	if c.APIToken != "" {
		out.APIToken = MaskedToken
	}
	return out
}

// Validate rejects mappings onto unknown fields.
func (c BoardConfig) Validate() error {
	known := make(map[string]bool, len(BoardFields))
	for _, f := range BoardFields {
		known[f] = true
	}
	for field, column := range c.ColumnMapping {
		if !known[field] {
			return fmt.Errorf("%w: unknown board field %q", common.ErrConfig, field)
		}
		if strings.TrimSpace(column) == "" {
			return fmt.Errorf("%w: column for %q is blank", common.ErrConfig, field)
		}
	}
	if c.Enabled && c.BoardID == "" {
		return fmt.Errorf("%w: board_id is required when sync is enabled", common.ErrConfig)
	}
	return nil
}

// Board is a remote board summary.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardColumn is a remote board column.
type BoardColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}
