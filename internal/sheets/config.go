// Package sheets exports top-up reports to Google Sheets.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/googleauth"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	Credentials      googleauth.Credentials
	SpreadsheetID    string
	SpreadsheetName  string
	TimeZone         string
	BatchSize        int
	RetryAttempts    int
	RetryDelay       time.Duration
	EnableFormatting bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "Wallet Top-ups",
		EnableFormatting: true,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", common.ErrConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrConfig)
	}
	if c.SpreadsheetID == "" && c.SpreadsheetName == "" {
		return fmt.Errorf("%w: spreadsheet id or name is required", common.ErrConfig)
	}
	return nil
}
