package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/wallet-topups/internal/gmail"
	"github.com/Veraticus/wallet-topups/internal/googleauth"
	"github.com/Veraticus/wallet-topups/internal/sheets"
)

// credentials reads a Google credential block. Viper keys win over the
// plain environment variables named by envPrefix (GMAIL, GOOGLE_SHEETS).
func credentials(v Getter, section, envPrefix string) googleauth.Credentials {
	return googleauth.Credentials{
		ClientID:           stringOr(v, section+".client_id", envPrefix+"_CLIENT_ID"),
		ClientSecret:       stringOr(v, section+".client_secret", envPrefix+"_CLIENT_SECRET"),
		RefreshToken:       stringOr(v, section+".refresh_token", envPrefix+"_REFRESH_TOKEN"),
		ServiceAccountPath: ExpandPath(stringOr(v, section+".service_account_path", envPrefix+"_SERVICE_ACCOUNT_PATH")),
	}
}

// LoadGmailConfig loads mailbox configuration. A refresh token saved by
// `topups auth gmail` is used when none is configured.
func LoadGmailConfig(v Getter) (*gmail.Config, error) {
	cfg := gmail.DefaultConfig()
	cfg.Credentials = credentials(v, "gmail", "GMAIL")
	cfg.TokenFile = ExpandPath(v.GetString("gmail.token_file"))
	if cfg.TokenFile == "" {
		cfg.TokenFile = ExpandPath("~/.config/topups/gmail-token.json")
	}
	if user := stringOr(v, "gmail.user", "GMAIL_USER"); user != "" {
		cfg.User = user
	}

	if cfg.Credentials.RefreshToken == "" && !cfg.Credentials.HasServiceAccount() {
		if token, err := googleauth.RefreshTokenFromFile(cfg.TokenFile); err == nil {
			cfg.Credentials.RefreshToken = token
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSheetsConfig loads Google Sheets configuration.
func LoadSheetsConfig(v Getter) (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()
	cfg.Credentials = credentials(v, "sheets", "GOOGLE_SHEETS")
	cfg.SpreadsheetID = stringOr(v, "sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID")
	if name := stringOr(v, "sheets.spreadsheet_name", "GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
		cfg.SpreadsheetName = name
	}
	if tz := v.GetString("sheets.timezone"); tz != "" {
		cfg.TimeZone = tz
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var _ Getter = (*viper.Viper)(nil)
