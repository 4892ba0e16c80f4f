// Package config loads component configuration from viper and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath returns the configured SQLite path, expanded.
func DatabasePath(v Getter) string {
	path := v.GetString("database.path")
	if path == "" {
		path = "$HOME/.local/share/topups/topups.db"
	}
	return ExpandPath(path)
}

// DataDir returns the directory holding tokens and certificates.
func DataDir() string {
	return ExpandPath("~/.config/topups")
}

// WriteFile saves v to path, creating the directory with owner-only access
// since the file holds refresh tokens.
func WriteFile(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Chmod(path, 0600)
}
