package tui

import (
	"github.com/Veraticus/wallet-topups/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Admin     string
	PageSize  int
	Width     int
	Height    int
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Admin:     "cli",
		PageSize:  200,
		Width:     100,
		Height:    30,
		AltScreen: true,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithAdmin sets the reviewer name recorded on approvals and rejections.
func WithAdmin(admin string) Option {
	return func(c *Config) {
		if admin != "" {
			c.Admin = admin
		}
	}
}

// WithPageSize caps how many pending entries are loaded at once.
func WithPageSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PageSize = n
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithInline renders in the normal screen buffer instead of the alternate one.
func WithInline() Option {
	return func(c *Config) {
		c.AltScreen = false
	}
}
