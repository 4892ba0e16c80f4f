// Package themes holds the color palettes used by the review TUI.
package themes

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Label         lipgloss.Style
	Selected      lipgloss.Style
	Header        lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

type palette struct {
	primary, muted, border, foreground, subtle lipgloss.Color
	info, errorColor, warning, success         lipgloss.Color
	selectedText                               lipgloss.Color
}

func build(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Muted:      p.muted,
		Border:     p.border,
		Foreground: p.foreground,
		Info:       p.info,
		Error:      p.errorColor,
		Warning:    p.warning,
		Success:    p.success,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Label: lipgloss.NewStyle().
			Foreground(p.muted).
			Width(10),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.selectedText).
			Bold(true),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			BorderBottom(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.errorColor).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:      lipgloss.Color("#7c3aed"),
	muted:        lipgloss.Color("#737373"),
	border:       lipgloss.Color("#404040"),
	foreground:   lipgloss.Color("#fafafa"),
	subtle:       lipgloss.Color("#a3a3a3"),
	info:         lipgloss.Color("#3b82f6"),
	errorColor:   lipgloss.Color("#ef4444"),
	warning:      lipgloss.Color("#f59e0b"),
	success:      lipgloss.Color("#10b981"),
	selectedText: lipgloss.Color("#fafafa"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:      lipgloss.Color("#cba6f7"),
	muted:        lipgloss.Color("#6c7086"),
	border:       lipgloss.Color("#45475a"),
	foreground:   lipgloss.Color("#cdd6f4"),
	subtle:       lipgloss.Color("#a6adc8"),
	info:         lipgloss.Color("#89dceb"),
	errorColor:   lipgloss.Color("#f38ba8"),
	warning:      lipgloss.Color("#f9e2af"),
	success:      lipgloss.Color("#a6e3a1"),
	selectedText: lipgloss.Color("#1e1e2e"),
})

// ByName resolves a theme from configuration, falling back to Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha", "mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// Risk returns the style for a risk level.
func (t Theme) Risk(level model.RiskLevel) lipgloss.Style {
	switch level {
	case model.RiskDuplicate:
		return t.StatusError
	case model.RiskPotentialDuplicate:
		return t.StatusWarning
	case model.RiskLow:
		return t.StatusInfo
	default:
		return t.StatusSuccess
	}
}
