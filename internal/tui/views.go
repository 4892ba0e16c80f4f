package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.config.Theme.Subtitle.Render("Loading pending top-ups...")
	}

	sections := []string{m.renderHeader()}
	if len(m.topUps) == 0 {
		sections = append(sections, m.config.Theme.Subtitle.Render("The pending queue is empty."))
	} else {
		sections = append(sections, m.table.View(), m.renderDetail())
	}
	if m.state != StateBrowse {
		sections = append(sections, m.input.View())
	}
	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	theme := m.config.Theme
	title := theme.Title.Render(cli.WalletIcon + " Pending top-ups")
	counts := theme.Subtitle.Render(fmt.Sprintf(
		"  %d waiting · %d approved · %d rejected this session",
		len(m.topUps), m.approved, m.rejected,
	))
	return title + counts
}

func (m Model) renderDetail() string {
	t, ok := m.Selected()
	if !ok {
		return ""
	}
	theme := m.config.Theme

	line := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return theme.Label.Render(label) + theme.Normal.Render(value)
	}

	lines := []string{
		line("Amount", cli.FormatAmount(t)),
		line("Sender", t.SenderName),
		line("Credit to", m.Target(t)),
		line("Source", sourceLabel(t)),
		line("Received", t.EffectiveTime().Local().Format("2006-01-02 15:04")),
		theme.Label.Render("Risk") + theme.Risk(t.RiskLevel).Render(riskLabel(t)),
	}
	if t.EmailSubject != "" {
		lines = append(lines, line("Subject", cli.Truncate(t.EmailSubject, 60)))
	}
	if t.EmailExcerpt != "" {
		excerpt := strings.Join(strings.Fields(t.EmailExcerpt), " ")
		lines = append(lines, line("Excerpt", cli.Truncate(excerpt, 120)))
	}
	if t.Notes != "" {
		lines = append(lines, line("Notes", t.Notes))
	}

	width := max(m.width-4, 40)
	return theme.RoundedBox.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	theme := m.config.Theme
	if m.lastErr != nil {
		return theme.StatusError.Render(cli.ErrorIcon + " " + cli.ErrorMessage(m.lastErr))
	}
	if m.status != "" {
		return theme.StatusSuccess.Render(m.status)
	}
	return ""
}

func sourceLabel(t model.TopUp) string {
	if t.Source == model.SourceGmail && t.EmailFrom != "" {
		return fmt.Sprintf("%s (%s, %s)", t.Source, t.EmailFrom, t.AIParsedData.Method)
	}
	return string(t.Source)
}

func riskLabel(t model.TopUp) string {
	if len(t.RiskMatches) == 0 {
		return string(t.RiskLevel)
	}
	short := make([]string, 0, len(t.RiskMatches))
	for _, id := range t.RiskMatches {
		short = append(short, cli.ShortID(id))
	}
	return fmt.Sprintf("%s (matches %s)", t.RiskLevel, strings.Join(short, ", "))
}
