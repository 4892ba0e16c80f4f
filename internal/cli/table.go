package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// Cell is a table value with an optional style.
type Cell struct {
	Style *lipgloss.Style
	Text  string
}

// Plain makes an unstyled cell.
func Plain(text string) Cell { return Cell{Text: text} }

// Styled makes a cell rendered with style.
func Styled(text string, style lipgloss.Style) Cell { return Cell{Text: text, Style: &style} }

// RenderTable lays out rows in padded columns. Widths are measured on the
// unstyled text so colors do not skew alignment.
func RenderTable(headers []string, rows [][]Cell) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c.Text))
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(TableHeaderStyle.Render(pad(h, widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			text := pad(c.Text, widths[i])
			if c.Style != nil {
				text = c.Style.Render(text)
			}
			b.WriteString(text)
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// TopUpTable renders a queue listing.
func TopUpTable(topUps []model.TopUp) string {
	headers := []string{"ID", "RECEIVED", "AMOUNT", "SENDER", "REFERENCE", "SOURCE", "STATUS", "RISK"}
	rows := make([][]Cell, 0, len(topUps))
	for _, t := range topUps {
		rows = append(rows, []Cell{
			Plain(ShortID(t.ID)),
			Plain(t.EffectiveTime().Local().Format("2006-01-02 15:04")),
			Plain(FormatAmount(t)),
			Plain(Truncate(t.SenderName, 24)),
			Plain(Truncate(t.BankReference, 16)),
			Plain(string(t.Source)),
			Styled(string(t.Status), StatusStyle(t.Status)),
			Styled(string(t.RiskLevel), RiskStyle(t.RiskLevel)),
		})
	}
	return RenderTable(headers, rows)
}

// FormatAmount renders an amount with its currency.
func FormatAmount(t model.TopUp) string {
	return fmt.Sprintf("%s %s", t.Amount.StringFixed(2), t.Currency)
}

// ShortID abbreviates a uuid for tables.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Truncate shortens s to n runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
