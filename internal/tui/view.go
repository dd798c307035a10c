package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	senderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	flashStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
			Border(lipgloss.NormalBorder(), true, false, false, false)
)

const timeLayout = "2006-01-02 15:04"

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("Searching...\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.page == nil || len(m.page.Results) == 0:
		b.WriteString("No matches.\n")
	default:
		for _, r := range m.page.Results {
			meta := fmt.Sprintf("%s  %s", r.Timestamp.Format(timeLayout), r.ChatName)
			b.WriteString(scoreStyle.Render(fmt.Sprintf("[%3d]", r.Score)))
			b.WriteString(" " + metaStyle.Render(meta) + "\n")
			textWidth := width - 8 - runewidth.StringWidth(r.Sender)
			if textWidth < 10 {
				textWidth = 10
			}
			b.WriteString("      " + senderStyle.Render(r.Sender) + ": ")
			b.WriteString(runewidth.Truncate(r.Text, textWidth, "…") + "\n")
		}
	}

	if m.inputMode != inputNone {
		b.WriteString("\n" + m.promptLabel() + m.input.View() + "\n")
	}
	if m.flash != "" {
		b.WriteString("\n" + flashStyle.Render(m.flash) + "\n")
	}
	b.WriteString(footerStyle.Width(width).Render(m.footerLine()))
	return b.String()
}

func (m Model) headerLine() string {
	title := fmt.Sprintf("wasearch  %q", m.params.Query)
	if m.resolvedTo != nil {
		title += fmt.Sprintf("  in %s", m.resolvedTo.Name)
	}
	title += fmt.Sprintf("  (sort: %s)", m.params.Sort)
	if m.page != nil && m.page.Truncated {
		title += "  [capped: narrow your query for full coverage]"
	}
	return titleStyle.Render(title)
}

func (m Model) footerLine() string {
	status := ""
	if m.page != nil {
		status = fmt.Sprintf("Page %d/%d  %d matches   ",
			m.page.Page, m.page.TotalPages, m.page.TotalMatches)
	}
	return status + "n/p page  g goto  l size  t sort  r reload  c clear cache  q quit"
}

func (m Model) promptLabel() string {
	switch m.inputMode {
	case inputGotoPage:
		return "Go to page: "
	case inputPageSize:
		return "Page size: "
	default:
		return ""
	}
}
