package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
)

// handleKeys handles navigation keys when no prompt is active.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "n", "right", "pgdown":
		if m.page == nil || !m.page.HasMore {
			return m.showFlash("Last page")
		}
		m.params.Page++
		m.loading = true
		return m, m.loadPage()

	case "p", "left", "pgup":
		if m.params.Page <= 1 {
			return m.showFlash("First page")
		}
		m.params.Page--
		m.loading = true
		return m, m.loadPage()

	case "g":
		return m.openPrompt(inputGotoPage, "page number")

	case "l":
		return m.openPrompt(inputPageSize, "page size")

	// Toggle sort mode; the new signature recomputes from the cache or store.
	case "t":
		if m.params.Sort == engine.SortTime {
			m.params.Sort = engine.SortRelevance
		} else {
			m.params.Sort = engine.SortTime
		}
		m.params.Page = 1
		m.loading = true
		return m, m.loadPage()

	// Reload the current page.
	case "r":
		m.loading = true
		return m, m.loadPage()

	case "c":
		m.engine.ClearCache()
		m.loading = true
		return m, tea.Batch(m.loadPage(), func() tea.Msg {
			return flashMsg{"Cache cleared"}
		})
	}
	return m, nil
}

// handleInputKeys handles keys while a numeric prompt is active.
func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		mode := m.inputMode
		value := m.input.Value()
		m.inputMode = inputNone
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return m.showFlash("Enter a positive number")
		}
		switch mode {
		case inputGotoPage:
			m.params.Page = n
		case inputPageSize:
			m.params.PageSize = n
			m.params.Page = 1
		}
		m.loading = true
		return m, m.loadPage()

	case "esc", "ctrl+c":
		m.inputMode = inputNone
		return m, nil

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) openPrompt(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	m.input = textinput.New()
	m.input.Placeholder = placeholder
	m.input.CharLimit = 6
	m.input.Width = 10
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) showFlash(text string) (tea.Model, tea.Cmd) {
	m.flash = text
	return m, nil
}
