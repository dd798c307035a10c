// Package tui provides the interactive results pager for wasearch.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
)

// inputMode tracks which prompt, if any, owns the keyboard.
type inputMode int

const (
	inputNone inputMode = iota
	inputGotoPage
	inputPageSize
)

// Options configures the pager.
type Options struct {
	// Contact scopes the search to one contact's conversation when set.
	Contact string
	Params  engine.SearchParams
}

// pageLoadedMsg delivers a completed search page.
type pageLoadedMsg struct {
	page    *engine.SearchPage
	contact *engine.ResolvedContact
}

// errMsg delivers a failed load.
type errMsg struct {
	err error
}

// flashMsg shows a transient status line.
type flashMsg struct {
	text string
}

// Model is the pager model following the Elm architecture.
type Model struct {
	engine  *engine.Engine
	contact string
	params  engine.SearchParams

	page       *engine.SearchPage
	resolvedTo *engine.ResolvedContact
	loading    bool
	err        error
	flash      string
	quitting   bool
	inputMode  inputMode
	input      textinput.Model
	width      int
	height     int
}

// New creates a pager over an engine.
func New(eng *engine.Engine, opts Options) Model {
	return Model{
		engine:  eng,
		contact: opts.Contact,
		params:  opts.Params,
		loading: true,
	}
}

// Run starts the pager and blocks until the user quits.
func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(New(eng, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadPage()
}

// loadPage runs the current search parameters against the engine.
func (m Model) loadPage() tea.Cmd {
	contact, params, eng := m.contact, m.params, m.engine
	return func() tea.Msg {
		ctx := context.Background()
		if contact != "" {
			page, err := eng.SearchInContact(ctx, contact, params)
			if err != nil {
				return errMsg{err}
			}
			return pageLoadedMsg{page: &page.SearchPage, contact: &page.Contact}
		}
		page, err := eng.Search(ctx, params)
		if err != nil {
			return errMsg{err}
		}
		return pageLoadedMsg{page: page}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pageLoadedMsg:
		m.page = msg.page
		if msg.contact != nil {
			m.resolvedTo = msg.contact
		}
		m.loading = false
		m.err = nil
		m.params.Page = msg.page.Page
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case flashMsg:
		m.flash = msg.text
		return m, nil

	case tea.KeyMsg:
		m.flash = ""
		if m.inputMode != inputNone {
			return m.handleInputKeys(msg)
		}
		return m.handleKeys(msg)
	}
	return m, nil
}
