package tui

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
	"github.com/mmahmad/whatsapp-cli-macos/internal/store"
)

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ChatStorage.sqlite")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	stmts := []string{
		`CREATE TABLE ZWAMESSAGE (Z_PK INTEGER PRIMARY KEY, ZTEXT TEXT, ZMESSAGEDATE REAL, ZISFROMME INTEGER, ZFROMJID TEXT, ZCHATSESSION INTEGER, ZGROUPMEMBER INTEGER)`,
		`CREATE TABLE ZWACHATSESSION (Z_PK INTEGER PRIMARY KEY, ZPARTNERNAME TEXT, ZCONTACTJID TEXT)`,
		`CREATE TABLE ZWAGROUPMEMBER (Z_PK INTEGER PRIMARY KEY, ZMEMBERJID TEXT)`,
		`INSERT INTO ZWACHATSESSION VALUES (1, 'Alice', 'a@s.whatsapp.net')`,
		`INSERT INTO ZWAMESSAGE VALUES (1, 'pizza tonight?', 100, 0, 'a@s.whatsapp.net', 1, NULL)`,
		`INSERT INTO ZWAMESSAGE VALUES (2, 'more pizza talk', 200, 0, 'a@s.whatsapp.net', 1, NULL)`,
		`INSERT INTO ZWAMESSAGE VALUES (3, 'pizza again', 300, 0, 'a@s.whatsapp.net', 1, NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	db.Close()

	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	eng, err := engine.New(s, engine.Options{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(eng, opts)
}

// load runs the pending page load and applies its message.
func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.loadPage()()
	if e, ok := msg.(errMsg); ok {
		t.Fatalf("loadPage: %v", e.err)
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyPress(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestLoadAndRender(t *testing.T) {
	m := newTestModel(t, Options{Params: engine.SearchParams{Query: "pizza", PageSize: 2}})
	m = load(t, m)

	if m.loading || m.page == nil {
		t.Fatal("page not loaded")
	}
	if m.page.TotalMatches != 3 {
		t.Fatalf("TotalMatches = %d, want 3", m.page.TotalMatches)
	}
	view := m.View()
	if !strings.Contains(view, "pizza") {
		t.Error("view does not show results")
	}
	if !strings.Contains(view, "Page 1/2") {
		t.Errorf("view missing pagination footer:\n%s", view)
	}
}

func TestNextAndPrevPage(t *testing.T) {
	m := newTestModel(t, Options{Params: engine.SearchParams{Query: "pizza", PageSize: 2}})
	m = load(t, m)

	m, cmd := keyPress(m, "n")
	if cmd == nil {
		t.Fatal("next page did not trigger a load")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.page.Page != 2 {
		t.Fatalf("Page = %d, want 2", m.page.Page)
	}

	// Past the last page just flashes.
	m, _ = keyPress(m, "n")
	if m.flash == "" {
		t.Error("no flash at last page")
	}

	m, cmd = keyPress(m, "p")
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.page.Page != 1 {
		t.Fatalf("Page = %d, want 1", m.page.Page)
	}
	m, _ = keyPress(m, "p")
	if m.flash == "" {
		t.Error("no flash at first page")
	}
}

func TestSortToggleResetsPage(t *testing.T) {
	m := newTestModel(t, Options{Params: engine.SearchParams{Query: "pizza", PageSize: 2, Page: 2}})
	m = load(t, m)

	m, cmd := keyPress(m, "t")
	if m.params.Sort != engine.SortTime {
		t.Errorf("Sort = %v, want time", m.params.Sort)
	}
	if m.params.Page != 1 {
		t.Errorf("Page = %d, want reset to 1", m.params.Page)
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.page == nil || m.loading {
		t.Fatal("page not reloaded after sort toggle")
	}
}

func TestGotoPagePrompt(t *testing.T) {
	m := newTestModel(t, Options{Params: engine.SearchParams{Query: "pizza", PageSize: 1}})
	m = load(t, m)

	m, _ = keyPress(m, "g")
	if m.inputMode != inputGotoPage {
		t.Fatal("goto prompt did not open")
	}
	m, _ = keyPress(m, "3")
	m, cmd := keyPress(m, "enter")
	if m.inputMode != inputNone {
		t.Error("prompt still open after enter")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.page.Page != 3 {
		t.Errorf("Page = %d, want 3", m.page.Page)
	}
}

func TestBadPromptInputFlashes(t *testing.T) {
	m := newTestModel(t, Options{Params: engine.SearchParams{Query: "pizza"}})
	m = load(t, m)

	m, _ = keyPress(m, "g")
	m, _ = keyPress(m, "x")
	m, _ = keyPress(m, "enter")
	if m.flash == "" {
		t.Error("no flash for non-numeric page input")
	}
}

func TestContactScopedHeader(t *testing.T) {
	m := newTestModel(t, Options{
		Contact: "alice",
		Params:  engine.SearchParams{Query: "pizza"},
	})
	m = load(t, m)

	if m.resolvedTo == nil || m.resolvedTo.Name != "Alice" {
		t.Fatalf("resolvedTo = %+v, want Alice", m.resolvedTo)
	}
	if !strings.Contains(m.View(), "in Alice") {
		t.Error("header does not show resolved contact")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, Options{Params: engine.SearchParams{Query: "pizza"}})
	m = load(t, m)

	m, cmd := keyPress(m, "q")
	if cmd == nil {
		t.Fatal("quit did not return a command")
	}
	if m.View() != "" {
		t.Error("view not empty while quitting")
	}
}
