package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

const fixtureSchema = `
CREATE TABLE ZWAMESSAGE (
	Z_PK INTEGER PRIMARY KEY,
	ZTEXT TEXT,
	ZMESSAGEDATE REAL,
	ZISFROMME INTEGER,
	ZFROMJID TEXT,
	ZCHATSESSION INTEGER,
	ZGROUPMEMBER INTEGER
);
CREATE TABLE ZWACHATSESSION (
	Z_PK INTEGER PRIMARY KEY,
	ZPARTNERNAME TEXT,
	ZCONTACTJID TEXT
);
CREATE TABLE ZWAGROUPMEMBER (
	Z_PK INTEGER PRIMARY KEY,
	ZMEMBERJID TEXT
);
`

// newTestStore writes a fixture database to a temp file and reopens it
// through Open so tests exercise the same read-only path as production.
func newTestStore(t *testing.T, seed func(db *sql.DB)) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ChatStorage.sqlite")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	if _, err := db.Exec(fixtureSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if seed != nil {
		seed(db)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func seedConversations(t *testing.T) func(db *sql.DB) {
	return func(db *sql.DB) {
		mustExec(t, db, `INSERT INTO ZWACHATSESSION VALUES (1, 'Alice', '447700900001@s.whatsapp.net')`)
		mustExec(t, db, `INSERT INTO ZWACHATSESSION VALUES (2, 'Team Lunch', '12036@g.us')`)
		mustExec(t, db, `INSERT INTO ZWAGROUPMEMBER VALUES (7, '447700900002@s.whatsapp.net')`)

		mustExec(t, db, `INSERT INTO ZWAMESSAGE VALUES (1, 'pizza tonight?', 100, 0, '447700900001@s.whatsapp.net', 1, NULL)`)
		mustExec(t, db, `INSERT INTO ZWAMESSAGE VALUES (2, 'sure, pizzza works', 200, 1, NULL, 1, NULL)`)
		mustExec(t, db, `INSERT INTO ZWAMESSAGE VALUES (3, 'meeting moved', 300, 0, '12036@g.us', 2, 7)`)
		mustExec(t, db, `INSERT INTO ZWAMESSAGE VALUES (4, NULL, 400, 0, NULL, 1, NULL)`)
		mustExec(t, db, `INSERT INTO ZWAMESSAGE VALUES (5, '', 500, 0, NULL, 1, NULL)`)
	}
}

func TestOpenRejectsNonWhatsAppDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	mustExec(t, db, `CREATE TABLE notes (id INTEGER PRIMARY KEY)`)
	db.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("Open succeeded on a database without ZWAMESSAGE")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.sqlite")); err == nil {
		t.Fatal("Open succeeded on a missing file")
	}
}

func TestCandidatesFiltersAndJoins(t *testing.T) {
	s := newTestStore(t, seedConversations(t))

	msgs, truncated, err := s.Candidates(context.Background(), []string{"%pizz%"}, 0, 100)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if truncated {
		t.Error("truncated = true, want false")
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	// Newest first.
	if msgs[0].ID != 2 || msgs[1].ID != 1 {
		t.Errorf("got order %d,%d, want 2,1", msgs[0].ID, msgs[1].ID)
	}
	if msgs[1].ChatName != "Alice" {
		t.Errorf("ChatName = %q, want %q", msgs[1].ChatName, "Alice")
	}
	if !msgs[0].FromMe {
		t.Error("msg 2 FromMe = false, want true")
	}
}

func TestCandidatesGroupSenderJID(t *testing.T) {
	s := newTestStore(t, seedConversations(t))

	msgs, _, err := s.Candidates(context.Background(), []string{"%meeting%"}, 0, 100)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	if msgs[0].SenderJID != "447700900002@s.whatsapp.net" {
		t.Errorf("SenderJID = %q, want group member JID", msgs[0].SenderJID)
	}
}

func TestCandidatesConversationScope(t *testing.T) {
	s := newTestStore(t, seedConversations(t))

	msgs, _, err := s.Candidates(context.Background(), nil, 1, 100)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	for _, m := range msgs {
		if m.ConversationID != 1 {
			t.Errorf("message %d in conversation %d, want 1", m.ID, m.ConversationID)
		}
		if m.Text == "" {
			t.Errorf("message %d has empty text", m.ID)
		}
	}
	if len(msgs) != 2 {
		t.Errorf("len(msgs) = %d, want 2", len(msgs))
	}
}

func TestCandidatesTruncation(t *testing.T) {
	s := newTestStore(t, func(db *sql.DB) {
		for i := 1; i <= 5; i++ {
			mustExec(t, db, `INSERT INTO ZWAMESSAGE VALUES (?, 'hello there', ?, 0, NULL, 1, NULL)`, i, i*100)
		}
	})

	msgs, truncated, err := s.Candidates(context.Background(), []string{"%hello%"}, 0, 3)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if !truncated {
		t.Error("truncated = false, want true")
	}
	if len(msgs) != 3 {
		t.Errorf("len(msgs) = %d, want 3", len(msgs))
	}
}

func TestConversationWindowAndCount(t *testing.T) {
	s := newTestStore(t, seedConversations(t))
	ctx := context.Background()

	n, err := s.ConversationCount(ctx, 1)
	if err != nil {
		t.Fatalf("ConversationCount: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	msgs, err := s.ConversationWindow(ctx, 1, 1, 1)
	if err != nil {
		t.Fatalf("ConversationWindow: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != 1 {
		t.Errorf("window = %+v, want single message 1", msgs)
	}
}

func TestChatSessions(t *testing.T) {
	s := newTestStore(t, seedConversations(t))

	sessions, err := s.ChatSessions(context.Background())
	if err != nil {
		t.Fatalf("ChatSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
}

func TestAddressBookNamesMissingFile(t *testing.T) {
	s := newTestStore(t, nil)

	names, err := s.AddressBookNames(context.Background())
	if err != nil {
		t.Fatalf("AddressBookNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("len(names) = %d, want 0", len(names))
	}
}

func TestAddressBookNames(t *testing.T) {
	s := newTestStore(t, nil)

	path := filepath.Join(filepath.Dir(s.Path()), contactsDBName)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open contacts fixture: %v", err)
	}
	mustExec(t, db, `CREATE TABLE ZWAADDRESSBOOKCONTACT (Z_PK INTEGER PRIMARY KEY, ZWHATSAPPID TEXT, ZFULLNAME TEXT)`)
	mustExec(t, db, `INSERT INTO ZWAADDRESSBOOKCONTACT VALUES (1, '447700900001', 'John Smith')`)
	mustExec(t, db, `INSERT INTO ZWAADDRESSBOOKCONTACT VALUES (2, NULL, 'No ID')`)
	db.Close()

	names, err := s.AddressBookNames(context.Background())
	if err != nil {
		t.Fatalf("AddressBookNames: %v", err)
	}
	if got := names["447700900001@s.whatsapp.net"]; got != "John Smith" {
		t.Errorf("names[jid] = %q, want %q", got, "John Smith")
	}
	if len(names) != 1 {
		t.Errorf("len(names) = %d, want 1", len(names))
	}
}

func TestMessageTime(t *testing.T) {
	m := Message{Timestamp: 0}
	if got := m.Time().UTC().Year(); got != 2001 {
		t.Errorf("epoch year = %d, want 2001", got)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t, seedConversations(t))

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.MessageCount != 5 {
		t.Errorf("MessageCount = %d, want 5", stats.MessageCount)
	}
	if stats.TextMessageCount != 3 {
		t.Errorf("TextMessageCount = %d, want 3", stats.TextMessageCount)
	}
	if stats.ConversationCount != 2 {
		t.Errorf("ConversationCount = %d, want 2", stats.ConversationCount)
	}
	if stats.NamedConversationCount != 2 {
		t.Errorf("NamedConversationCount = %d, want 2", stats.NamedConversationCount)
	}
}
