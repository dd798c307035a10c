// Package store provides read-only access to the WhatsApp macOS message
// database (ChatStorage.sqlite) and the optional contact book
// (ContactsV2.sqlite). The database is owned by WhatsApp itself, so every
// connection is opened read-only at the driver level.
package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const contactsDBName = "ContactsV2.sqlite"

// appleEpochOffset converts Core Data timestamps (seconds since 2001-01-01)
// to Unix seconds.
const appleEpochOffset = 978307200

// groupContainers lists the macOS group containers WhatsApp has shipped its
// database under, newest first.
var groupContainers = []string{
	"group.net.whatsapp.WhatsApp.shared",
	"group.net.whatsapp.WhatsApp.private",
	"group.net.whatsapp.family",
}

// NoDatabaseError reports that no WhatsApp database was found at any of the
// known locations.
type NoDatabaseError struct {
	Checked []string
}

func (e *NoDatabaseError) Error() string {
	var b strings.Builder
	b.WriteString("no WhatsApp database found; checked:\n")
	for _, p := range e.Checked {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	b.WriteString("is WhatsApp Desktop installed and signed in?")
	return b.String()
}

// Discover locates ChatStorage.sqlite under the known WhatsApp group
// containers in the current user's home directory.
func Discover() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	checked := make([]string, 0, len(groupContainers))
	for _, container := range groupContainers {
		path := filepath.Join(home, "Library", "Group Containers", container, "ChatStorage.sqlite")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		checked = append(checked, path)
	}
	return "", &NoDatabaseError{Checked: checked}
}

// Store provides read-only query access to one WhatsApp database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens the database at dbPath read-only and verifies it looks like a
// WhatsApp message store.
func Open(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("stat database: %w", err)
	}

	db, err := openReadOnly(dbPath)
	if err != nil {
		return nil, err
	}

	var n int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='ZWAMESSAGE'`,
	).Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("inspect database schema: %w", err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("%s is not a WhatsApp message database (no ZWAMESSAGE table)", dbPath)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// openReadOnly opens a SQLite database with write access disabled at the
// connection level, so no code path can mutate WhatsApp's data.
func openReadOnly(path string) (*sql.DB, error) {
	u := url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     path,
		RawQuery: "mode=ro&_busy_timeout=5000",
	}
	db, err := sql.Open("sqlite3", u.String())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path the store was opened from.
func (s *Store) Path() string {
	return s.dbPath
}

// contactsDBPath returns the expected location of ContactsV2.sqlite, which
// lives in the same directory as ChatStorage.sqlite.
func (s *Store) contactsDBPath() string {
	return filepath.Join(filepath.Dir(s.dbPath), contactsDBName)
}

// Stats summarizes the message store.
type Stats struct {
	MessageCount           int64
	TextMessageCount       int64
	ConversationCount      int64
	NamedConversationCount int64
}

// GetStats returns database-wide counts. Missing tables count as zero so a
// partially populated store still reports what it has.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		dest  *int64
		query string
	}{
		{&stats.MessageCount, `SELECT COUNT(*) FROM ZWAMESSAGE`},
		{&stats.TextMessageCount, `SELECT COUNT(*) FROM ZWAMESSAGE WHERE ZTEXT IS NOT NULL AND LENGTH(ZTEXT) > 0`},
		{&stats.ConversationCount, `SELECT COUNT(*) FROM ZWACHATSESSION`},
		{&stats.NamedConversationCount, `SELECT COUNT(*) FROM ZWACHATSESSION WHERE ZPARTNERNAME IS NOT NULL`},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			if isTableNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("query stats: %w", err)
		}
	}
	return stats, nil
}

func isTableNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
