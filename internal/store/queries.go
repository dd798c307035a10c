package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Message is one text message row joined with its chat session and, for
// group chats, the sending member.
type Message struct {
	ID             int64
	Text           string
	Timestamp      float64
	FromMe         bool
	ChatName       string
	SenderJID      string
	ConversationID int64
}

// Time converts the Core Data timestamp to wall-clock time.
func (m Message) Time() time.Time {
	return time.Unix(int64(m.Timestamp)+appleEpochOffset, 0)
}

// ChatSession is one conversation row.
type ChatSession struct {
	ID   int64
	JID  string
	Name string
}

// Candidates returns text messages matching any of the LIKE patterns, newest
// first, capped at limit rows. A zero conversationID searches all chats.
// truncated reports whether more matching rows exist beyond the cap; callers
// surface that so a narrower query can be suggested.
func (s *Store) Candidates(ctx context.Context, patterns []string, conversationID int64, limit int) (msgs []Message, truncated bool, err error) {
	var b strings.Builder
	b.WriteString(`
		SELECT
			m.Z_PK,
			m.ZTEXT,
			COALESCE(m.ZMESSAGEDATE, 0),
			COALESCE(m.ZISFROMME, 0),
			COALESCE(c.ZPARTNERNAME, ''),
			CASE
				WHEN m.ZGROUPMEMBER IS NOT NULL THEN COALESCE(gm.ZMEMBERJID, '')
				ELSE COALESCE(m.ZFROMJID, '')
			END,
			COALESCE(m.ZCHATSESSION, 0)
		FROM ZWAMESSAGE m
		LEFT JOIN ZWACHATSESSION c ON m.ZCHATSESSION = c.Z_PK
		LEFT JOIN ZWAGROUPMEMBER gm ON m.ZGROUPMEMBER = gm.Z_PK
		WHERE m.ZTEXT IS NOT NULL AND m.ZTEXT != ''`)

	args := make([]interface{}, 0, len(patterns)+2)
	if conversationID != 0 {
		b.WriteString(" AND m.ZCHATSESSION = ?")
		args = append(args, conversationID)
	}
	if len(patterns) > 0 {
		clauses := make([]string, len(patterns))
		for i, p := range patterns {
			clauses[i] = `LOWER(m.ZTEXT) LIKE ? ESCAPE '\'`
			args = append(args, p)
		}
		fmt.Fprintf(&b, " AND (%s)", strings.Join(clauses, " OR "))
	}

	// Fetch one row past the cap to detect truncation.
	b.WriteString(" ORDER BY m.ZMESSAGEDATE DESC LIMIT ?")
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, false, fmt.Errorf("fetch candidates: %w", err)
	}
	defer rows.Close()

	msgs, err = scanMessages(rows)
	if err != nil {
		return nil, false, err
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
		truncated = true
	}
	return msgs, truncated, nil
}

// ConversationCount returns the number of text messages in one conversation.
func (s *Store) ConversationCount(ctx context.Context, conversationID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ZWAMESSAGE
		WHERE ZCHATSESSION = ? AND ZTEXT IS NOT NULL AND ZTEXT != ''
	`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count conversation messages: %w", err)
	}
	return n, nil
}

// ConversationWindow returns one page of a conversation's text messages,
// newest first. Callers reverse the slice to present chronological order.
func (s *Store) ConversationWindow(ctx context.Context, conversationID int64, limit, offset int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			m.Z_PK,
			m.ZTEXT,
			COALESCE(m.ZMESSAGEDATE, 0),
			COALESCE(m.ZISFROMME, 0),
			COALESCE(c.ZPARTNERNAME, ''),
			CASE
				WHEN m.ZGROUPMEMBER IS NOT NULL THEN COALESCE(gm.ZMEMBERJID, '')
				ELSE COALESCE(m.ZFROMJID, '')
			END,
			COALESCE(m.ZCHATSESSION, 0)
		FROM ZWAMESSAGE m
		LEFT JOIN ZWACHATSESSION c ON m.ZCHATSESSION = c.Z_PK
		LEFT JOIN ZWAGROUPMEMBER gm ON m.ZGROUPMEMBER = gm.Z_PK
		WHERE m.ZCHATSESSION = ? AND m.ZTEXT IS NOT NULL AND m.ZTEXT != ''
		ORDER BY m.ZMESSAGEDATE DESC
		LIMIT ? OFFSET ?
	`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation window: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.Text, &m.Timestamp, &m.FromMe,
			&m.ChatName, &m.SenderJID, &m.ConversationID,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ChatSessions returns every conversation row with its partner JID and name.
func (s *Store) ChatSessions(ctx context.Context) ([]ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT Z_PK, COALESCE(ZCONTACTJID, ''), COALESCE(ZPARTNERNAME, '')
		FROM ZWACHATSESSION
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		var c ChatSession
		if err := rows.Scan(&c.ID, &c.JID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, c)
	}
	return sessions, rows.Err()
}

// AddressBookNames returns the JID-to-full-name map from ContactsV2.sqlite.
// The contact book is optional; a missing or unreadable file yields an empty
// map rather than an error.
func (s *Store) AddressBookNames(ctx context.Context) (map[string]string, error) {
	db, err := openReadOnly(s.contactsDBPath())
	if err != nil {
		return map[string]string{}, nil
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT ZWHATSAPPID, ZFULLNAME
		FROM ZWAADDRESSBOOKCONTACT
		WHERE ZWHATSAPPID IS NOT NULL AND ZFULLNAME IS NOT NULL
	`)
	if err != nil {
		if isTableNotFound(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("fetch address book: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var waID, fullName string
		if err := rows.Scan(&waID, &fullName); err != nil {
			return nil, fmt.Errorf("scan address book contact: %w", err)
		}
		// ZWHATSAPPID stores the bare phone number; chat sessions key by JID.
		if !strings.Contains(waID, "@") {
			waID += "@s.whatsapp.net"
		}
		names[waID] = fullName
	}
	return names, rows.Err()
}
