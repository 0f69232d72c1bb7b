package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/richinex/taskpilot/llm"
)

// SessionStore persists chat transcripts keyed by session id.
type SessionStore struct {
	db *sql.DB
}

// Save replaces the stored transcript for a session. Only plain text
// messages are persisted: tool results and assistant tool requests are
// skipped entirely, since a reloaded transcript cannot carry the call-id
// correlation the providers require between them.
func (s *SessionStore) Save(ctx context.Context, sessionID string, messages []llm.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id) VALUES (?)
		 ON CONFLICT(session_id) DO UPDATE SET updated_at = datetime('now')`,
		sessionID); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	for i, msg := range messages {
		if msg.Content == "" || msg.Role == llm.RoleTool || len(msg.ToolCalls) > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, message_index, role, content) VALUES (?, ?, ?, ?)`,
			sessionID, i, msg.Role, msg.Content); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

// Load returns the stored transcript for a session, oldest first.
func (s *SessionStore) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY message_index`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var msg llm.Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// List returns known session ids, most recently updated first.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
