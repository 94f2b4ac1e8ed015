// Package store persists chat sessions, transcripts, and call events.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brightline-digital/concierge/internal/domain"
)

// Store is the persistence surface the rest of the service depends on.
type Store interface {
	CreateChatSession(ctx context.Context, session *domain.ChatSession) error
	GetChatSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	UpdateChatSession(ctx context.Context, session *domain.ChatSession) error
	AppendTranscript(ctx context.Context, msg *domain.TranscriptMessage) error
	ListTranscript(ctx context.Context, sessionID string, limit int) ([]domain.TranscriptMessage, error)
	CreateCallEvent(ctx context.Context, event *domain.CallEvent) error
	ListCallEvents(ctx context.Context, callID string) ([]domain.CallEvent, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			session_id TEXT PRIMARY KEY,
			thread_id TEXT,
			state TEXT NOT NULL,
			chat_turns INTEGER NOT NULL DEFAULT 0,
			name TEXT,
			phone TEXT,
			email TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transcript (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS call_events (
			event_id TEXT PRIMARY KEY,
			call_id TEXT NOT NULL,
			phone TEXT,
			type TEXT NOT NULL,
			payload TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_call_events_call ON call_events(call_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateChatSession inserts a new chat session.
func (s *SQLiteStore) CreateChatSession(ctx context.Context, session *domain.ChatSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, thread_id, state, chat_turns, name, phone, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.ThreadID, string(session.State), session.ChatTurns,
		session.Name, session.Phone, session.Email, session.CreatedAt, session.UpdatedAt)
	return err
}

// GetChatSession retrieves a chat session by ID. Returns nil when missing.
func (s *SQLiteStore) GetChatSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	var state string
	var threadID, name, phone, email sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, thread_id, state, chat_turns, name, phone, email, created_at, updated_at
		 FROM chat_sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &threadID, &state, &session.ChatTurns,
		&name, &phone, &email, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.State = domain.ChatState(state)
	session.ThreadID = threadID.String
	session.Name = name.String
	session.Phone = phone.String
	session.Email = email.String
	return &session, nil
}

// UpdateChatSession persists mutable session fields.
func (s *SQLiteStore) UpdateChatSession(ctx context.Context, session *domain.ChatSession) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET thread_id = ?, state = ?, chat_turns = ?, name = ?, phone = ?, email = ?, updated_at = ?
		 WHERE session_id = ?`,
		session.ThreadID, string(session.State), session.ChatTurns,
		session.Name, session.Phone, session.Email, session.UpdatedAt, session.SessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", session.SessionID)
	}
	return nil
}

// AppendTranscript records one chat message.
func (s *SQLiteStore) AppendTranscript(ctx context.Context, msg *domain.TranscriptMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript (message_id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.MessageID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// ListTranscript returns a session's messages, oldest first. limit <= 0
// means no limit.
func (s *SQLiteStore) ListTranscript(ctx context.Context, sessionID string, limit int) ([]domain.TranscriptMessage, error) {
	query := `SELECT message_id, session_id, role, content, created_at FROM transcript
		 WHERE session_id = ? ORDER BY created_at ASC, message_id ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.TranscriptMessage
	for rows.Next() {
		var msg domain.TranscriptMessage
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateCallEvent records one call lifecycle event.
func (s *SQLiteStore) CreateCallEvent(ctx context.Context, event *domain.CallEvent) error {
	var payload interface{}
	if len(event.Payload) > 0 {
		payload = string(event.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_events (event_id, call_id, phone, type, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.EventID, event.CallID, event.Phone, string(event.Type), payload, event.CreatedAt)
	return err
}

// ListCallEvents returns a call's events, oldest first.
func (s *SQLiteStore) ListCallEvents(ctx context.Context, callID string) ([]domain.CallEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, call_id, phone, type, payload, created_at FROM call_events
		 WHERE call_id = ? ORDER BY created_at ASC, event_id ASC`, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.CallEvent
	for rows.Next() {
		var event domain.CallEvent
		var eventType string
		var payload sql.NullString
		if err := rows.Scan(&event.EventID, &event.CallID, &event.Phone, &eventType, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Type = domain.CallEventType(eventType)
		if payload.Valid {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
