package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Session represents an active conversational state for a user, such as
// waiting for free-text formula feedback after /customize.
type Session struct {
	ID          int64
	UserID      string
	SessionType string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionContextData holds structured data stored in the context_data JSON field.
type SessionContextData struct {
	FormulaID       string `json:"formula_id"`
	OriginalRequest string `json:"original_request"`
}

// SessionRepository provides access to session persistence operations.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session and returns its ID.
func (sr *SessionRepository) Create(ctx context.Context, userID, sessionType, state string, contextData SessionContextData, ttlSeconds int) (int64, error) {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(ttlSeconds) * time.Second)

	res, err := sr.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, session_type, state, context_data, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, sessionType, state, string(jsonData),
		expiresAt.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

// GetActive retrieves the most recent non-expired session for a user,
// or nil when the user has none.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	row := sr.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_type, state, context_data, expires_at, created_at
		FROM sessions
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, now.UTC().Format(time.RFC3339),
	)

	var s Session
	var expiresAt, createdAt string
	err := row.Scan(&s.ID, &s.UserID, &s.SessionType, &s.State, &s.ContextData, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	if s.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to parse session expiry: %w", err)
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse session creation time: %w", err)
	}
	return &s, nil
}

// GetContextData unmarshals the context_data JSON field.
func (s *Session) GetContextData() (SessionContextData, error) {
	var data SessionContextData
	err := json.Unmarshal([]byte(s.ContextData), &data)
	return data, err
}

// Delete removes a session.
func (sr *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// CleanupExpired removes all expired sessions.
func (sr *SessionRepository) CleanupExpired(ctx context.Context) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339))
	return err
}
