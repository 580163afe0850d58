package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Session types and states of the guided plan questionnaire.
const (
	SessionTypeQuestionnaire = "plan_questionnaire"

	StateAwaitingWeightGoal = "awaiting_weight_goal"
	StateAwaitingTimeframe  = "awaiting_timeframe"
)

// Session represents an active conversation step (e.g., awaiting a questionnaire answer)
type Session struct {
	ID          int64
	UserID      string
	SessionType string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionContextData holds structured data stored in the context_data JSON field
type SessionContextData struct {
	Answers map[string]string `json:"answers,omitempty"`
	ChatID  int64             `json:"chat_id"`
}

// GetContextData unmarshals the context_data JSON field
func (s *Session) GetContextData() (SessionContextData, error) {
	var data SessionContextData
	if s.ContextData == "" {
		return data, nil
	}
	err := json.Unmarshal([]byte(s.ContextData), &data)
	return data, err
}

// SessionRepository provides access to session persistence operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session and returns its ID
func (sr *SessionRepository) Create(ctx context.Context, userID, sessionType, state string, contextData SessionContextData, ttl time.Duration) (int64, error) {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session context: %w", err)
	}

	now := time.Now().UTC()
	res, err := sr.db.ExecContext(ctx, `
		INSERT INTO bot_sessions (user_id, session_type, state, context_data, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, sessionType, state, string(jsonData), now.Add(ttl), now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

// GetActive retrieves the most recent active session for a user (non-expired)
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	var s Session
	err := sr.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_type, state, context_data, expires_at, created_at
		FROM bot_sessions
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID, now.UTC(),
	).Scan(&s.ID, &s.UserID, &s.SessionType, &s.State, &s.ContextData, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &s, nil
}

// Update updates the state and context_data for a session
func (sr *SessionRepository) Update(ctx context.Context, sessionID int64, state string, contextData SessionContextData) error {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}

	_, err = sr.db.ExecContext(ctx,
		`UPDATE bot_sessions SET state = ?, context_data = ? WHERE id = ?`,
		state, string(jsonData), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %d: %w", sessionID, err)
	}
	return nil
}

// Delete removes a session
func (sr *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	if _, err := sr.db.ExecContext(ctx, `DELETE FROM bot_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", sessionID, err)
	}
	return nil
}

// DeleteForUser removes every session of the user, expired or not.
func (sr *SessionRepository) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := sr.db.ExecContext(ctx, `DELETE FROM bot_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions of %s: %w", userID, err)
	}
	return nil
}

// CleanupExpired removes all expired sessions and reports how many were deleted.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM bot_sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
