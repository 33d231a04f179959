package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"personal-tracker/internal/models"
	"personal-tracker/internal/sessions"
)

// SessionStore keeps sessions in the sessions table.
type SessionStore struct {
	db *DB
}

var _ sessions.Store = (*SessionStore)(nil)

// Sessions returns the SQL-backed session store.
func (db *DB) Sessions() *SessionStore {
	return &SessionStore{db: db}
}

// Create creates a new session for a user.
func (s *SessionStore) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	now := time.Now()
	_, err := s.db.exec(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Lookup returns an unexpired session by token.
func (s *SessionStore) Lookup(ctx context.Context, token string) (*models.Session, error) {
	var expiresAt, lastActivity int64
	sess := models.Session{Token: token}
	err := s.db.queryRow(ctx,
		"SELECT user_id, expires_at, last_activity FROM sessions WHERE token = ? AND expires_at > ?",
		token, time.Now().UnixMilli(),
	).Scan(&sess.UserID, &expiresAt, &lastActivity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessions.ErrNoSession
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	sess.ExpiresAt = time.UnixMilli(expiresAt)
	sess.LastActivity = time.UnixMilli(lastActivity)
	return &sess, nil
}

// Renew updates the last_activity and expires_at for a session.
func (s *SessionStore) Renew(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := s.db.exec(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().UnixMilli(), expiresAt.UnixMilli(), token,
	)
	return err
}

// Delete removes a session by token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.exec(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpired removes all expired sessions and reports how many were removed.
func (s *SessionStore) CleanExpired(ctx context.Context) (int64, error) {
	res, err := s.db.exec(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clean sessions: %w", err)
	}
	return res.RowsAffected()
}
