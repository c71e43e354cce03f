// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rajin-257/Hospx-Saas/models"
)

// SessionTTL is how long a session lives after its last use
const SessionTTL = 24 * time.Hour

// CreateSession stores a session keyed by the hashed token
func (s *Store) CreateSession(ctx context.Context, id, userID string) (*models.Session, error) {
	now := s.Now()
	sess := &models.Session{ID: id, UserID: userID, ExpiresAt: now.Add(SessionTTL), CreatedAt: now}
	_, err := s.exec(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)
	`, sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

// GetSession returns an unexpired session
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.get(ctx, &sess, `
		SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ? AND expires_at > ?
	`, id, s.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &sess, nil
}

// TouchSession pushes the expiry SessionTTL past now
func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.exec(ctx, `UPDATE sessions SET expires_at = ? WHERE id = ?`, s.Now().Add(SessionTTL), id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions ends every session of a user
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := s.exec(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
