// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
)

func (s *Store) LogEmail(ctx context.Context, l *models.EmailLog) error {
	if l.ID == "" {
		l.ID = auth.NewID()
	}
	l.CreatedAt = s.Now()
	_, err := s.exec(ctx, `
		INSERT INTO email_logs (id, to_email, subject, body, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.ToEmail, l.Subject, l.Body, l.Status, l.ErrorMessage, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert email log: %w", err)
	}
	return nil
}

// RecentEmails returns the newest email log entries
func (s *Store) RecentEmails(ctx context.Context, limit int) ([]models.EmailLog, error) {
	logs := []models.EmailLog{}
	err := s.selectRows(ctx, &logs, `
		SELECT id, to_email, subject, COALESCE(body, '') AS body, status, error_message, created_at
		FROM email_logs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	return logs, nil
}
