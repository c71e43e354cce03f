// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
)

const refCodeDetailSelect = `
	SELECT rc.id, rc.code, rc.user_id, rc.is_active, rc.created_at,
		u.full_name AS owner_name, u.email AS owner_email, u.role AS owner_role,
		(SELECT COUNT(*) FROM users r WHERE r.referred_by = rc.user_id) AS referred_count
	FROM reference_codes rc
	JOIN users u ON u.id = rc.user_id`

func (s *Store) CreateReferenceCode(ctx context.Context, code, userID string) (*models.ReferenceCode, error) {
	rc := &models.ReferenceCode{
		ID:        auth.NewID(),
		Code:      strings.TrimSpace(code),
		UserID:    userID,
		IsActive:  true,
		CreatedAt: s.Now(),
	}
	_, err := s.exec(ctx, `
		INSERT INTO reference_codes (id, code, user_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rc.ID, rc.Code, rc.UserID, rc.IsActive, rc.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("reference code %s: %w", rc.Code, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert reference code: %w", err)
	}
	return rc, nil
}

// FindActiveReferenceCode looks up an active code together with its owner
func (s *Store) FindActiveReferenceCode(ctx context.Context, code string) (*models.ReferenceCodeDetail, error) {
	return s.getReferenceCode(ctx, ` WHERE rc.code = ? AND rc.is_active = ?`, strings.TrimSpace(code), true)
}

// GetReferenceCodeByCode finds a code whether or not it is active
func (s *Store) GetReferenceCodeByCode(ctx context.Context, code string) (*models.ReferenceCodeDetail, error) {
	return s.getReferenceCode(ctx, ` WHERE rc.code = ?`, strings.TrimSpace(code))
}

func (s *Store) GetReferenceCode(ctx context.Context, id string) (*models.ReferenceCodeDetail, error) {
	return s.getReferenceCode(ctx, ` WHERE rc.id = ?`, id)
}

func (s *Store) getReferenceCode(ctx context.Context, clause string, args ...interface{}) (*models.ReferenceCodeDetail, error) {
	var rc models.ReferenceCodeDetail
	err := s.get(ctx, &rc, refCodeDetailSelect+clause, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reference code: %w", err)
	}
	return &rc, nil
}

func (s *Store) ReferenceCodesByUser(ctx context.Context, userID string) ([]models.ReferenceCode, error) {
	codes := []models.ReferenceCode{}
	err := s.selectRows(ctx, &codes, `
		SELECT id, code, user_id, is_active, created_at FROM reference_codes
		WHERE user_id = ? ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference codes: %w", err)
	}
	return codes, nil
}

type ReferenceCodeFilter struct {
	Active *bool
	Search string
}

func (s *Store) ListReferenceCodes(ctx context.Context, f ReferenceCodeFilter) ([]models.ReferenceCodeDetail, error) {
	w := &where{}
	if f.Active != nil {
		w.add("rc.is_active = ?", *f.Active)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(LOWER(rc.code) LIKE ? OR LOWER(u.full_name) LIKE ? OR LOWER(u.email) LIKE ?)", p, p, p)
	}

	codes := []models.ReferenceCodeDetail{}
	err := s.selectRows(ctx, &codes, refCodeDetailSelect+w.String()+` ORDER BY rc.created_at DESC, rc.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference codes: %w", err)
	}
	return codes, nil
}

// ReferenceCodeStats counts codes; a code is used once its owner has referred someone
func (s *Store) ReferenceCodeStats(ctx context.Context) (models.ReferenceCodeStats, error) {
	var st models.ReferenceCodeStats
	err := s.get(ctx, &st, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN rc.is_active = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN rc.is_active = ? AND EXISTS (
				SELECT 1 FROM users r WHERE r.referred_by = rc.user_id
			) THEN 1 ELSE 0 END), 0) AS used
		FROM reference_codes rc
	`, true, true)
	if err != nil {
		return st, fmt.Errorf("failed to compute reference code stats: %w", err)
	}
	return st, nil
}

// UsersByReferenceCode lists the customers referred by the owner of an active code
func (s *Store) UsersByReferenceCode(ctx context.Context, code string) ([]models.User, error) {
	users := []models.User{}
	err := s.selectRows(ctx, &users, `
		SELECT `+prefixed("u", userColumns)+`
		FROM users u
		JOIN reference_codes rc ON u.referred_by = rc.user_id
		WHERE rc.code = ? AND rc.is_active = ?
		ORDER BY u.created_at DESC, u.id
	`, code, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by reference code: %w", err)
	}
	return users, nil
}

func (s *Store) SetReferenceCodeActive(ctx context.Context, id string, active bool) error {
	n, err := s.exec(ctx, `UPDATE reference_codes SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update reference code: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteReferenceCode(ctx context.Context, id string) error {
	n, err := s.exec(ctx, `DELETE FROM reference_codes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reference code: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// prefixed qualifies a comma separated column list with a table alias
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
