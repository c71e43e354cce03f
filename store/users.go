// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
)

const userColumns = `id, full_name, email, phone, password, role, status, reference_code, referred_by,
	commission_percentage, commission_fixed, commission_type, password_reset_token,
	password_reset_expires, created_at, updated_at`

var (
	defaultCommissionPercentage = decimal.NewFromInt(10)
	defaultCommissionFixed      = decimal.NewFromInt(50)
)

// CreateUser inserts u, filling ID, defaults and timestamps
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := s.Now()
	if u.ID == "" {
		u.ID = auth.NewID()
	}
	u.Email = normalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.UserActive
	}
	if u.CommissionType == "" {
		u.CommissionType = models.CommissionPercentage
	}
	if u.CommissionPercentage.IsZero() {
		u.CommissionPercentage = defaultCommissionPercentage
	}
	if u.CommissionFixed.IsZero() {
		u.CommissionFixed = defaultCommissionFixed
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.FullName, u.Email, u.Phone, u.PasswordHash, u.Role, u.Status, u.ReferenceCode,
		u.ReferredBy, u.CommissionPercentage, u.CommissionFixed, u.CommissionType,
		u.PasswordResetToken, u.PasswordResetExpires, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return &u, nil
}

// EmailExists reports whether an account uses email
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE email = ?`, normalizeEmail(email)); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

type UserFilter struct {
	Role       string
	Status     string
	Search     string
	ReferredBy string
}

func (f UserFilter) where() *where {
	w := &where{}
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.ReferredBy != "" {
		w.add("referred_by = ?", f.ReferredBy)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", p, p, p)
	}
	return w
}

// ListUsers returns one page of users matching f, newest first, and the total count
func (s *Store) ListUsers(ctx context.Context, f UserFilter, p Page) ([]models.User, int, error) {
	w := f.where()

	var total int
	if err := s.get(ctx, &total, `SELECT COUNT(*) FROM users`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []models.User{}
	args := append(w.args, p.Limit(), p.Offset())
	err := s.selectRows(ctx, &users,
		`SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UserUpdate carries the fields an administrator may change; nil means unchanged
type UserUpdate struct {
	FullName             *string
	Email                *string
	Phone                *string
	Status               *string
	CommissionPercentage *decimal.Decimal
	CommissionFixed      *decimal.Decimal
	CommissionType       *string
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd UserUpdate) error {
	var sets []string
	var args []interface{}

	if upd.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, strings.TrimSpace(*upd.FullName))
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, normalizeEmail(*upd.Email))
	}
	if upd.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, strings.TrimSpace(*upd.Phone))
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.CommissionPercentage != nil {
		sets = append(sets, "commission_percentage = ?")
		args = append(args, *upd.CommissionPercentage)
	}
	if upd.CommissionFixed != nil {
		sets = append(sets, "commission_fixed = ?")
		args = append(args, *upd.CommissionFixed)
	}
	if upd.CommissionType != nil {
		sets = append(sets, "commission_type = ?")
		args = append(args, *upd.CommissionType)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, s.Now(), id)

	n, err := s.exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("email: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	return s.updateUserColumn(ctx, id, "role", role)
}

func (s *Store) SetUserStatus(ctx context.Context, id, status string) error {
	return s.updateUserColumn(ctx, id, "status", status)
}

func (s *Store) SetPassword(ctx context.Context, id, hash string) error {
	return s.updateUserColumn(ctx, id, "password", hash)
}

func (s *Store) SetReferenceCode(ctx context.Context, id, code string) error {
	return s.updateUserColumn(ctx, id, "reference_code", code)
}

// column is always a literal from this file
func (s *Store) updateUserColumn(ctx context.Context, id, column string, value interface{}) error {
	n, err := s.exec(ctx, `UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, s.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteToExecutive upgrades a customer account. Returns false when the
// user does not exist or is not a customer.
func (s *Store) PromoteToExecutive(ctx context.Context, id, passwordHash, code string) (bool, error) {
	n, err := s.exec(ctx, `
		UPDATE users SET role = ?, password = ?, reference_code = ?, updated_at = ?
		WHERE id = ? AND role = ?
	`, models.RoleExecutive, passwordHash, code, s.Now(), id, models.RoleUser)
	if err != nil {
		return false, fmt.Errorf("failed to promote user: %w", err)
	}
	return n > 0, nil
}

func (s *Store) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	n, err := s.exec(ctx, `
		UPDATE users SET password_reset_token = ?, password_reset_expires = ?, updated_at = ?
		WHERE id = ?
	`, token, expires.UTC(), s.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserByResetToken returns the user holding an unexpired reset token
func (s *Store) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, &u, `
		SELECT `+userColumns+` FROM users
		WHERE password_reset_token = ? AND password_reset_expires > ?
	`, token, s.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reset token: %w", err)
	}
	return &u, nil
}

// ResetPassword stores a new hash and clears any reset token
func (s *Store) ResetPassword(ctx context.Context, id, hash string) error {
	n, err := s.exec(ctx, `
		UPDATE users SET password = ?, password_reset_token = NULL, password_reset_expires = NULL, updated_at = ?
		WHERE id = ?
	`, hash, s.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user and everything they own. Dependents are deleted
// explicitly so the result does not rely on driver foreign key support.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.InTx(ctx, func(tx *Store) error {
		steps := []string{
			`DELETE FROM commissions WHERE user_id = ? OR referred_user_id = ?`,
			`DELETE FROM commissions WHERE payment_id IN (SELECT id FROM payments WHERE user_id = ?)`,
			`DELETE FROM payments WHERE user_id = ?`,
			`DELETE FROM sessions WHERE user_id = ?`,
			`DELETE FROM tenant_databases WHERE user_id = ?`,
			`DELETE FROM domains WHERE user_id = ?`,
			`DELETE FROM reference_codes WHERE user_id = ?`,
			`UPDATE users SET referred_by = NULL WHERE referred_by = ?`,
		}
		for _, q := range steps {
			args := []interface{}{id}
			if strings.Count(q, "?") == 2 {
				args = append(args, id)
			}
			if _, err := tx.exec(ctx, q, args...); err != nil {
				return fmt.Errorf("failed to delete user dependents: %w", err)
			}
		}

		n, err := tx.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) UserStats(ctx context.Context) (models.UserStats, error) {
	var st models.UserStats
	err := s.get(ctx, &st, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN role = 'executive' THEN 1 ELSE 0 END), 0) AS executives,
			COALESCE(SUM(CASE WHEN role IN ('admin', 'superadmin') THEN 1 ELSE 0 END), 0) AS admins,
			COALESCE(SUM(CASE WHEN role = 'user' THEN 1 ELSE 0 END), 0) AS customers
		FROM users
	`)
	if err != nil {
		return st, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return st, nil
}

// ReferredUsers lists the customers referred by referrerID with their hosting
func (s *Store) ReferredUsers(ctx context.Context, referrerID string) ([]models.ReferredUser, error) {
	rows := []models.ReferredUser{}
	err := s.selectRows(ctx, &rows, `
		SELECT u.id, u.full_name, u.email, u.phone, u.created_at,
			d.id AS database_id, d.database_name, dom.domain_name, dom.status AS domain_status,
			d.expiry_date, d.last_accessed
		FROM users u
		LEFT JOIN tenant_databases d ON d.user_id = u.id
		LEFT JOIN domains dom ON dom.id = d.domain_id
		WHERE u.referred_by = ?
		ORDER BY u.created_at DESC, u.id
	`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referred users: %w", err)
	}
	return rows, nil
}
