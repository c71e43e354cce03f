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

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
)

const databaseColumns = `id, database_name, user_id, domain_id, expiry_date, last_renewed, status, created_at, last_accessed`

const databaseDetailSelect = `
	SELECT d.id, d.database_name, d.user_id, d.domain_id, d.expiry_date, d.last_renewed,
		d.status, d.created_at, d.last_accessed,
		u.full_name AS owner_name, u.email AS owner_email, u.phone AS owner_phone,
		u.referred_by AS owner_referred_by,
		dom.domain_name, dom.domain_type
	FROM tenant_databases d
	JOIN users u ON u.id = d.user_id
	LEFT JOIN domains dom ON dom.id = d.domain_id`

// ExpiringWindow is how far ahead a database counts as expiring soon
const ExpiringWindow = 7 * 24 * time.Hour

func (s *Store) CreateDatabase(ctx context.Context, d *models.TenantDatabase) error {
	if d.ID == "" {
		d.ID = auth.NewID()
	}
	if d.Status == "" {
		d.Status = models.HostingActive
	}
	d.DatabaseName = strings.TrimSpace(d.DatabaseName)
	d.ExpiryDate = DateOnly(d.ExpiryDate)
	d.CreatedAt = s.Now()

	_, err := s.exec(ctx, `
		INSERT INTO tenant_databases (`+databaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.DatabaseName, d.UserID, d.DomainID, d.ExpiryDate, d.LastRenewed, d.Status,
		d.CreatedAt, d.LastAccessed)
	if isUniqueViolation(err) {
		return fmt.Errorf("database %s: %w", d.DatabaseName, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert database: %w", err)
	}
	return nil
}

// GetDatabase returns a tenant database joined with its owner and domain
func (s *Store) GetDatabase(ctx context.Context, id string) (*models.DatabaseDetail, error) {
	var d models.DatabaseDetail
	err := s.get(ctx, &d, databaseDetailSelect+` WHERE d.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	return &d, nil
}

func (s *Store) DatabaseNameExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM tenant_databases WHERE database_name = ?`, strings.TrimSpace(name)); err != nil {
		return false, fmt.Errorf("failed to check database name: %w", err)
	}
	return n > 0, nil
}

// Expiry filter values for ListDatabases
const (
	ExpiryFilterExpiringSoon = "expiring_soon"
	ExpiryFilterExpired      = "expired"
)

type DatabaseFilter struct {
	Status string
	UserID string
	Expiry string
	Search string
}

func (s *Store) databaseWhere(f DatabaseFilter) *where {
	w := &where{}
	today := DateOnly(s.Now())
	if f.Status != "" {
		w.add("d.status = ?", f.Status)
	}
	if f.UserID != "" {
		w.add("d.user_id = ?", f.UserID)
	}
	switch f.Expiry {
	case ExpiryFilterExpiringSoon:
		w.add("d.expiry_date <= ? AND d.status = ?", today.Add(ExpiringWindow), models.HostingActive)
	case ExpiryFilterExpired:
		w.add("d.expiry_date < ?", today)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add(`(LOWER(d.database_name) LIKE ? OR LOWER(dom.domain_name) LIKE ?
			OR LOWER(u.full_name) LIKE ? OR LOWER(u.email) LIKE ?)`, p, p, p, p)
	}
	return w
}

func (s *Store) ListDatabases(ctx context.Context, f DatabaseFilter, p Page) ([]models.DatabaseDetail, int, error) {
	w := s.databaseWhere(f)

	var total int
	err := s.get(ctx, &total, `
		SELECT COUNT(*) FROM tenant_databases d
		JOIN users u ON u.id = d.user_id
		LEFT JOIN domains dom ON dom.id = d.domain_id`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count databases: %w", err)
	}

	rows := []models.DatabaseDetail{}
	args := append(w.args, p.Limit(), p.Offset())
	err = s.selectRows(ctx, &rows, databaseDetailSelect+w.String()+
		` ORDER BY d.created_at DESC, d.id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list databases: %w", err)
	}
	return rows, total, nil
}

func (s *Store) DatabasesByUser(ctx context.Context, userID string) ([]models.DatabaseDetail, error) {
	rows := []models.DatabaseDetail{}
	err := s.selectRows(ctx, &rows, databaseDetailSelect+` WHERE d.user_id = ? ORDER BY d.created_at DESC, d.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user databases: %w", err)
	}
	return rows, nil
}

// RenewDatabase sets a new expiry date and reactivates the database
func (s *Store) RenewDatabase(ctx context.Context, id string, expiry time.Time) error {
	n, err := s.exec(ctx, `
		UPDATE tenant_databases SET expiry_date = ?, last_renewed = ?, status = ?
		WHERE id = ?
	`, DateOnly(expiry), DateOnly(s.Now()), models.HostingActive, id)
	if err != nil {
		return fmt.Errorf("failed to renew database: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetDatabaseDomain(ctx context.Context, id string, domainID *string) error {
	n, err := s.exec(ctx, `UPDATE tenant_databases SET domain_id = ? WHERE id = ?`, domainID, id)
	if err != nil {
		return fmt.Errorf("failed to set database domain: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TouchDatabase(ctx context.Context, id string) error {
	n, err := s.exec(ctx, `UPDATE tenant_databases SET last_accessed = ? WHERE id = ?`, s.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update last accessed: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDatabase removes the database row and the domain row attached to it
func (s *Store) DeleteDatabase(ctx context.Context, id string) error {
	return s.InTx(ctx, func(tx *Store) error {
		var domainID sql.NullString
		err := tx.get(ctx, &domainID, `SELECT domain_id FROM tenant_databases WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}

		if _, err := tx.exec(ctx, `DELETE FROM tenant_databases WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete database: %w", err)
		}
		if domainID.Valid {
			if _, err := tx.exec(ctx, `DELETE FROM domains WHERE id = ?`, domainID.String); err != nil {
				return fmt.Errorf("failed to delete database domain: %w", err)
			}
		}
		return nil
	})
}

// MarkExpiredDatabases flags active databases whose expiry date has passed
func (s *Store) MarkExpiredDatabases(ctx context.Context) (int64, error) {
	n, err := s.exec(ctx, `
		UPDATE tenant_databases SET status = ? WHERE expiry_date < ? AND status = ?
	`, models.HostingExpired, DateOnly(s.Now()), models.HostingActive)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired databases: %w", err)
	}
	return n, nil
}

// ExpiringDatabases lists active databases expiring between today and today+days
func (s *Store) ExpiringDatabases(ctx context.Context, days int) ([]models.DatabaseDetail, error) {
	today := DateOnly(s.Now())
	rows := []models.DatabaseDetail{}
	err := s.selectRows(ctx, &rows, databaseDetailSelect+`
		WHERE d.expiry_date >= ? AND d.expiry_date <= ? AND d.status = ?
		ORDER BY d.expiry_date, d.id
	`, today, today.AddDate(0, 0, days), models.HostingActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring databases: %w", err)
	}
	return rows, nil
}

// ExtendExpiring pushes every database expiring within days out by extra
// days. Returns the number of databases extended.
func (s *Store) ExtendExpiring(ctx context.Context, days, extra int) (int, error) {
	count := 0
	err := s.InTx(ctx, func(tx *Store) error {
		dbs, err := tx.ExpiringDatabases(ctx, days)
		if err != nil {
			return err
		}
		for _, d := range dbs {
			if err := tx.RenewDatabase(ctx, d.ID, d.ExpiryDate.AddDate(0, 0, extra)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) DatabaseStats(ctx context.Context) (models.DatabaseStats, error) {
	today := DateOnly(s.Now())
	var st models.DatabaseStats
	err := s.get(ctx, &st, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? OR expiry_date < ? THEN 1 ELSE 0 END), 0) AS expired,
			COALESCE(SUM(CASE WHEN status = ? AND expiry_date >= ? AND expiry_date <= ? THEN 1 ELSE 0 END), 0) AS expiring_soon
		FROM tenant_databases
	`, models.HostingActive,
		models.HostingExpired, today,
		models.HostingActive, today, today.Add(ExpiringWindow))
	if err != nil {
		return st, fmt.Errorf("failed to compute database stats: %w", err)
	}
	return st, nil
}
