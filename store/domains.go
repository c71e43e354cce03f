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

const domainColumns = `id, domain_name, user_id, database_name, expiry_date, domain_type, status, created_at, last_accessed`

func (s *Store) CreateDomain(ctx context.Context, d *models.Domain) error {
	if d.ID == "" {
		d.ID = auth.NewID()
	}
	if d.Status == "" {
		d.Status = models.HostingActive
	}
	d.DomainName = strings.ToLower(strings.TrimSpace(d.DomainName))
	d.ExpiryDate = DateOnly(d.ExpiryDate)
	d.CreatedAt = s.Now()

	_, err := s.exec(ctx, `
		INSERT INTO domains (`+domainColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.DomainName, d.UserID, d.DatabaseName, d.ExpiryDate, d.DomainType, d.Status,
		d.CreatedAt, d.LastAccessed)
	if isUniqueViolation(err) {
		return fmt.Errorf("domain %s: %w", d.DomainName, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert domain: %w", err)
	}
	return nil
}

func (s *Store) GetDomain(ctx context.Context, id string) (*models.Domain, error) {
	return s.getDomainWhere(ctx, "id = ?", id)
}

func (s *Store) GetDomainByName(ctx context.Context, name string) (*models.Domain, error) {
	return s.getDomainWhere(ctx, "domain_name = ?", strings.ToLower(strings.TrimSpace(name)))
}

func (s *Store) GetDomainByDatabaseName(ctx context.Context, databaseName string) (*models.Domain, error) {
	return s.getDomainWhere(ctx, "database_name = ?", databaseName)
}

func (s *Store) getDomainWhere(ctx context.Context, clause string, arg interface{}) (*models.Domain, error) {
	var d models.Domain
	err := s.get(ctx, &d, `SELECT `+domainColumns+` FROM domains WHERE `+clause, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query domain: %w", err)
	}
	return &d, nil
}

// DomainExists reports whether name is taken. A domain attached to
// excludeDatabaseID does not count, so a database can keep its own name.
func (s *Store) DomainExists(ctx context.Context, name, excludeDatabaseID string) (bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	query := `SELECT COUNT(*) FROM domains dom WHERE dom.domain_name = ?`
	args := []interface{}{name}
	if excludeDatabaseID != "" {
		query += ` AND NOT EXISTS (SELECT 1 FROM tenant_databases d WHERE d.domain_id = dom.id AND d.id = ?)`
		args = append(args, excludeDatabaseID)
	}

	var n int
	if err := s.get(ctx, &n, query, args...); err != nil {
		return false, fmt.Errorf("failed to check domain: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DomainsByUser(ctx context.Context, userID string) ([]models.Domain, error) {
	domains := []models.Domain{}
	err := s.selectRows(ctx, &domains, `
		SELECT `+domainColumns+` FROM domains WHERE user_id = ? ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, nil
}

func (s *Store) UpdateDomainName(ctx context.Context, id, name, domainType string) error {
	n, err := s.exec(ctx, `UPDATE domains SET domain_name = ?, domain_type = ? WHERE id = ?`,
		strings.ToLower(strings.TrimSpace(name)), domainType, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("domain %s: %w", name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkExpiredDomains flags active domains whose expiry date has passed
func (s *Store) MarkExpiredDomains(ctx context.Context) (int64, error) {
	n, err := s.exec(ctx, `
		UPDATE domains SET status = ? WHERE expiry_date < ? AND status = ?
	`, models.HostingExpired, DateOnly(s.Now()), models.HostingActive)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired domains: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteDomain(ctx context.Context, id string) error {
	return s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.exec(ctx, `UPDATE tenant_databases SET domain_id = NULL WHERE domain_id = ?`, id); err != nil {
			return fmt.Errorf("failed to detach domain: %w", err)
		}
		n, err := tx.exec(ctx, `DELETE FROM domains WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete domain: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
