// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package provisioning

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// CreateDatabaseForUser provisions a database on a domain for an existing
// user, expiring days from today
func (s *Service) CreateDatabaseForUser(ctx context.Context, req models.CreateDatabaseRequest) (*models.DatabaseDetail, []string, error) {
	req.DomainName = strings.ToLower(strings.TrimSpace(req.DomainName))
	req.DatabaseName = strings.TrimSpace(req.DatabaseName)
	if err := models.Validate(req); err != nil {
		return nil, nil, err
	}
	if _, err := s.getUser(ctx, req.UserID); err != nil {
		return nil, nil, err
	}

	localName := s.prefixed(req.DatabaseName)
	panelName := s.unprefixed(req.DatabaseName)
	if err := s.checkAvailable(ctx, req.DomainName, localName); err != nil {
		return nil, nil, err
	}

	domainType := models.DomainCustom
	if s.IsSubdomain(req.DomainName) {
		domainType = models.DomainSubdomain
	}
	expiry := store.DateOnly(s.store.Now()).AddDate(0, 0, req.ExpiryDays)

	tdb := &models.TenantDatabase{DatabaseName: localName, UserID: req.UserID, ExpiryDate: expiry}
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		dom := &models.Domain{
			DomainName:   req.DomainName,
			UserID:       req.UserID,
			DatabaseName: &localName,
			ExpiryDate:   expiry,
			DomainType:   domainType,
		}
		if err := tx.CreateDomain(ctx, dom); err != nil {
			return err
		}
		tdb.DomainID = &dom.ID
		return tx.CreateDatabase(ctx, tdb)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, nil, ErrDomainTaken
	}
	if err != nil {
		return nil, nil, err
	}

	warnings := s.createOnPanel(ctx, panelName)
	if domainType == models.DomainCustom {
		if _, err := s.panel.AddAddonDomain(ctx, req.DomainName); err != nil {
			panelWarn(&warnings, "add domain", req.DomainName, err)
		}
	}

	detail, err := s.store.GetDatabase(ctx, tdb.ID)
	if err != nil {
		return nil, warnings, err
	}
	slog.Info("database created", "database_id", tdb.ID, "user_id", req.UserID, "domain", req.DomainName)
	return detail, warnings, nil
}

// AddDatabase records a database without a domain for an existing user
func (s *Service) AddDatabase(ctx context.Context, req models.AddDatabaseRequest) (*models.DatabaseDetail, []string, error) {
	req.DatabaseName = strings.TrimSpace(req.DatabaseName)
	if err := models.Validate(req); err != nil {
		return nil, nil, err
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, nil, ErrInvalidExpiryDate
	}
	if _, err := s.getUser(ctx, req.UserID); err != nil {
		return nil, nil, err
	}

	localName := s.prefixed(req.DatabaseName)
	if err := s.checkAvailable(ctx, "", localName); err != nil {
		return nil, nil, err
	}

	tdb := &models.TenantDatabase{DatabaseName: localName, UserID: req.UserID, ExpiryDate: expiry}
	if err := s.store.CreateDatabase(ctx, tdb); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, nil, ErrDatabaseTaken
		}
		return nil, nil, err
	}

	warnings := s.createOnPanel(ctx, s.unprefixed(req.DatabaseName))
	detail, err := s.store.GetDatabase(ctx, tdb.ID)
	if err != nil {
		return nil, warnings, err
	}
	return detail, warnings, nil
}

func (s *Service) checkAvailable(ctx context.Context, domain, databaseName string) error {
	if domain != "" {
		taken, err := s.store.DomainExists(ctx, domain, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrDomainTaken
		}
	}
	exists, err := s.store.DatabaseNameExists(ctx, databaseName)
	if err != nil {
		return err
	}
	if exists {
		return ErrDatabaseTaken
	}
	return nil
}

func (s *Service) createOnPanel(ctx context.Context, name string) []string {
	var warnings []string
	if _, err := s.panel.CreateDatabase(ctx, name); err != nil {
		panelWarn(&warnings, "create database", name, err)
		return warnings
	}
	if _, err := s.panel.AddDatabaseUser(ctx, name, s.cfg.ControlPanel.DBUser); err != nil {
		panelWarn(&warnings, "add database user", name, err)
	}
	return warnings
}

// DeleteResult names what DeleteDatabaseCompletely removed
type DeleteResult struct {
	DatabaseName string   `json:"database"`
	DomainName   string   `json:"domain,omitempty"`
	DomainType   string   `json:"domain_type,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// DeleteDatabaseCompletely removes a database from the panel, along with
// its custom domain, then deletes the local records. The local delete runs
// even when the panel fails.
func (s *Service) DeleteDatabaseCompletely(ctx context.Context, id string) (*DeleteResult, error) {
	tdb, err := s.getDatabase(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &DeleteResult{DatabaseName: tdb.DatabaseName}
	if tdb.DomainName != nil {
		res.DomainName = *tdb.DomainName
	}
	if tdb.DomainType != nil {
		res.DomainType = *tdb.DomainType
	}

	if _, err := s.panel.DeleteDatabase(ctx, tdb.DatabaseName); err != nil {
		panelWarn(&res.Warnings, "delete database", tdb.DatabaseName, err)
	}
	if res.DomainName != "" && res.DomainType == models.DomainCustom {
		if _, err := s.panel.DeleteDomain(ctx, res.DomainName); err != nil {
			panelWarn(&res.Warnings, "delete domain", res.DomainName, err)
		}
	}

	if err := s.store.DeleteDatabase(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDatabaseNotFound
		}
		return nil, err
	}
	slog.Info("database deleted", "database_id", id, "database", tdb.DatabaseName, "warnings", len(res.Warnings))
	return res, nil
}

// EditDomain moves a database to a new domain. A subdomain request names
// only the label; the platform suffix is appended. Panel changes are
// best effort.
func (s *Service) EditDomain(ctx context.Context, req models.EditDomainRequest) (string, []string, error) {
	if err := models.Validate(req); err != nil {
		return "", nil, err
	}
	tdb, err := s.getDatabase(ctx, req.DatabaseID)
	if err != nil {
		return "", nil, err
	}

	name := strings.ToLower(strings.TrimSpace(req.DomainName))
	if req.DomainType == models.DomainSubdomain {
		name = s.SubdomainFor(name)
	}

	taken, err := s.store.DomainExists(ctx, name, tdb.ID)
	if err != nil {
		return "", nil, err
	}
	if taken {
		return "", nil, ErrDomainTaken
	}

	current := ""
	if tdb.DomainName != nil {
		current = *tdb.DomainName
	}
	currentType := ""
	if tdb.DomainType != nil {
		currentType = *tdb.DomainType
	}
	if current == name && currentType == req.DomainType {
		return name, nil, nil
	}

	var warnings []string
	if current != name {
		if current != "" {
			if _, err := s.panel.DeleteDomain(ctx, current); err != nil {
				panelWarn(&warnings, "delete domain", current, err)
			}
		}
		if req.DomainType == models.DomainCustom {
			if _, err := s.panel.AddAddonDomain(ctx, name); err != nil {
				panelWarn(&warnings, "add domain", name, err)
			}
		}
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		if tdb.DomainID != nil {
			return tx.UpdateDomainName(ctx, *tdb.DomainID, name, req.DomainType)
		}
		dbName := tdb.DatabaseName
		dom := &models.Domain{
			DomainName:   name,
			UserID:       tdb.UserID,
			DatabaseName: &dbName,
			ExpiryDate:   tdb.ExpiryDate,
			DomainType:   req.DomainType,
		}
		if err := tx.CreateDomain(ctx, dom); err != nil {
			return err
		}
		return tx.SetDatabaseDomain(ctx, tdb.ID, &dom.ID)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return "", warnings, ErrDomainTaken
	}
	if err != nil {
		return "", warnings, err
	}

	slog.Info("database domain changed", "database_id", tdb.ID, "from", current, "to", name)
	return name, warnings, nil
}
