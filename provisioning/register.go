// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package provisioning

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// Register signs up a customer with a trial database on the requested
// domain. The account has no password until staff assign it a role.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ExpectedDomain = strings.ToLower(strings.TrimSpace(req.ExpectedDomain))
	req.ReferenceCode = strings.TrimSpace(req.ReferenceCode)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	var referredBy *string
	if req.ReferenceCode != "" {
		rc, err := s.store.FindActiveReferenceCode(ctx, req.ReferenceCode)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidReference
		}
		if err != nil {
			return nil, err
		}
		referredBy = &rc.UserID
	}

	domain := req.ExpectedDomain
	taken, err := s.store.DomainExists(ctx, domain, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDomainTaken
	}
	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	panelName := DatabaseNameFor(domain)
	localName := s.prefixed(panelName)
	if exists, err := s.store.DatabaseNameExists(ctx, localName); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDatabaseTaken
	}

	expiry := store.DateOnly(s.store.Now()).AddDate(0, 0, s.cfg.Billing.TrialDays)
	user := &models.User{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       models.RoleUser,
		Status:     models.UserActive,
		ReferredBy: referredBy,
	}
	tdb := &models.TenantDatabase{DatabaseName: localName, ExpiryDate: expiry}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		dom := &models.Domain{
			DomainName:   domain,
			UserID:       user.ID,
			DatabaseName: &localName,
			ExpiryDate:   expiry,
			DomainType:   req.DomainType,
		}
		if err := tx.CreateDomain(ctx, dom); err != nil {
			return err
		}
		tdb.UserID = user.ID
		tdb.DomainID = &dom.ID
		return tx.CreateDatabase(ctx, tdb)
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent registration
		return nil, ErrDomainTaken
	}
	if err != nil {
		return nil, err
	}

	var warnings []string
	if s.IsSubdomain(domain) {
		// Subdomains are served by the platform; only the database is created
		warnings = s.createOnPanel(ctx, panelName)
	} else {
		res, err := s.panel.CreateCompleteSetup(ctx, domain, panelName)
		if err != nil {
			panelWarn(&warnings, "setup", domain, err)
		}
		if res.DomainErr != nil {
			panelWarn(&warnings, "add domain", domain, res.DomainErr)
		}
		if res.UserErr != nil {
			panelWarn(&warnings, "add database user", panelName, res.UserErr)
		}
	}

	if err := s.notify.SendWelcome(ctx, user, domain); err != nil {
		slog.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
	}

	slog.Info("user registered", "user_id", user.ID, "domain", domain, "database", localName,
		"referred", referredBy != nil)
	return &models.RegisterResponse{
		UserID:       user.ID,
		DatabaseID:   tdb.ID,
		DomainName:   domain,
		DatabaseName: localName,
		ExpiryDate:   expiry.Format("2006-01-02"),
		Message:      "Registration successful! You will receive login credentials once your account is approved by an administrator.",
		Warnings:     warnings,
	}, nil
}
