// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package provisioning

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// Account is a created or updated user. Password is set only when one was
// generated and must be shown or mailed once.
type Account struct {
	User     *models.User
	Password string
}

// CreateUser adds an account on behalf of staff. Executives and admins get
// a reference code and, unless one is supplied, a generated password; both
// are mailed to them.
func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest) (*Account, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	u := &models.User{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Role:           req.Role,
		Status:         models.UserActive,
		CommissionType: req.CommissionType,
	}
	if req.CommissionPercentage != nil {
		u.CommissionPercentage = *req.CommissionPercentage
	}
	if req.CommissionFixed != nil {
		u.CommissionFixed = *req.CommissionFixed
	}
	if req.ReferredBy != "" {
		if _, err := s.getUser(ctx, req.ReferredBy); err != nil {
			return nil, err
		}
		u.ReferredBy = &req.ReferredBy
	}

	acct := &Account{User: u}
	password := req.Password
	staff := req.Role != models.RoleUser
	if staff {
		if password == "" {
			if password, err = auth.GeneratePassword(auth.DefaultPasswordLength); err != nil {
				return nil, err
			}
			acct.Password = password
		}
		code, err := auth.GenerateReferenceCode()
		if err != nil {
			return nil, err
		}
		u.ReferenceCode = &code
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = &hash
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		if u.ReferenceCode == nil {
			return nil
		}
		_, err := tx.CreateReferenceCode(ctx, *u.ReferenceCode, u.ID)
		return err
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	if staff {
		if err := s.notify.SendCredentials(ctx, u, password, *u.ReferenceCode); err != nil {
			slog.Warn("failed to send credentials email", "user_id", u.ID, "error", err)
		}
	}
	slog.Info("user created", "user_id", u.ID, "role", u.Role)
	return acct, nil
}

// PromoteToExecutive turns a customer into an executive with a fresh
// password and reference code
func (s *Service) PromoteToExecutive(ctx context.Context, id string) (*Account, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleUser {
		return nil, ErrNotCustomer
	}

	password, err := auth.GeneratePassword(auth.DefaultPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	code, err := auth.GenerateReferenceCode()
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		ok, err := tx.PromoteToExecutive(ctx, id, hash, code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotCustomer
		}
		_, err = tx.CreateReferenceCode(ctx, code, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.Role = models.RoleExecutive
	u.PasswordHash = &hash
	u.ReferenceCode = &code
	if err := s.notify.SendCredentials(ctx, u, password, code); err != nil {
		slog.Warn("failed to send credentials email", "user_id", id, "error", err)
	}
	slog.Info("user promoted to executive", "user_id", id)
	return &Account{User: u, Password: password}, nil
}

// ChangeRole sets a user's role. Moving into a staff role fills in a
// missing password or reference code; a generated password is mailed.
// Only a superadmin may grant or revoke superadmin.
func (s *Service) ChangeRole(ctx context.Context, actor *models.User, id, role string) (*Account, error) {
	if err := models.Validate(models.UpdateRoleRequest{Role: role}); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if (role == models.RoleSuperAdmin || u.Role == models.RoleSuperAdmin) && actor.Role != models.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	acct := &Account{User: u}
	var hash, code string
	if role != models.RoleUser {
		if !u.HasPassword() {
			if acct.Password, err = auth.GeneratePassword(auth.DefaultPasswordLength); err != nil {
				return nil, err
			}
			if hash, err = auth.HashPassword(acct.Password); err != nil {
				return nil, err
			}
		}
		if u.ReferenceCode == nil || *u.ReferenceCode == "" {
			if code, err = auth.GenerateReferenceCode(); err != nil {
				return nil, err
			}
		}
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.SetUserRole(ctx, id, role); err != nil {
			return err
		}
		if hash != "" {
			if err := tx.SetPassword(ctx, id, hash); err != nil {
				return err
			}
		}
		if code != "" {
			if err := tx.SetReferenceCode(ctx, id, code); err != nil {
				return err
			}
			if _, err := tx.CreateReferenceCode(ctx, code, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.Role = role
	if hash != "" {
		u.PasswordHash = &hash
	}
	if code != "" {
		u.ReferenceCode = &code
	}
	if acct.Password != "" {
		ref := ""
		if u.ReferenceCode != nil {
			ref = *u.ReferenceCode
		}
		if err := s.notify.SendCredentials(ctx, u, acct.Password, ref); err != nil {
			slog.Warn("failed to send credentials email", "user_id", id, "error", err)
		}
	}
	slog.Info("user role changed", "user_id", id, "role", role, "by", actor.ID)
	return acct, nil
}
