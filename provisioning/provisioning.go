// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/controlpanel"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrDomainTaken       = errors.New("domain already registered")
	ErrDatabaseTaken     = errors.New("database name already exists")
	ErrInvalidReference  = errors.New("invalid reference code")
	ErrUserNotFound      = errors.New("user not found")
	ErrDatabaseNotFound  = errors.New("database not found")
	ErrNotCustomer       = errors.New("only customer accounts can be promoted")
	ErrForbidden         = errors.New("not allowed to assign this role")
	ErrInvalidExpiryDate = errors.New("invalid expiry date")
)

// Panel is the subset of the control panel client provisioning uses
type Panel interface {
	AddAddonDomain(ctx context.Context, domain string) (string, error)
	DeleteDomain(ctx context.Context, domains ...string) (string, error)
	CreateDatabase(ctx context.Context, name string) (string, error)
	AddDatabaseUser(ctx context.Context, name, user string) (string, error)
	DeleteDatabase(ctx context.Context, names ...string) (string, error)
	CreateCompleteSetup(ctx context.Context, domain, database string) (controlpanel.SetupResult, error)
}

// Notifier sends the account emails
type Notifier interface {
	SendWelcome(ctx context.Context, u *models.User, domainName string) error
	SendCredentials(ctx context.Context, u *models.User, password, referenceCode string) error
}

// Service creates accounts and the hosting that belongs to them. Local
// records are the source of truth; control panel failures are logged and
// returned as warnings.
type Service struct {
	store  *store.Store
	panel  Panel
	notify Notifier
	cfg    cliparse.Config
}

func New(st *store.Store, panel Panel, notify Notifier, cfg cliparse.Config) *Service {
	return &Service{store: st, panel: panel, notify: notify, cfg: cfg}
}

// DatabaseNameFor derives the unprefixed database name for a domain
func DatabaseNameFor(domain string) string {
	return strings.ReplaceAll(strings.ToLower(domain), ".", "_") + "_db"
}

// prefixed returns the local name of a panel database
func (s *Service) prefixed(name string) string {
	prefix := s.cfg.ControlPanel.DBPrefix
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// unprefixed returns the name the panel expects on create
func (s *Service) unprefixed(name string) string {
	return strings.TrimPrefix(name, s.cfg.ControlPanel.DBPrefix)
}

// IsSubdomain reports whether domain is one of ours
func (s *Service) IsSubdomain(domain string) bool {
	return strings.HasSuffix(strings.ToLower(domain), strings.ToLower(s.cfg.Billing.SubdomainSuffix))
}

// SubdomainFor appends the platform suffix unless name already carries it
func (s *Service) SubdomainFor(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if s.IsSubdomain(name) {
		return name
	}
	return name + strings.ToLower(s.cfg.Billing.SubdomainSuffix)
}

// panelWarn logs a failed panel call and adds it to warnings. A disabled
// panel is not worth a warning.
func panelWarn(warnings *[]string, op, target string, err error) {
	if errors.Is(err, controlpanel.ErrDisabled) {
		slog.Debug("control panel disabled, skipping", "op", op, "target", target)
		return
	}
	slog.Warn("control panel call failed", "op", op, "target", target, "error", err)
	*warnings = append(*warnings, fmt.Sprintf("%s %s: %v", op, target, err))
}

func (s *Service) getUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *Service) getDatabase(ctx context.Context, id string) (*models.DatabaseDetail, error) {
	d, err := s.store.GetDatabase(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDatabaseNotFound
	}
	return d, err
}
