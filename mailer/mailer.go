// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// ErrNotConfigured is recorded for every message when SMTP is unset
var ErrNotConfigured = errors.New("smtp not configured")

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = time.Hour

// Message is one outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders the account emails, sends them and logs every attempt to
// email_logs.
type Mailer struct {
	store     *store.Store
	sender    Sender
	baseURL   string
	trialDays int
}

// New returns a mailer. A nil sender behaves as an unconfigured SMTP server.
func New(st *store.Store, sender Sender, baseURL string, trialDays int) *Mailer {
	return &Mailer{store: st, sender: sender, baseURL: strings.TrimRight(baseURL, "/"), trialDays: trialDays}
}

// Send delivers msg and records the outcome. The returned error is the
// delivery error; a failure to write the log is only logged.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	var sendErr error
	if m.sender == nil {
		sendErr = ErrNotConfigured
	} else {
		sendErr = m.sender.Send(ctx, msg)
	}

	entry := &models.EmailLog{
		ID:      auth.NewID(),
		ToEmail: msg.To,
		Subject: msg.Subject,
		Body:    msg.HTML,
		Status:  models.EmailSent,
	}
	if sendErr != nil {
		errMsg := sendErr.Error()
		entry.Status = models.EmailFailed
		entry.ErrorMessage = &errMsg
		slog.Warn("failed to send email", "to", msg.To, "subject", msg.Subject, "error", sendErr)
	} else {
		slog.Info("email sent", "to", msg.To, "subject", msg.Subject)
	}

	if err := m.store.LogEmail(ctx, entry); err != nil {
		slog.Error("failed to log email", "to", msg.To, "error", err)
	}
	return sendErr
}

// SendWelcome greets a newly registered customer
func (m *Mailer) SendWelcome(ctx context.Context, u *models.User, domainName string) error {
	msg, err := render(u.Email, "Welcome to HospX Platform!", welcomeTemplate, map[string]interface{}{
		"Name":      u.FullName,
		"Domain":    domainName,
		"TrialDays": m.trialDays,
	})
	if err != nil {
		return err
	}
	return m.Send(ctx, msg)
}

// SendCredentials mails a generated password and reference code
func (m *Mailer) SendCredentials(ctx context.Context, u *models.User, password, referenceCode string) error {
	msg, err := render(u.Email, "Your Login Credentials - HospX Platform", credentialsTemplate, map[string]interface{}{
		"Name":          u.FullName,
		"Email":         u.Email,
		"Password":      password,
		"ReferenceCode": referenceCode,
		"LoginURL":      m.baseURL + "/login",
	})
	if err != nil {
		return err
	}
	return m.Send(ctx, msg)
}

// SendPasswordReset mails a reset link carrying token
func (m *Mailer) SendPasswordReset(ctx context.Context, u *models.User, token string) error {
	now := time.Now()
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, url.QueryEscape(token))
	msg, err := render(u.Email, "Password Reset Request - HospX Platform", resetTemplate, map[string]interface{}{
		"Name":    u.FullName,
		"Link":    link,
		"Expires": humanize.RelTime(now.Add(ResetTokenTTL), now, "ago", "from now"),
	})
	if err != nil {
		return err
	}
	return m.Send(ctx, msg)
}
