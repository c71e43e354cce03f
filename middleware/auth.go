// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

// WithUser returns a context carrying the signed-in user
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the signed-in user, or nil
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// SessionIDFromContext returns the hashed session id, or ""
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// Sessions resolves the session cookie to a user. The user is reloaded on
// every request so role and status changes apply immediately; a session
// whose user is gone or may no longer log in is deleted.
func Sessions(st *store.Store, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			id := auth.HashToken(cookie.Value, secret)
			sess, err := st.GetSession(ctx, id)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					slog.Error("failed to load session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := st.GetUser(ctx, sess.UserID)
			if err != nil || user.Status != models.UserActive || !auth.CanLogin(user) {
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					slog.Error("failed to load session user", "user_id", sess.UserID, "error", err)
				} else if err := st.DeleteSession(ctx, id); err != nil {
					slog.Error("failed to end session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			if err := st.TouchSession(ctx, id); err != nil {
				slog.Warn("failed to extend session", "user_id", user.ID, "error", err)
			}

			ctx = context.WithValue(WithUser(ctx, user), sessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a signed-in user
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			ErrorResponse(w, http.StatusUnauthorized, "Please log in to access this page")
			return
		}
		next(w, r)
	}
}

// RequireRole rejects signed-in users outside roles
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			if !auth.HasRole(UserFromContext(r.Context()), roles...) {
				ErrorResponse(w, http.StatusForbidden, "Access denied")
				return
			}
			next(w, r)
		})
	}
}
