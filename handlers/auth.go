// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/mailer"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// ResetMailer sends password reset links
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, u *models.User, token string) error
}

type AuthHandler struct {
	store *store.Store
	cfg   cliparse.Config
	prov  *provisioning.Service
	mail  ResetMailer
}

func NewAuthHandler(st *store.Store, cfg cliparse.Config, prov *provisioning.Service, mail ResetMailer) *AuthHandler {
	return &AuthHandler{store: st, cfg: cfg, prov: prov, mail: mail}
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.prov.Register(r.Context(), req)
	if err != nil {
		serviceError(w, err, "register")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	switch err := auth.Authenticate(user, req.Password); {
	case errors.Is(err, auth.ErrPendingApproval):
		middleware.ErrorResponse(w, http.StatusForbidden,
			"Your account is pending approval. You will receive login credentials once an administrator assigns you a role.")
		return
	case errors.Is(err, auth.ErrInactive):
		middleware.ErrorResponse(w, http.StatusForbidden, "Your account is inactive. Please contact support.")
		return
	case err != nil:
		slog.Info("login failed", "email", req.Email, "ip", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if _, err := h.store.CreateSession(ctx, auth.HashToken(token, h.cfg.SessionSecret), user.ID); err != nil {
		slog.Error("failed to create session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(store.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{User: *user, Dashboard: dashboardFor(user)})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id := middleware.SessionIDFromContext(r.Context()); id != "" {
		if err := h.store.DeleteSession(r.Context(), id); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "You are logged out"})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{User: *user, Dashboard: dashboardFor(user)})
}

const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

// ForgotPassword handles POST /forgot-password. The reply is the same
// whether or not the email is known.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: forgotPasswordMessage})
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		slog.Error("failed to generate reset token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start password reset")
		return
	}
	expires := h.store.Now().Add(mailer.ResetTokenTTL)
	if err := h.store.SetResetToken(ctx, user.ID, auth.HashToken(token, h.cfg.SessionSecret), expires); err != nil {
		slog.Error("failed to store reset token", "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start password reset")
		return
	}
	if err := h.mail.SendPasswordReset(ctx, user, token); err != nil {
		slog.Warn("failed to send password reset email", "user_id", user.ID, "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: forgotPasswordMessage})
}

// CheckResetToken handles GET /reset-password?token=
func (h *AuthHandler) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: false, Message: "Reset token is required"})
		return
	}

	_, err := h.store.GetUserByResetToken(r.Context(), auth.HashToken(token, h.cfg.SessionSecret))
	if errors.Is(err, store.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: false, Message: "Password reset token is invalid or has expired"})
		return
	}
	if err != nil {
		slog.Error("failed to check reset token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: true})
}

// ResetPassword handles POST /reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	user, err := h.store.GetUserByResetToken(ctx, auth.HashToken(req.Token, h.cfg.SessionSecret))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Password reset token is invalid or has expired")
		return
	}
	if err != nil {
		slog.Error("failed to check reset token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if err := h.store.ResetPassword(ctx, user.ID, hash); err != nil {
		slog.Error("failed to reset password", "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if err := h.store.DeleteUserSessions(ctx, user.ID); err != nil {
		slog.Warn("failed to end sessions after reset", "user_id", user.ID, "error", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Your password has been reset. Please log in."})
}

// ChangePassword handles POST /change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	user := middleware.UserFromContext(r.Context())
	if !user.HasPassword() || !auth.CheckPassword(req.CurrentPassword, *user.PasswordHash) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to change password")
		return
	}
	if err := h.store.SetPassword(r.Context(), user.ID, hash); err != nil {
		slog.Error("failed to change password", "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Password changed successfully"})
}
