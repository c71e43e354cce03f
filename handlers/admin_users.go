// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// accountResponse carries a generated password the one time it is shown
type accountResponse struct {
	User     *models.User `json:"user"`
	Password string       `json:"generated_password,omitempty"`
}

func newAccountResponse(a *provisioning.Account) accountResponse {
	return accountResponse{User: a.User, Password: a.Password}
}

// ListUsers handles GET /admin/users?role=&status=&search=&referred_by=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.UserFilter{
		Role:       q.Get("role"),
		Status:     q.Get("status"),
		Search:     q.Get("search"),
		ReferredBy: q.Get("referred_by"),
	}
	page := pageFromQuery(r)

	users, total, err := h.store.ListUsers(r.Context(), filter, page)
	if err != nil {
		serviceError(w, err, "load users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, paginated(users, page, total))
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	acct, err := h.prov.CreateUser(r.Context(), req)
	if err != nil {
		serviceError(w, err, "create user")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, newAccountResponse(acct))
}

type userDetail struct {
	User        *models.User              `json:"user"`
	Databases   []models.DatabaseDetail   `json:"databases"`
	Payments    []models.PaymentDetail    `json:"payments"`
	Commissions []models.CommissionDetail `json:"commissions"`
}

// GetUser handles GET /admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var d userDetail
	var err error
	if d.User, err = h.store.GetUser(ctx, id); err != nil {
		serviceError(w, err, "load user")
		return
	}
	if d.Databases, err = h.store.DatabasesByUser(ctx, id); err != nil {
		serviceError(w, err, "load user")
		return
	}
	all := store.Page{Page: 1, PerPage: 100}
	if d.Payments, _, err = h.store.ListPayments(ctx, store.PaymentFilter{UserID: id}, all); err != nil {
		serviceError(w, err, "load user")
		return
	}
	if d.Commissions, _, err = h.store.ListCommissions(ctx, store.CommissionFilter{UserID: id}, all); err != nil {
		serviceError(w, err, "load user")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, d)
}

// UpdateUser handles PUT /admin/users/{id}. Absent fields are unchanged.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	actor := middleware.UserFromContext(ctx)
	if id == actor.ID && req.Status != nil && *req.Status == models.UserInactive {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot deactivate your own account")
		return
	}
	if _, ok := h.loadManagedUser(w, r, actor, id, "update user"); !ok {
		return
	}

	err := h.store.UpdateUser(ctx, id, store.UserUpdate{
		FullName:             req.FullName,
		Email:                req.Email,
		Phone:                req.Phone,
		Status:               req.Status,
		CommissionPercentage: req.CommissionPercentage,
		CommissionFixed:      req.CommissionFixed,
		CommissionType:       req.CommissionType,
	})
	if err != nil {
		serviceError(w, err, "update user")
		return
	}
	if req.Status != nil && *req.Status == models.UserInactive {
		h.endSessions(r, id)
	}

	u, err := h.store.GetUser(ctx, id)
	if err != nil {
		serviceError(w, err, "load user")
		return
	}
	slog.Info("user updated", "user_id", id)
	middleware.JSONResponse(w, http.StatusOK, u)
}

// UpdateRole handles PUT /admin/users/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	actor := middleware.UserFromContext(r.Context())
	acct, err := h.prov.ChangeRole(r.Context(), actor, r.PathValue("id"), req.Role)
	if err != nil {
		serviceError(w, err, "update user role")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, newAccountResponse(acct))
}

// UpdateStatus handles PUT /admin/users/{id}/status. Deactivating a user
// ends their sessions.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	id := r.PathValue("id")
	actor := middleware.UserFromContext(r.Context())
	if id == actor.ID && req.Status == models.UserInactive {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot deactivate your own account")
		return
	}
	if _, ok := h.loadManagedUser(w, r, actor, id, "update user status"); !ok {
		return
	}

	if err := h.store.SetUserStatus(r.Context(), id, req.Status); err != nil {
		serviceError(w, err, "update user status")
		return
	}
	if req.Status == models.UserInactive {
		h.endSessions(r, id)
	}

	slog.Info("user status changed", "user_id", id, "status", req.Status, "by", actor.ID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "User status updated successfully"})
}

// loadManagedUser returns the target of a user edit, writing the response
// when it is missing or a superadmin the actor may not manage
func (h *AdminHandler) loadManagedUser(w http.ResponseWriter, r *http.Request, actor *models.User, id, op string) (*models.User, bool) {
	target, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		serviceError(w, err, op)
		return nil, false
	}
	if target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only a superadmin can manage a superadmin")
		return nil, false
	}
	return target, true
}

func (h *AdminHandler) endSessions(r *http.Request, userID string) {
	if err := h.store.DeleteUserSessions(r.Context(), userID); err != nil {
		slog.Warn("failed to end user sessions", "user_id", userID, "error", err)
	}
}

// Promote handles POST /admin/users/{id}/promote
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	acct, err := h.prov.PromoteToExecutive(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "promote user")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, newAccountResponse(acct))
}

// DeleteUser handles DELETE /admin/users/{id}. Admins cannot delete
// themselves, and only a superadmin can delete a superadmin.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	actor := middleware.UserFromContext(ctx)

	if id == actor.ID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	if _, ok := h.loadManagedUser(w, r, actor, id, "delete user"); !ok {
		return
	}

	if err := h.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}
		serviceError(w, err, "delete user")
		return
	}

	slog.Info("user deleted", "user_id", id, "by", actor.ID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "User deleted successfully"})
}
