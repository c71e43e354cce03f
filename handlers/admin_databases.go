// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

type databaseResponse struct {
	Database *models.DatabaseDetail `json:"database"`
	Warnings []string               `json:"warnings,omitempty"`
}

// ListDatabases handles GET /admin/databases?status=&user_id=&expiry=&search=
func (h *AdminHandler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.DatabaseFilter{
		Status: q.Get("status"),
		UserID: q.Get("user_id"),
		Expiry: q.Get("expiry"),
		Search: q.Get("search"),
	}
	page := pageFromQuery(r)

	rows, total, err := h.store.ListDatabases(r.Context(), filter, page)
	if err != nil {
		serviceError(w, err, "load databases")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, paginated(rows, page, total))
}

// DatabaseUsers handles GET /admin/databases/users, the owners a new
// database can be assigned to
func (h *AdminHandler) DatabaseUsers(w http.ResponseWriter, r *http.Request) {
	users, _, err := h.store.ListUsers(r.Context(), store.UserFilter{Status: models.UserActive}, store.Page{Page: 1, PerPage: 100})
	if err != nil {
		serviceError(w, err, "load users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, users)
}

// AddDatabase handles POST /admin/databases/add
func (h *AdminHandler) AddDatabase(w http.ResponseWriter, r *http.Request) {
	var req models.AddDatabaseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tdb, warnings, err := h.prov.AddDatabase(r.Context(), req)
	if err != nil {
		serviceError(w, err, "add database")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, databaseResponse{Database: tdb, Warnings: warnings})
}

// CreateDatabase handles POST /admin/databases
func (h *AdminHandler) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDatabaseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tdb, warnings, err := h.prov.CreateDatabaseForUser(r.Context(), req)
	if err != nil {
		serviceError(w, err, "create database")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, databaseResponse{Database: tdb, Warnings: warnings})
}

// GetDatabase handles GET /admin/databases/{id}
func (h *AdminHandler) GetDatabase(w http.ResponseWriter, r *http.Request) {
	tdb, err := h.store.GetDatabase(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "load database")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, tdb)
}

// RenewDatabase handles POST /admin/databases/{id}/renew
func (h *AdminHandler) RenewDatabase(w http.ResponseWriter, r *http.Request) {
	var req models.RenewDatabaseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	id := r.PathValue("id")
	expiry, err := h.billing.RenewDatabase(r.Context(), id, req.Period, req.PeriodType)
	if err != nil {
		serviceError(w, err, "renew database")
		return
	}

	slog.Info("database renewed", "database_id", id, "period", req.Period.String(), "period_type", req.PeriodType)
	middleware.JSONResponse(w, http.StatusOK, models.RenewResponse{
		Success:       true,
		Message:       fmt.Sprintf("Database renewed successfully for %s %s", req.Period.String(), req.PeriodType),
		NewExpiryDate: expiry.Format(dateLayout),
	})
}

// DeleteDatabase handles DELETE /admin/databases/{id}
func (h *AdminHandler) DeleteDatabase(w http.ResponseWriter, r *http.Request) {
	res, err := h.prov.DeleteDatabaseCompletely(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "delete database")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// RenewExpiring handles POST /admin/databases/renew-expiring: every active
// database expiring within 7 days gains 15 days.
func (h *AdminHandler) RenewExpiring(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.ExtendExpiring(r.Context(), 7, 15)
	if err != nil {
		serviceError(w, err, "renew expiring databases")
		return
	}
	slog.Info("expiring databases renewed", "count", n)
	middleware.JSONResponse(w, http.StatusOK, models.BulkResponse{
		Success:  true,
		Message:  fmt.Sprintf("Renewed %d databases for 15 days", n),
		Affected: n,
	})
}

type domainResponse struct {
	Success    bool     `json:"success"`
	DomainName string   `json:"domain_name"`
	Warnings   []string `json:"warnings,omitempty"`
}

// EditDomain handles PUT /admin/databases/{id}/domain
func (h *AdminHandler) EditDomain(w http.ResponseWriter, r *http.Request) {
	var req models.EditDomainRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.DatabaseID = r.PathValue("id")

	domain, warnings, err := h.prov.EditDomain(r.Context(), req)
	if err != nil {
		serviceError(w, err, "update domain")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, domainResponse{Success: true, DomainName: domain, Warnings: warnings})
}
