// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/controlpanel"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// PanelChecker verifies the control panel can be reached
type PanelChecker interface {
	TestConnection(ctx context.Context) error
}

// AdminHandler serves every /admin route. Routes are registered behind
// RequireRole(admin, superadmin).
type AdminHandler struct {
	store   *store.Store
	prov    *provisioning.Service
	billing *billing.Service
	panel   PanelChecker
}

func NewAdminHandler(st *store.Store, prov *provisioning.Service, bs *billing.Service, panel PanelChecker) *AdminHandler {
	return &AdminHandler{store: st, prov: prov, billing: bs, panel: panel}
}

type adminDashboard struct {
	Stats          statsResponse           `json:"stats"`
	RecentPayments []models.PaymentDetail  `json:"recent_payments"`
	ExpiringSoon   []models.DatabaseDetail `json:"expiring_soon"`
	RecentEmails   []models.EmailLog       `json:"recent_emails"`
}

// Dashboard handles GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var d adminDashboard
	var err error
	if d.Stats, err = collectStats(r, h.store); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	if d.RecentPayments, err = h.store.RecentPayments(ctx, 10); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	if d.ExpiringSoon, err = h.store.ExpiringDatabases(ctx, 7); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	if d.RecentEmails, err = h.store.RecentEmails(ctx, 10); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, d)
}

type reportsResponse struct {
	PaymentStats      models.PaymentStats                    `json:"payment_stats"`
	CommissionStats   models.CommissionStats                 `json:"commission_stats"`
	Revenue           models.RevenueReport                   `json:"revenue"`
	Commissions       []models.ReferrerCommissionReport      `json:"commission_report"`
	CompletedPayments models.Paginated[models.PaymentDetail] `json:"completed_payments"`
}

// Reports handles GET /admin/reports?date_from=&date_to=&page=
func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dates, err := dateRangeFromQuery(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	page := pageFromQuery(r)
	if page.PerPage == 0 {
		page.PerPage = 10
	}

	var rep reportsResponse
	if rep.PaymentStats, err = h.store.PaymentStats(ctx, "", dates); err != nil {
		serviceError(w, err, "load reports")
		return
	}
	if rep.CommissionStats, err = h.store.CommissionStats(ctx, "", dates); err != nil {
		serviceError(w, err, "load reports")
		return
	}
	if rep.Revenue, err = h.store.RevenueReport(ctx, dates); err != nil {
		serviceError(w, err, "load reports")
		return
	}
	if rep.Commissions, err = h.store.CommissionReport(ctx, store.CommissionFilter{Dates: dates}); err != nil {
		serviceError(w, err, "load reports")
		return
	}
	rows, total, err := h.store.ListPayments(ctx, store.PaymentFilter{Status: models.PaymentCompleted, Dates: dates}, page)
	if err != nil {
		serviceError(w, err, "load reports")
		return
	}
	rep.CompletedPayments = paginated(rows, page, total)

	middleware.JSONResponse(w, http.StatusOK, rep)
}

type referenceCodesResponse struct {
	models.Paginated[models.ReferenceCodeDetail]
	Stats models.ReferenceCodeStats `json:"stats"`
}

// ReferenceCodes handles GET /admin/reference-codes?is_active=&search=
func (h *AdminHandler) ReferenceCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := store.ReferenceCodeFilter{Search: q.Get("search")}
	switch q.Get("is_active") {
	case "true":
		active := true
		filter.Active = &active
	case "false":
		active := false
		filter.Active = &active
	}

	codes, err := h.store.ListReferenceCodes(ctx, filter)
	if err != nil {
		serviceError(w, err, "load reference codes")
		return
	}
	stats, err := h.store.ReferenceCodeStats(ctx)
	if err != nil {
		serviceError(w, err, "load reference codes")
		return
	}

	// codes are paged in memory; the table holds one row per staff account
	page := pageFromQuery(r)
	start := min((page.Number()-1)*page.Limit(), len(codes))
	end := min(start+page.Limit(), len(codes))
	middleware.JSONResponse(w, http.StatusOK, referenceCodesResponse{
		Paginated: paginated(codes[start:end], page, len(codes)),
		Stats:     stats,
	})
}

type referenceCodeUsers struct {
	ReferenceCode *models.ReferenceCodeDetail `json:"reference_code"`
	Users         []models.User               `json:"users"`
}

// ReferenceCodeUsers handles GET /admin/reference-codes/{code}/users
func (h *AdminHandler) ReferenceCodeUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.PathValue("code")

	rc, err := h.store.GetReferenceCodeByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Reference code not found")
		return
	}
	if err != nil {
		serviceError(w, err, "load reference code")
		return
	}
	users, err := h.store.UsersByReferenceCode(ctx, code)
	if err != nil {
		serviceError(w, err, "load reference code users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, referenceCodeUsers{ReferenceCode: rc, Users: users})
}

// DeactivateReferenceCode handles POST /admin/reference-codes/{id}/deactivate
func (h *AdminHandler) DeactivateReferenceCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.SetReferenceCodeActive(r.Context(), id, false); err != nil {
		serviceError(w, err, "deactivate reference code")
		return
	}
	slog.Info("reference code deactivated", "reference_code_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Reference code deactivated successfully"})
}

// TestControlPanel handles POST /admin/control-panel/test
func (h *AdminHandler) TestControlPanel(w http.ResponseWriter, r *http.Request) {
	err := h.panel.TestConnection(r.Context())
	switch {
	case errors.Is(err, controlpanel.ErrDisabled):
		middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: false, Message: "Control panel is not configured"})
	case err != nil:
		slog.Warn("control panel connection test failed", "error", err)
		middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: false, Message: err.Error()})
	default:
		middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Connected to control panel"})
	}
}
