// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// UserHandler serves the executive portal. Every route acts on the
// signed-in user's own records.
type UserHandler struct {
	store   *store.Store
	billing *billing.Service
}

func NewUserHandler(st *store.Store, bs *billing.Service) *UserHandler {
	return &UserHandler{store: st, billing: bs}
}

type userDashboard struct {
	Databases         []models.DatabaseDetail   `json:"databases"`
	CommissionStats   models.CommissionStats    `json:"commission_stats"`
	RecentCommissions []models.CommissionDetail `json:"recent_commissions"`
	Payments          []models.PaymentDetail    `json:"payments"`
}

// Dashboard handles GET /user/dashboard
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me := middleware.UserFromContext(ctx)
	recent := store.Page{Page: 1, PerPage: 10}

	var d userDashboard
	var err error
	if d.Databases, err = h.store.DatabasesByUser(ctx, me.ID); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	if d.CommissionStats, err = h.store.CommissionStats(ctx, me.ID, store.DateRange{}); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	if d.RecentCommissions, _, err = h.store.ListCommissions(ctx, store.CommissionFilter{UserID: me.ID}, recent); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}
	if d.Payments, _, err = h.store.ListPayments(ctx, store.PaymentFilter{UserID: me.ID}, recent); err != nil {
		serviceError(w, err, "load dashboard")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, d)
}

// Databases handles GET /user/databases
func (h *UserHandler) Databases(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	rows, err := h.store.DatabasesByUser(r.Context(), me.ID)
	if err != nil {
		serviceError(w, err, "load databases")
		return
	}
	if rows == nil {
		rows = []models.DatabaseDetail{}
	}
	middleware.JSONResponse(w, http.StatusOK, rows)
}

type userCommissions struct {
	models.Paginated[models.CommissionDetail]
	Stats models.CommissionStats `json:"stats"`
}

// Commissions handles GET /user/commissions?status=&date_from=&date_to=
func (h *UserHandler) Commissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me := middleware.UserFromContext(ctx)

	dates, err := dateRangeFromQuery(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := store.CommissionFilter{UserID: me.ID, Status: r.URL.Query().Get("status"), Dates: dates}
	page := pageFromQuery(r)

	rows, total, err := h.store.ListCommissions(ctx, filter, page)
	if err != nil {
		serviceError(w, err, "load commissions")
		return
	}
	stats, err := h.store.CommissionStats(ctx, me.ID, store.DateRange{})
	if err != nil {
		serviceError(w, err, "load commissions")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, userCommissions{Paginated: paginated(rows, page, total), Stats: stats})
}

type userPayments struct {
	models.Paginated[models.PaymentDetail]
	Stats models.PaymentStats `json:"stats"`
}

// Payments handles GET /user/payments?status=&payment_type=
func (h *UserHandler) Payments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me := middleware.UserFromContext(ctx)
	q := r.URL.Query()
	filter := store.PaymentFilter{UserID: me.ID, Status: q.Get("status"), PaymentType: q.Get("payment_type")}
	page := pageFromQuery(r)

	rows, total, err := h.store.ListPayments(ctx, filter, page)
	if err != nil {
		serviceError(w, err, "load payments")
		return
	}
	stats, err := h.store.PaymentStats(ctx, me.ID, store.DateRange{})
	if err != nil {
		serviceError(w, err, "load payments")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, userPayments{Paginated: paginated(rows, page, total), Stats: stats})
}

// Payment handles GET /user/payments/{id}. Another user's payment is
// reported as missing.
func (h *UserHandler) Payment(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	p, err := h.store.GetPayment(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != me.ID) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Payment not found")
		return
	}
	if err != nil {
		serviceError(w, err, "load payment")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}

// ownDatabase loads {id} and checks the signed-in user owns it
func (h *UserHandler) ownDatabase(w http.ResponseWriter, r *http.Request) (*models.DatabaseDetail, bool) {
	me := middleware.UserFromContext(r.Context())
	tdb, err := h.store.GetDatabase(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && tdb.UserID != me.ID) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Access denied")
		return nil, false
	}
	if err != nil {
		serviceError(w, err, "load database")
		return nil, false
	}
	return tdb, true
}

// Access handles POST /user/databases/{id}/access
func (h *UserHandler) Access(w http.ResponseWriter, r *http.Request) {
	tdb, ok := h.ownDatabase(w, r)
	if !ok {
		return
	}
	if err := h.store.TouchDatabase(r.Context(), tdb.ID); err != nil {
		serviceError(w, err, "record database access")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Access recorded"})
}

// Renew handles POST /user/databases/{id}/renew. An empty body renews for
// 15 days.
func (h *UserHandler) Renew(w http.ResponseWriter, r *http.Request) {
	tdb, ok := h.ownDatabase(w, r)
	if !ok {
		return
	}

	var req models.RenewDatabaseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Period.IsZero() {
		req.Period = decimal.NewFromInt(15)
	}
	if req.PeriodType == "" {
		req.PeriodType = models.PeriodDays
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	expiry, err := h.billing.RenewDatabase(r.Context(), tdb.ID, req.Period, req.PeriodType)
	if err != nil {
		serviceError(w, err, "renew database")
		return
	}

	slog.Info("database renewed by owner", "database_id", tdb.ID, "period", req.Period.String(), "period_type", req.PeriodType)
	middleware.JSONResponse(w, http.StatusOK, models.RenewResponse{
		Success:       true,
		Message:       fmt.Sprintf("Database renewed successfully for %s %s", req.Period.String(), req.PeriodType),
		NewExpiryDate: expiry.Format(dateLayout),
	})
}

type referralsResponse struct {
	ReferenceCode *string                    `json:"reference_code,omitempty"`
	Referrals     []models.ReferredUser      `json:"referrals"`
	Stats         models.UserCommissionStats `json:"stats"`
}

// Referrals handles GET /user/referrals
func (h *UserHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me := middleware.UserFromContext(ctx)

	rows, err := h.store.ReferredUsers(ctx, me.ID)
	if err != nil {
		serviceError(w, err, "load referrals")
		return
	}
	if rows == nil {
		rows = []models.ReferredUser{}
	}
	stats, err := h.store.UserCommissionStats(ctx, me.ID)
	if err != nil {
		serviceError(w, err, "load referrals")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, referralsResponse{ReferenceCode: me.ReferenceCode, Referrals: rows, Stats: stats})
}
