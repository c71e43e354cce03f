// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

func commissionFilterFromQuery(r *http.Request) (store.CommissionFilter, error) {
	q := r.URL.Query()
	dates, err := dateRangeFromQuery(r)
	if err != nil {
		return store.CommissionFilter{}, err
	}
	return store.CommissionFilter{
		Status:         q.Get("status"),
		UserID:         q.Get("user_id"),
		CommissionType: q.Get("commission_type"),
		Dates:          dates,
	}, nil
}

type commissionsResponse struct {
	models.Paginated[models.CommissionDetail]
	Stats models.CommissionStats         `json:"stats"`
	Daily []models.DailyCommissionSummary `json:"daily"`
}

// ListCommissions handles GET /admin/commissions
func (h *AdminHandler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := commissionFilterFromQuery(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	page := pageFromQuery(r)

	rows, total, err := h.store.ListCommissions(ctx, filter, page)
	if err != nil {
		serviceError(w, err, "load commissions")
		return
	}
	stats, err := h.store.CommissionStats(ctx, filter.UserID, filter.Dates)
	if err != nil {
		serviceError(w, err, "load commissions")
		return
	}
	daily, err := h.store.DailyCommissionSummary(ctx, filter)
	if err != nil {
		serviceError(w, err, "load commissions")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, commissionsResponse{
		Paginated: paginated(rows, page, total),
		Stats:     stats,
		Daily:     daily,
	})
}

// ExportCommissions handles GET /admin/commissions/export
func (h *AdminHandler) ExportCommissions(w http.ResponseWriter, r *http.Request) {
	filter, err := commissionFilterFromQuery(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.billing.ExportCommissions(r.Context(), &buf, filter); err != nil {
		serviceError(w, err, "export commissions")
		return
	}
	writeDownload(w, "text/csv", "commissions.csv", buf.Bytes())
}

// GetCommission handles GET /admin/commissions/{id}
func (h *AdminHandler) GetCommission(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCommission(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "load commission")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// MarkPaid handles POST /admin/commissions/mark-paid
func (h *AdminHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req models.CommissionIDsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	n, err := h.billing.MarkCommissionsPaid(r.Context(), req.IDs)
	if err != nil {
		serviceError(w, err, "mark commissions paid")
		return
	}
	slog.Info("commissions marked paid", "requested", len(req.IDs), "paid", n)
	middleware.JSONResponse(w, http.StatusOK, models.BulkResponse{
		Success:  true,
		Message:  fmt.Sprintf("%d commissions marked as paid", n),
		Affected: n,
	})
}

// PayCommission handles POST /admin/commissions/{id}/pay
func (h *AdminHandler) PayCommission(w http.ResponseWriter, r *http.Request) {
	h.setCommissionStatus(w, r, models.CommissionPaid, "Commission marked as paid")
}

// CancelCommission handles POST /admin/commissions/{id}/cancel
func (h *AdminHandler) CancelCommission(w http.ResponseWriter, r *http.Request) {
	h.setCommissionStatus(w, r, models.CommissionCancelled, "Commission cancelled")
}

func (h *AdminHandler) setCommissionStatus(w http.ResponseWriter, r *http.Request, status, msg string) {
	id := r.PathValue("id")
	var n int
	var err error
	if status == models.CommissionPaid {
		n, err = h.billing.MarkCommissionsPaid(r.Context(), []string{id})
	} else {
		n, err = h.billing.BulkUpdateCommissions(r.Context(), []string{id}, status)
	}
	if err != nil {
		serviceError(w, err, "update commission")
		return
	}
	if n == 0 {
		if status == models.CommissionPaid {
			middleware.ErrorResponse(w, http.StatusConflict, "Commission is not pending")
		} else {
			middleware.ErrorResponse(w, http.StatusNotFound, "Commission not found")
		}
		return
	}
	slog.Info("commission status changed", "commission_id", id, "status", status)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: msg})
}

// PayAll handles POST /admin/commissions/pay-all?user_id=
func (h *AdminHandler) PayAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.billing.PayAllPending(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		serviceError(w, err, "pay commissions")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.BulkResponse{
		Success:  true,
		Message:  fmt.Sprintf("%d pending commissions marked as paid", n),
		Affected: n,
	})
}
