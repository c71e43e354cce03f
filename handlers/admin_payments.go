// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

func paymentFilterFromQuery(r *http.Request) (store.PaymentFilter, error) {
	q := r.URL.Query()
	dates, err := dateRangeFromQuery(r)
	if err != nil {
		return store.PaymentFilter{}, err
	}
	return store.PaymentFilter{
		Status:        q.Get("status"),
		PaymentMethod: q.Get("payment_method"),
		PaymentType:   q.Get("payment_type"),
		UserID:        q.Get("user_id"),
		Search:        q.Get("search"),
		Dates:         dates,
	}, nil
}

type paymentsResponse struct {
	models.Paginated[models.PaymentDetail]
	Stats models.PaymentStats `json:"stats"`
}

// ListPayments handles GET /admin/payments
func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := paymentFilterFromQuery(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	page := pageFromQuery(r)

	rows, total, err := h.store.ListPayments(r.Context(), filter, page)
	if err != nil {
		serviceError(w, err, "load payments")
		return
	}
	stats, err := h.store.PaymentStats(r.Context(), "", filter.Dates)
	if err != nil {
		serviceError(w, err, "load payments")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, paymentsResponse{Paginated: paginated(rows, page, total), Stats: stats})
}

// SearchPayments handles GET /admin/payments/search?email=&page=, a search
// of completed payments by payer email
func (h *AdminHandler) SearchPayments(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	rows, total, err := h.store.SearchCompletedByEmail(r.Context(), email, page)
	if err != nil {
		serviceError(w, err, "search payments")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, paginated(rows, store.Page{Page: page, PerPage: store.SearchPerPage}, total))
}

// ExportPayments handles GET /admin/payments/export, the filtered list as CSV
func (h *AdminHandler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := paymentFilterFromQuery(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.billing.ExportPayments(r.Context(), &buf, filter); err != nil {
		serviceError(w, err, "export payments")
		return
	}
	writeDownload(w, "text/csv", "payments.csv", buf.Bytes())
}

// GetPayment handles GET /admin/payments/{id}
func (h *AdminHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "load payment")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}

// UpdatePaymentStatus handles PUT /admin/payments/{id}/status
func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ValidationErrorResponse(w, err)
		return
	}

	id := r.PathValue("id")
	if err := h.billing.UpdateStatus(r.Context(), id, req.Status, strings.TrimSpace(req.Notes)); err != nil {
		serviceError(w, err, "update payment status")
		return
	}
	slog.Info("payment status changed", "payment_id", id, "status", req.Status)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Payment status updated successfully"})
}

// ApprovePayment handles POST /admin/payments/{id}/approve
func (h *AdminHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	res, err := h.billing.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "approve payment")
		return
	}

	msg := "Payment approved successfully"
	if res.Renewed {
		msg += ". Database renewed until " + res.NewExpiry
	}
	middleware.JSONResponse(w, http.StatusOK, models.ApproveResponse{
		Success: true,
		Message: msg,
		Renewed: res.Renewed,
		Warning: res.Warnings,
	})
}

// RejectPayment handles POST /admin/payments/{id}/reject
func (h *AdminHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	var req models.RejectPaymentRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	id := r.PathValue("id")
	if err := h.billing.Reject(r.Context(), id, req.Reason); err != nil {
		serviceError(w, err, "reject payment")
		return
	}
	slog.Info("payment rejected", "payment_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Payment rejected"})
}

// ApproveAll handles POST /admin/payments/approve-all
func (h *AdminHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.billing.ApproveAllPending(r.Context())
	if err != nil {
		serviceError(w, err, "approve payments")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.BulkResponse{
		Success:  true,
		Message:  fmt.Sprintf("Approved %d pending payments", n),
		Affected: n,
	})
}

// Receipt handles GET /admin/payments/{id}/receipt
func (h *AdminHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	body, name, err := h.billing.Receipt(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "render receipt")
		return
	}
	writeDownload(w, "text/html; charset=utf-8", name, body)
}

func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
