// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

type PaymentHandler struct {
	store   *store.Store
	billing *billing.Service
}

func NewPaymentHandler(st *store.Store, bs *billing.Service) *PaymentHandler {
	return &PaymentHandler{store: st, billing: bs}
}

// Create handles POST /payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.billing.CreatePayment(r.Context(), middleware.UserFromContext(r.Context()), req)
	if err != nil {
		serviceError(w, err, "create payment")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, p)
}

// Success handles GET /payments/{id}/success, the confirmation shown after
// a payment is submitted
func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	p, err := h.store.GetPayment(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != me.ID && !me.IsStaff()) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Payment not found")
		return
	}
	if err != nil {
		serviceError(w, err, "load payment")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}
