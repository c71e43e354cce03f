// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// APIHandler serves the availability checks used by the signup form and
// the shared stats
type APIHandler struct {
	store *store.Store
	cfg   cliparse.Config
	prov  *provisioning.Service
}

func NewAPIHandler(st *store.Store, cfg cliparse.Config, prov *provisioning.Service) *APIHandler {
	return &APIHandler{store: st, cfg: cfg, prov: prov}
}

func (h *APIHandler) parseValue(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.ValidateValueRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return "", false
	}
	v := strings.TrimSpace(req.Value)
	if v == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "value is required")
		return "", false
	}
	return v, true
}

// ValidateEmail handles POST /api/validate-email
func (h *APIHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	email, ok := h.parseValue(w, r)
	if !ok {
		return
	}
	exists, err := h.store.EmailExists(r.Context(), email)
	if err != nil {
		slog.Error("failed to check email", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: false, Message: "Email already registered"})
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: true, Message: "Email available"})
}

// ValidateDomain handles POST /api/validate-domain
func (h *APIHandler) ValidateDomain(w http.ResponseWriter, r *http.Request) {
	domain, ok := h.parseValue(w, r)
	if !ok {
		return
	}
	h.domainAvailability(w, r, domain, "Domain")
}

// ValidateSubdomain handles POST /api/validate-subdomain. The value is the
// label only.
func (h *APIHandler) ValidateSubdomain(w http.ResponseWriter, r *http.Request) {
	label, ok := h.parseValue(w, r)
	if !ok {
		return
	}
	h.domainAvailability(w, r, h.prov.SubdomainFor(label), "Subdomain")
}

func (h *APIHandler) domainAvailability(w http.ResponseWriter, r *http.Request, domain, kind string) {
	exists, err := h.store.DomainExists(r.Context(), domain, "")
	if err != nil {
		slog.Error("failed to check domain", "domain", domain, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: false, Message: kind + " already registered"})
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ValidationResponse{Valid: true, Message: kind + " available"})
}

// ValidateReference handles POST /api/validate-reference
func (h *APIHandler) ValidateReference(w http.ResponseWriter, r *http.Request) {
	code, ok := h.parseValue(w, r)
	if !ok {
		return
	}
	rc, err := h.store.FindActiveReferenceCode(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, models.ReferenceValidationResponse{Valid: false, Message: "Invalid reference code"})
		return
	}
	if err != nil {
		slog.Error("failed to check reference code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ReferenceValidationResponse{
		Valid:        true,
		Message:      "Valid reference code",
		ReferrerName: rc.OwnerName,
	})
}

type statsResponse struct {
	Users       models.UserStats       `json:"users"`
	Databases   models.DatabaseStats   `json:"databases"`
	Payments    models.PaymentStats    `json:"payments"`
	Commissions models.CommissionStats `json:"commissions"`
}

// Stats handles GET /api/stats
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := collectStats(r, h.store)
	if err != nil {
		slog.Error("failed to load stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}

func collectStats(r *http.Request, st *store.Store) (statsResponse, error) {
	ctx := r.Context()
	var s statsResponse
	var err error
	if s.Users, err = st.UserStats(ctx); err != nil {
		return s, err
	}
	if s.Databases, err = st.DatabaseStats(ctx); err != nil {
		return s, err
	}
	if s.Payments, err = st.PaymentStats(ctx, "", store.DateRange{}); err != nil {
		return s, err
	}
	if s.Commissions, err = st.CommissionStats(ctx, "", store.DateRange{}); err != nil {
		return s, err
	}
	return s, nil
}

type configResponse struct {
	SubscriptionPrice decimal.Decimal `json:"subscription_price"`
	Currency          string          `json:"currency"`
	SubdomainSuffix   string          `json:"subdomain_suffix"`
	TrialDays         int             `json:"trial_days"`
	PaymentMethods    []string        `json:"payment_methods"`
}

// Config handles GET /api/config
func (h *APIHandler) Config(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, configResponse{
		SubscriptionPrice: h.cfg.Billing.Price(),
		Currency:          h.cfg.Billing.Currency,
		SubdomainSuffix:   h.cfg.Billing.SubdomainSuffix,
		TrialDays:         h.cfg.Billing.TrialDays,
		PaymentMethods:    []string{models.MethodBkash, models.MethodNagad, models.MethodRocket, models.MethodBank},
	})
}

// Health handles GET /health
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
