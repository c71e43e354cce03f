// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/handlers"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// Deps are the services the routes are served from
type Deps struct {
	Store        *store.Store
	Config       cliparse.Config
	Provisioning *provisioning.Service
	Billing      *billing.Service
	Mailer       handlers.ResetMailer
	Panel        handlers.PanelChecker
	Metrics      *middleware.Metrics
	LoginLimiter *middleware.RateLimiter
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.Store, d.Config, d.Provisioning, d.Mailer)
	apiHandler := handlers.NewAPIHandler(d.Store, d.Config, d.Provisioning)
	userHandler := handlers.NewUserHandler(d.Store, d.Billing)
	paymentHandler := handlers.NewPaymentHandler(d.Store, d.Billing)
	adminHandler := handlers.NewAdminHandler(d.Store, d.Provisioning, d.Billing, d.Panel)

	limit := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if d.LoginLimiter != nil {
		limit = d.LoginLimiter.Limit
	}
	portal := middleware.RequireRole(models.RoleExecutive, models.RoleAdmin, models.RoleSuperAdmin)
	admin := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	authed := middleware.RequireAuth
	log := middleware.WithLogging

	// Health and metrics
	mux.HandleFunc("GET /health", apiHandler.Health)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Account flows (public)
	mux.HandleFunc("POST /register", log(authHandler.Register))
	mux.HandleFunc("POST /login", log(limit(authHandler.Login)))
	mux.HandleFunc("POST /forgot-password", log(limit(authHandler.ForgotPassword)))
	mux.HandleFunc("GET /reset-password", log(authHandler.CheckResetToken))
	mux.HandleFunc("POST /reset-password", log(limit(authHandler.ResetPassword)))

	// Signed-in account
	mux.HandleFunc("POST /logout", log(authed(authHandler.Logout)))
	mux.HandleFunc("GET /me", log(authed(authHandler.Me)))
	mux.HandleFunc("POST /change-password", log(authed(authHandler.ChangePassword)))

	// Availability checks and public config
	mux.HandleFunc("POST /api/validate-email", log(apiHandler.ValidateEmail))
	mux.HandleFunc("POST /api/validate-domain", log(apiHandler.ValidateDomain))
	mux.HandleFunc("POST /api/validate-subdomain", log(apiHandler.ValidateSubdomain))
	mux.HandleFunc("POST /api/validate-reference", log(apiHandler.ValidateReference))
	mux.HandleFunc("GET /api/config", log(apiHandler.Config))
	mux.HandleFunc("GET /api/stats", log(authed(apiHandler.Stats)))

	// Payments
	mux.HandleFunc("POST /payments", log(authed(paymentHandler.Create)))
	mux.HandleFunc("GET /payments/{id}/success", log(authed(paymentHandler.Success)))

	// Portal (executives and staff)
	mux.HandleFunc("GET /user/dashboard", log(portal(userHandler.Dashboard)))
	mux.HandleFunc("GET /user/databases", log(portal(userHandler.Databases)))
	mux.HandleFunc("POST /user/databases/{id}/access", log(portal(userHandler.Access)))
	mux.HandleFunc("POST /user/databases/{id}/renew", log(portal(userHandler.Renew)))
	mux.HandleFunc("GET /user/commissions", log(portal(userHandler.Commissions)))
	mux.HandleFunc("GET /user/payments", log(portal(userHandler.Payments)))
	mux.HandleFunc("GET /user/payments/{id}", log(portal(userHandler.Payment)))
	mux.HandleFunc("GET /user/referrals", log(portal(userHandler.Referrals)))

	// Admin overview
	mux.HandleFunc("GET /admin/dashboard", log(admin(adminHandler.Dashboard)))
	mux.HandleFunc("GET /admin/reports", log(admin(adminHandler.Reports)))
	mux.HandleFunc("POST /admin/control-panel/test", log(admin(adminHandler.TestControlPanel)))

	// Admin users
	mux.HandleFunc("GET /admin/users", log(admin(adminHandler.ListUsers)))
	mux.HandleFunc("POST /admin/users", log(admin(adminHandler.CreateUser)))
	mux.HandleFunc("GET /admin/users/{id}", log(admin(adminHandler.GetUser)))
	mux.HandleFunc("PUT /admin/users/{id}", log(admin(adminHandler.UpdateUser)))
	mux.HandleFunc("DELETE /admin/users/{id}", log(admin(adminHandler.DeleteUser)))
	mux.HandleFunc("PUT /admin/users/{id}/role", log(admin(adminHandler.UpdateRole)))
	mux.HandleFunc("PUT /admin/users/{id}/status", log(admin(adminHandler.UpdateStatus)))
	mux.HandleFunc("POST /admin/users/{id}/promote", log(admin(adminHandler.Promote)))

	// Admin databases
	mux.HandleFunc("GET /admin/databases", log(admin(adminHandler.ListDatabases)))
	mux.HandleFunc("POST /admin/databases", log(admin(adminHandler.CreateDatabase)))
	mux.HandleFunc("GET /admin/databases/users", log(admin(adminHandler.DatabaseUsers)))
	mux.HandleFunc("POST /admin/databases/add", log(admin(adminHandler.AddDatabase)))
	mux.HandleFunc("POST /admin/databases/renew-expiring", log(admin(adminHandler.RenewExpiring)))
	mux.HandleFunc("GET /admin/databases/{id}", log(admin(adminHandler.GetDatabase)))
	mux.HandleFunc("DELETE /admin/databases/{id}", log(admin(adminHandler.DeleteDatabase)))
	mux.HandleFunc("POST /admin/databases/{id}/renew", log(admin(adminHandler.RenewDatabase)))
	mux.HandleFunc("PUT /admin/databases/{id}/domain", log(admin(adminHandler.EditDomain)))

	// Admin payments
	mux.HandleFunc("GET /admin/payments", log(admin(adminHandler.ListPayments)))
	mux.HandleFunc("GET /admin/payments/search", log(admin(adminHandler.SearchPayments)))
	mux.HandleFunc("GET /admin/payments/export", log(admin(adminHandler.ExportPayments)))
	mux.HandleFunc("POST /admin/payments/approve-all", log(admin(adminHandler.ApproveAll)))
	mux.HandleFunc("GET /admin/payments/{id}", log(admin(adminHandler.GetPayment)))
	mux.HandleFunc("PUT /admin/payments/{id}/status", log(admin(adminHandler.UpdatePaymentStatus)))
	mux.HandleFunc("POST /admin/payments/{id}/approve", log(admin(adminHandler.ApprovePayment)))
	mux.HandleFunc("POST /admin/payments/{id}/reject", log(admin(adminHandler.RejectPayment)))
	mux.HandleFunc("GET /admin/payments/{id}/receipt", log(admin(adminHandler.Receipt)))

	// Admin commissions
	mux.HandleFunc("GET /admin/commissions", log(admin(adminHandler.ListCommissions)))
	mux.HandleFunc("GET /admin/commissions/export", log(admin(adminHandler.ExportCommissions)))
	mux.HandleFunc("POST /admin/commissions/mark-paid", log(admin(adminHandler.MarkPaid)))
	mux.HandleFunc("POST /admin/commissions/pay-all", log(admin(adminHandler.PayAll)))
	mux.HandleFunc("GET /admin/commissions/{id}", log(admin(adminHandler.GetCommission)))
	mux.HandleFunc("POST /admin/commissions/{id}/pay", log(admin(adminHandler.PayCommission)))
	mux.HandleFunc("POST /admin/commissions/{id}/cancel", log(admin(adminHandler.CancelCommission)))

	// Admin reference codes
	mux.HandleFunc("GET /admin/reference-codes", log(admin(adminHandler.ReferenceCodes)))
	mux.HandleFunc("GET /admin/reference-codes/{code}/users", log(admin(adminHandler.ReferenceCodeUsers)))
	mux.HandleFunc("POST /admin/reference-codes/{id}/deactivate", log(admin(adminHandler.DeactivateReferenceCode)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("HospX API v1"))
	})

	var h http.Handler = mux
	if d.Metrics != nil {
		h = d.Metrics.Instrument(h)
	}
	h = middleware.Sessions(d.Store, d.Config.SessionSecret)(h)
	h = middleware.CORS(d.Config.CORSOrigins)(h)
	return middleware.SecurityHeaders(h)
}
