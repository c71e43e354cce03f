// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request completion with status and duration_ms; the start line is
logged at debug level.

# Sessions and Roles

Sessions resolves the session cookie to a user and stores it in the request
context. The user row is reloaded on every request:

	handler := middleware.Sessions(st, cfg.SessionSecret)(mux)

Guard routes with RequireAuth or RequireRole:

	admin := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	mux.HandleFunc("GET /admin/users", middleware.WithLogging(admin(h.ListUsers)))

Handlers read the user with UserFromContext.

# CORS and Security Headers

	handler = middleware.SecurityHeaders(middleware.CORS(cfg.CORSOrigins)(handler))

CORS allows credentialed requests from the configured origins, or reflects
any origin when none are configured.

# Rate Limiting

RateLimiter throttles per client IP. Login and password reset use it:

	limiter := middleware.NewRateLimiter(cfg.LoginRate)
	mux.HandleFunc("POST /login", middleware.WithLogging(limiter.Limit(h.Login)))

Prune drops idle clients and is run by the maintenance jobs.

# Metrics

Metrics must wrap the mux directly so the matched pattern is visible:

	metrics := middleware.NewMetrics()
	handler := metrics.Instrument(mux)
	mux.Handle("GET /metrics", metrics.Handler())

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationErrorResponse(w, err)

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
