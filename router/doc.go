// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the HospX API.

# Route Registration

NewRouter wires every handler onto an http.ServeMux and wraps it in the
middleware stack:

	h := router.NewRouter(router.Deps{Store: st, Config: cfg, ...})

Requests pass through, outermost first: SecurityHeaders, CORS, Sessions
(resolves the session cookie to a user), then Prometheus instrumentation.

# Access

Routes are guarded per group:

	public      /register, /login, /forgot-password, /reset-password,
	            /api/validate-*, /api/config, /health, /metrics
	signed in   /me, /logout, /change-password, /api/stats, /payments
	portal      /user/*   (executive, admin, superadmin)
	staff       /admin/*  (admin, superadmin)

Login, forgot-password and reset-password share the per-IP LoginLimiter.
*/
package router
