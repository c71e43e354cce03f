// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the HospX API.

# Handler Types

Each handler is a struct over the store and the services it drives:

  - AuthHandler: registration, login, logout and password flows
  - APIHandler: availability checks, platform stats, public config
  - UserHandler: the customer and executive portal
  - PaymentHandler: payment submission by portal users
  - AdminHandler: user, database, payment, commission and report management

Handlers are created via constructor functions:

	adminHandler := handlers.NewAdminHandler(st, prov, bs, panel)

Authentication is enforced by router middleware; handlers read the
current user with middleware.UserFromContext.

# Errors

Service errors are translated by serviceError. Validation failures become
400 with per-field messages, missing rows 404, conflicts 409 and ownership
violations 403. Anything else is logged and returned as a generic 500.

# Registration

	POST /register → Register (creates user, domain and trial database)

Registration succeeds even if the control panel is unreachable; panel
failures are returned as warnings.

# Payments

Portal users submit mobile-money payments, which stay pending until an
admin approves them:

	POST /payments                     → Create
	POST /admin/payments/{id}/approve  → ApprovePayment (renews, pays commission)
	POST /admin/payments/{id}/reject   → RejectPayment

# Commissions

Approving a payment credits the referrer of the database owner. Admins
settle commissions individually, by id list, or per referrer:

	POST /admin/commissions/{id}/pay
	POST /admin/commissions/mark-paid
	POST /admin/commissions/pay-all?user_id=
*/
package handlers
