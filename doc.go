// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the HospX API server.

HospX is a multi-tenant hosting platform for hospital software. Customers
sign up for a subdomain or custom domain and get a trial database on a
Webuzo control panel. Renewals are paid by mobile money and approved by
staff. Executives earn commissions on the customers they refer.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	SESSION_SECRET=... DATABASE_URL=hospx.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session-secret ...

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path, PostgreSQL URL or MySQL DSN
  - SESSION_SECRET (-session-secret): Secret for session token hashing

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or mysql (default: sqlite)
  - BASE_URL (-base-url): Public URL used in email links
  - CORS_ORIGINS (-cors): Comma-separated allowed origins
  - LOG_LEVEL, LOG_FORMAT: slog level and text or json output
  - WEBUZO_*: Control panel; provisioning is local-only without WEBUZO_HOST
  - SMTP_*: Outgoing mail; emails are only logged without SMTP_HOST
  - SUBSCRIPTION_PRICE, CURRENCY, SUBDOMAIN_SUFFIX, TRIAL_DAYS: Billing

On first start a superadmin account is seeded if none exists.

# Architecture

  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: sessions, roles, CORS, rate limiting, metrics, JSON helpers
  - provisioning: registration and hosting lifecycle
  - billing: payments, renewals, commissions, exports and receipts
  - controlpanel: Webuzo API client
  - mailer: templated email with delivery log
  - jobs: scheduled maintenance
  - store: SQL queries over sqlx
  - models: domain, request and response types
  - auth: passwords, tokens and role checks
  - db: connections, schema and seed data
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
