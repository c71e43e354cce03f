// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open accepts sqlite (modernc.org/sqlite, the default), postgres (lib/pq)
and mysql (go-sql-driver/mysql):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections enable foreign keys and are limited to one open
connection. MySQL DSNs are rewritten with parseTime=true, UTC and clientFoundRows so
updates report matched rows.

All queries in the application are written with ? placeholders and passed
through sqlx Rebind, so the same SQL runs on every driver.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for tables. On MySQL the
index statements drop IF NOT EXISTS and duplicate-name errors are ignored.

# Tables

  - users: accounts, roles, referral and commission settings
  - reference_codes: referral codes owned by executives and admins
  - domains: subdomain or custom domain per tenant
  - tenant_databases: provisioned databases with expiry
  - payments: manual payments with JSON reference_data
  - commissions: one per payment (payment_id UNIQUE)
  - email_logs: every attempted email
  - sessions: login sessions keyed by token HMAC
  - system_settings: key/value settings

# Relationships

	users 1──* reference_codes
	users 1──* domains 1──* tenant_databases
	users 1──* payments 1──1 commissions
	users 1──* users (referred_by)

# Seeding

SeedSuperAdmin creates admin@webuzo-saas.com / admin123 with reference
code ABC123 when no superadmin exists.
*/
package db
