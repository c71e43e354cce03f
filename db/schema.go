// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sqlx.DB) error {
	ts := timestampType(db.DriverName())

	for _, stmt := range tables {
		stmt = strings.ReplaceAll(stmt, "{{timestamp}}", ts)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	for _, stmt := range indexes {
		if db.DriverName() == "mysql" {
			// MySQL has no CREATE INDEX IF NOT EXISTS
			stmt = strings.Replace(stmt, " IF NOT EXISTS", "", 1)
		}
		if _, err := db.Exec(stmt); err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func timestampType(driver string) string {
	if driver == "mysql" {
		return "DATETIME"
	}
	return "TIMESTAMP"
}

// isDuplicateIndex matches MySQL error 1061 (duplicate key name)
func isDuplicateIndex(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1061
}

var tables = []string{
	// Users
	`CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(36) PRIMARY KEY,
    full_name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    phone VARCHAR(20) NOT NULL,
    password VARCHAR(255),
    role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('superadmin', 'admin', 'executive', 'user')),
    status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    reference_code VARCHAR(50),
    referred_by VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
    commission_percentage DECIMAL(5,2) NOT NULL DEFAULT 10.00,
    commission_fixed DECIMAL(10,2) NOT NULL DEFAULT 50.00,
    commission_type VARCHAR(20) NOT NULL DEFAULT 'percentage' CHECK (commission_type IN ('percentage', 'fixed')),
    password_reset_token VARCHAR(64),
    password_reset_expires {{timestamp}} NULL,
    created_at {{timestamp}} NOT NULL,
    updated_at {{timestamp}} NOT NULL
)`,

	// Reference codes
	`CREATE TABLE IF NOT EXISTS reference_codes (
    id VARCHAR(36) PRIMARY KEY,
    code VARCHAR(50) NOT NULL UNIQUE,
    user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at {{timestamp}} NOT NULL
)`,

	// Domains
	`CREATE TABLE IF NOT EXISTS domains (
    id VARCHAR(36) PRIMARY KEY,
    domain_name VARCHAR(255) NOT NULL UNIQUE,
    user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    database_name VARCHAR(255),
    expiry_date {{timestamp}} NOT NULL,
    domain_type VARCHAR(20) NOT NULL CHECK (domain_type IN ('subdomain', 'custom')),
    status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'expired', 'suspended')),
    created_at {{timestamp}} NOT NULL,
    last_accessed {{timestamp}} NULL
)`,

	// Tenant databases
	`CREATE TABLE IF NOT EXISTS tenant_databases (
    id VARCHAR(36) PRIMARY KEY,
    database_name VARCHAR(255) NOT NULL UNIQUE,
    user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    domain_id VARCHAR(36) REFERENCES domains(id) ON DELETE SET NULL,
    expiry_date {{timestamp}} NOT NULL,
    last_renewed {{timestamp}} NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'expired', 'suspended')),
    created_at {{timestamp}} NOT NULL,
    last_accessed {{timestamp}} NULL
)`,

	// Payments
	`CREATE TABLE IF NOT EXISTS payments (
    id VARCHAR(36) PRIMARY KEY,
    user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount DECIMAL(10,2) NOT NULL,
    currency VARCHAR(3) NOT NULL DEFAULT 'BDT',
    payment_method VARCHAR(20) NOT NULL CHECK (payment_method IN ('bkash', 'nagad', 'rocket', 'bank', 'card')),
    transaction_id VARCHAR(255),
    status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed', 'cancelled')),
    payment_type VARCHAR(20) NOT NULL CHECK (payment_type IN ('subscription', 'renewal', 'extend')),
    database_id VARCHAR(36),
    reference_data TEXT,
    notes TEXT,
    created_at {{timestamp}} NOT NULL,
    updated_at {{timestamp}} NOT NULL
)`,

	// Commissions (one per payment)
	`CREATE TABLE IF NOT EXISTS commissions (
    id VARCHAR(36) PRIMARY KEY,
    user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    referred_user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    payment_id VARCHAR(36) NOT NULL UNIQUE REFERENCES payments(id) ON DELETE CASCADE,
    commission_amount DECIMAL(10,2) NOT NULL,
    commission_type VARCHAR(20) NOT NULL CHECK (commission_type IN ('percentage', 'fixed')),
    status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'cancelled')),
    created_at {{timestamp}} NOT NULL,
    paid_at {{timestamp}} NULL
)`,

	// Email logs
	`CREATE TABLE IF NOT EXISTS email_logs (
    id VARCHAR(36) PRIMARY KEY,
    to_email VARCHAR(255) NOT NULL,
    subject VARCHAR(500) NOT NULL,
    body TEXT,
    status VARCHAR(10) NOT NULL CHECK (status IN ('sent', 'failed')),
    error_message TEXT,
    created_at {{timestamp}} NOT NULL
)`,

	// Sessions (id is the HMAC of the cookie token)
	`CREATE TABLE IF NOT EXISTS sessions (
    id VARCHAR(64) PRIMARY KEY,
    user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at {{timestamp}} NOT NULL,
    created_at {{timestamp}} NOT NULL
)`,

	// System settings
	`CREATE TABLE IF NOT EXISTS system_settings (
    setting_key VARCHAR(255) PRIMARY KEY,
    setting_value TEXT,
    description TEXT,
    updated_at {{timestamp}} NOT NULL
)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
	`CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by)`,
	`CREATE INDEX IF NOT EXISTS idx_reference_codes_user ON reference_codes(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_domains_user ON domains(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_databases_user ON tenant_databases(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_databases_expiry ON tenant_databases(expiry_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
	`CREATE INDEX IF NOT EXISTS idx_commissions_user ON commissions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
}
