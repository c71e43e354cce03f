// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/models"
)

// Default superadmin created on an empty database
const (
	SeedAdminEmail    = "admin@webuzo-saas.com"
	SeedAdminPassword = "admin123"
	SeedAdminCode     = "ABC123"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the database and verifies the connection.
// driver is one of sqlite, postgres or mysql.
func Open(driver, dsn string) (*sqlx.DB, error) {
	var err error

	switch driver {
	case "sqlite":
		dsn = sqliteDSN(dsn)
	case "mysql":
		dsn, err = mysqlDSN(dsn)
		if err != nil {
			return nil, err
		}
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// Single writer; also keeps :memory: databases on one connection
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// RowsAffected counts matched rows, as on the other drivers
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// SeedSuperAdmin creates the initial superadmin account if no superadmin
// exists. Returns true when an account was created.
func SeedSuperAdmin(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM users WHERE role = ?`), models.RoleSuperAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to count superadmins: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(SeedAdminPassword)
	if err != nil {
		return false, err
	}

	userID := auth.NewID()
	now := time.Now().UTC()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO users (id, full_name, email, phone, password, role, status, reference_code,
			commission_percentage, commission_fixed, commission_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), userID, "Super Admin", SeedAdminEmail, "01700000000", hash, models.RoleSuperAdmin,
		models.UserActive, SeedAdminCode, "100.00", "50.00", models.CommissionPercentage, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert superadmin: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO reference_codes (id, code, user_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), auth.NewID(), SeedAdminCode, userID, true, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert superadmin reference code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}

	slog.Warn("created default superadmin; change its password", "email", SeedAdminEmail)
	return true, nil
}
