package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/controlpanel"
	"github.com/Rajin-257/Hospx-Saas/db"
	"github.com/Rajin-257/Hospx-Saas/jobs"
	"github.com/Rajin-257/Hospx-Saas/mailer"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/router"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// shutdownTimeout bounds graceful shutdown of the server and scheduler
const shutdownTimeout = 15 * time.Second

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "driver", cfg.DatabaseType)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	created, err := db.SeedSuperAdmin(ctx, dbConn)
	if err != nil {
		slog.Error("superadmin seed failed", "error", err)
		os.Exit(1)
	}
	if created {
		slog.Warn("default superadmin created, change its password", "email", db.SeedAdminEmail)
	}
	slog.Info("Database schema ready", "driver", cfg.DatabaseType)

	// Services
	st := store.New(dbConn)
	panel := controlpanel.New(cfg.ControlPanel)
	if !panel.Enabled() {
		slog.Warn("control panel not configured, hosting is recorded locally only")
	}
	if !cfg.SMTPEnabled() {
		slog.Warn("SMTP not configured, emails are logged but not delivered")
	}
	mail := mailer.New(st, mailer.NewSMTPSender(cfg.SMTP), cfg.BaseURL, cfg.Billing.TrialDays)
	prov := provisioning.New(st, panel, mail, cfg)
	bs := billing.New(st, cfg.Billing)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRate)

	// Scheduled maintenance
	sched := jobs.New(st, loginLimiter)
	if err := sched.Start(ctx); err != nil {
		slog.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	// Create router
	handler := router.NewRouter(router.Deps{
		Store:        st,
		Config:       cfg,
		Provisioning: prov,
		Billing:      bs,
		Mailer:       mail,
		Panel:        panel,
		Metrics:      middleware.NewMetrics(),
		LoginLimiter: loginLimiter,
	})

	// Create server
	server := http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Closed once the server and scheduler have both stopped
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Wait for Ctrl-C or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		if err := sched.Stop(shutdownCtx); err != nil {
			slog.Error("scheduler shutdown failed", "error", err)
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "base_url", cfg.BaseURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("Server closed")
}
