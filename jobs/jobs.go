// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// Schedules in robfig/cron descriptor syntax
const (
	SessionCleanupSchedule = "@every 15m"
	ExpirySchedule         = "@hourly"
	LimiterPruneSchedule   = "@every 10m"
)

// limiterIdle is how long a client may stay quiet before its rate limiter
// is forgotten
const limiterIdle = 30 * time.Minute

// jobTimeout bounds a single run
const jobTimeout = 2 * time.Minute

// Scheduler runs periodic maintenance against the store
type Scheduler struct {
	store   *store.Store
	limiter *middleware.RateLimiter
	cron    *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler. limiter may be nil.
func New(st *store.Store, limiter *middleware.RateLimiter) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	return &Scheduler{
		store:   st,
		limiter: limiter,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers every job and starts the cron goroutine. Jobs run with
// contexts derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	jobs := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{SessionCleanupSchedule, "session cleanup", s.CleanupSessions},
		{ExpirySchedule, "hosting expiry", s.ExpireHosting},
		{LimiterPruneSchedule, "rate limiter prune", s.PruneLimiter},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(j.name, j.run) }); err != nil {
			s.cancel()
			return fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(jobs))
	return nil
}

// Stop cancels running jobs and waits for them to return, or for ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := s.cron.Stop().Done()
	select {
	case <-done:
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		slog.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	slog.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
}

// CleanupSessions deletes expired login sessions
func (s *Scheduler) CleanupSessions(ctx context.Context) error {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("expired sessions deleted", "count", n)
	}
	return nil
}

// ExpireHosting marks databases and domains past their expiry date expired
func (s *Scheduler) ExpireHosting(ctx context.Context) error {
	dbs, err := s.store.MarkExpiredDatabases(ctx)
	if err != nil {
		return err
	}
	domains, err := s.store.MarkExpiredDomains(ctx)
	if err != nil {
		return err
	}
	if dbs > 0 || domains > 0 {
		slog.Info("hosting expired", "databases", dbs, "domains", domains)
	}
	return nil
}

// PruneLimiter forgets idle rate limiter clients
func (s *Scheduler) PruneLimiter(context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if n := s.limiter.Prune(limiterIdle); n > 0 {
		slog.Debug("rate limiter pruned", "clients", n)
	}
	return nil
}
