// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package jobs runs periodic maintenance on a robfig/cron scheduler.

	sched := jobs.New(st, loginLimiter)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop(shutdownCtx)

Jobs:

  - CleanupSessions, every 15 minutes
  - ExpireHosting, hourly: databases and domains past expiry become expired
  - PruneLimiter, every 10 minutes

Each job can also be called directly. A run that overlaps the previous one
of the same job is skipped, and a panic in a job is recovered and logged.
*/
package jobs
