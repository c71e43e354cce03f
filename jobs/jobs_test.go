// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStartStop(t *testing.T) {
	s := New(testutil.SetupStore(t), middleware.NewRateLimiter(10))
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestExpireHosting(t *testing.T) {
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	st := testutil.SetupStore(t).WithClock(func() time.Time { return at })
	u := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	old := testutil.CreateTestDatabase(t, st, u.ID, "old.hospx.com", models.DomainSubdomain,
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	live := testutil.CreateTestDatabase(t, st, u.ID, "live.hospx.com", models.DomainSubdomain,
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	s := New(st, nil)
	require.NoError(t, s.ExpireHosting(context.Background()))

	ctx := context.Background()
	got, err := st.GetDatabase(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HostingExpired, got.Status)
	dom, err := st.GetDomain(ctx, *old.DomainID)
	require.NoError(t, err)
	assert.Equal(t, models.HostingExpired, dom.Status)

	got, err = st.GetDatabase(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HostingActive, got.Status)

	require.NoError(t, s.ExpireHosting(ctx), "second pass has nothing to do")
}

func TestCleanupSessions(t *testing.T) {
	base := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, base, models.RoleAdmin, "a@example.com", nil)
	_, err := base.CreateSession(ctx, "sess-1", u.ID)
	require.NoError(t, err)

	require.NoError(t, New(base, nil).CleanupSessions(ctx))
	_, err = base.GetSession(ctx, "sess-1")
	require.NoError(t, err, "live sessions are kept")

	later := base.WithClock(func() time.Time { return time.Now().UTC().Add(48 * time.Hour) })
	require.NoError(t, New(later, nil).CleanupSessions(ctx))
	n, err := later.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already deleted")
}

func TestPruneLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(10)
	rl.Allow("203.0.113.7")

	s := New(testutil.SetupStore(t), rl)
	require.NoError(t, s.PruneLimiter(context.Background()))
	assert.Equal(t, 1, rl.Len(), "recent clients are kept")

	assert.NoError(t, New(testutil.SetupStore(t), nil).PruneLimiter(context.Background()))
}
