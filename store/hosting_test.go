// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
	"github.com/Rajin-257/Hospx-Saas/testutil"
)

// fixedClock pins the store to noon UTC on the given date
func fixedClock(st *store.Store, year int, month time.Month, day int) *store.Store {
	at := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return st.WithClock(func() time.Time { return at })
}

func TestReferenceCodes(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()

	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", &exec.ID)
	admin := testutil.CreateTestUser(t, st, models.RoleAdmin, "a@example.com", nil)

	rc, err := st.FindActiveReferenceCode(ctx, *exec.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, exec.ID, rc.UserID)
	assert.Equal(t, exec.FullName, rc.OwnerName)
	assert.Equal(t, 1, rc.ReferredCount)

	_, err = st.CreateReferenceCode(ctx, *exec.ReferenceCode, admin.ID)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	stats, err := st.ReferenceCodeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ReferenceCodeStats{Total: 2, Active: 2, Used: 1}, stats)

	users, err := st.UsersByReferenceCode(ctx, *exec.ReferenceCode)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, st.SetReferenceCodeActive(ctx, rc.ID, false))
	_, err = st.FindActiveReferenceCode(ctx, *exec.ReferenceCode)
	assert.ErrorIs(t, err, store.ErrNotFound, "inactive codes do not validate")

	active := true
	codes, err := st.ListReferenceCodes(ctx, store.ReferenceCodeFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, admin.ID, codes[0].UserID)
}

func TestDomainExists_ExcludesOwnDatabase(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	a := testutil.CreateTestDatabase(t, st, u.ID, "a.hospx.com", models.DomainSubdomain, st.Now())
	b := testutil.CreateTestDatabase(t, st, u.ID, "b.hospx.com", models.DomainSubdomain, st.Now())

	exists, err := st.DomainExists(ctx, "A.hospx.com", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.DomainExists(ctx, "a.hospx.com", a.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a database may keep its own domain")

	exists, err = st.DomainExists(ctx, "a.hospx.com", b.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRenewAndExpire(t *testing.T) {
	base := testutil.SetupStore(t)
	st := fixedClock(base, 2025, time.March, 10)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)

	past := testutil.CreateTestDatabase(t, st, u.ID, "old.hospx.com", models.DomainSubdomain,
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	soon := testutil.CreateTestDatabase(t, st, u.ID, "soon.hospx.com", models.DomainSubdomain,
		time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestDatabase(t, st, u.ID, "far.hospx.com", models.DomainSubdomain,
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))

	stats, err := st.DatabaseStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DatabaseStats{Total: 3, Active: 3, Expired: 1, ExpiringSoon: 1}, stats)

	n, err := st.MarkExpiredDatabases(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = st.MarkExpiredDomains(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := st.GetDatabase(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HostingExpired, got.Status)

	extended, err := st.ExtendExpiring(ctx, 7, 15)
	require.NoError(t, err)
	assert.Equal(t, 1, extended)
	got, err = st.GetDatabase(ctx, soon.ID)
	require.NoError(t, err)
	assert.True(t, got.ExpiryDate.Equal(time.Date(2025, time.March, 29, 0, 0, 0, 0, time.UTC)), "got %v", got.ExpiryDate)
	require.NotNil(t, got.LastRenewed)
	assert.True(t, got.LastRenewed.Equal(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, st.RenewDatabase(ctx, past.ID, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	got, err = st.GetDatabase(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HostingActive, got.Status)

	assert.ErrorIs(t, st.RenewDatabase(ctx, "missing", time.Now()), store.ErrNotFound)
}

func TestListDatabases(t *testing.T) {
	st := fixedClock(testutil.SetupStore(t), 2025, time.March, 10)
	ctx := context.Background()
	u1 := testutil.CreateTestUser(t, st, models.RoleUser, "one@example.com", nil)
	u2 := testutil.CreateTestUser(t, st, models.RoleUser, "two@example.com", nil)
	testutil.CreateTestDatabase(t, st, u1.ID, "alpha.hospx.com", models.DomainSubdomain,
		time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestDatabase(t, st, u2.ID, "beta.example.org", models.DomainCustom,
		time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		filter store.DatabaseFilter
		want   int
	}{
		{"all", store.DatabaseFilter{}, 2},
		{"by user", store.DatabaseFilter{UserID: u2.ID}, 1},
		{"search domain", store.DatabaseFilter{Search: "BETA"}, 1},
		{"search owner email", store.DatabaseFilter{Search: "one@"}, 1},
		{"expiring soon", store.DatabaseFilter{Expiry: store.ExpiryFilterExpiringSoon}, 1},
		{"expired", store.DatabaseFilter{Expiry: store.ExpiryFilterExpired}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := st.ListDatabases(ctx, tt.filter, store.Page{})
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestDeleteDatabase_RemovesDomain(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	tdb := testutil.CreateTestDatabase(t, st, u.ID, "gone.hospx.com", models.DomainSubdomain, st.Now())

	require.NoError(t, st.DeleteDatabase(ctx, tdb.ID))

	_, err := st.GetDomain(ctx, *tdb.DomainID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteDatabase(ctx, tdb.ID), store.ErrNotFound)
}

func TestSessions(t *testing.T) {
	base := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, base, models.RoleAdmin, "a@example.com", nil)

	_, err := base.CreateSession(ctx, "sess-1", u.ID)
	require.NoError(t, err)

	got, err := base.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	later := base.WithClock(func() time.Time { return time.Now().UTC().Add(25 * time.Hour) })
	_, err = later.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := later.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSettings(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()

	v, err := st.Setting(ctx, "maintenance", "off")
	require.NoError(t, err)
	assert.Equal(t, "off", v)

	require.NoError(t, st.PutSetting(ctx, "maintenance", "on", "maintenance mode"))
	require.NoError(t, st.PutSetting(ctx, "maintenance", "on", "maintenance mode"))

	v, err = st.Setting(ctx, "maintenance", "off")
	require.NoError(t, err)
	assert.Equal(t, "on", v)
}
