// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
	"github.com/Rajin-257/Hospx-Saas/testutil"
)

func TestCreateUser_Defaults(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()

	u := &models.User{FullName: "Rahim", Email: "  Rahim@Example.com ", Phone: "01711111111"}
	require.NoError(t, st.CreateUser(ctx, u))

	got, err := st.GetUserByEmail(ctx, "rahim@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, models.UserActive, got.Status)
	assert.Equal(t, models.CommissionPercentage, got.CommissionType)
	assert.True(t, got.CommissionPercentage.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.CommissionFixed.Equal(decimal.NewFromInt(50)))
	assert.False(t, got.HasPassword())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, &models.User{FullName: "A", Email: "a@example.com", Phone: "01700000001"}))
	err := st.CreateUser(ctx, &models.User{FullName: "B", Email: "A@example.com", Phone: "01700000002"})
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	exists, err := st.EmailExists(ctx, "a@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetUser_NotFound(t *testing.T) {
	st := testutil.SetupStore(t)
	_, err := st.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListUsers_FiltersAndPaging(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()

	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "exec@example.com", nil)
	for _, email := range []string{"c1@example.com", "c2@example.com", "c3@example.com"} {
		testutil.CreateTestUser(t, st, models.RoleUser, email, &exec.ID)
	}
	testutil.CreateTestUser(t, st, models.RoleAdmin, "admin@example.com", nil)

	tests := []struct {
		name   string
		filter store.UserFilter
		page   store.Page
		want   int
		total  int
	}{
		{"all", store.UserFilter{}, store.Page{}, 5, 5},
		{"by role", store.UserFilter{Role: models.RoleUser}, store.Page{}, 3, 3},
		{"referred", store.UserFilter{ReferredBy: exec.ID}, store.Page{}, 3, 3},
		{"search", store.UserFilter{Search: "EXEC@"}, store.Page{}, 1, 1},
		{"second page", store.UserFilter{}, store.Page{Page: 2, PerPage: 2}, 2, 5},
		{"past the end", store.UserFilter{}, store.Page{Page: 4, PerPage: 2}, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := st.ListUsers(ctx, tt.filter, tt.page)
			require.NoError(t, err)
			assert.Len(t, users, tt.want)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)

	name := "Renamed"
	pct := decimal.RequireFromString("12.5")
	require.NoError(t, st.UpdateUser(ctx, u.ID, store.UserUpdate{FullName: &name, CommissionPercentage: &pct}))

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.FullName)
	assert.True(t, got.CommissionPercentage.Equal(pct))
	assert.Equal(t, u.Email, got.Email)

	assert.NoError(t, st.UpdateUser(ctx, u.ID, store.UserUpdate{}), "empty update is a no-op")
	assert.ErrorIs(t, st.UpdateUser(ctx, "missing", store.UserUpdate{FullName: &name}), store.ErrNotFound)
}

func TestPromoteToExecutive_OnlyCustomers(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	customer := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	admin := testutil.CreateTestUser(t, st, models.RoleAdmin, "a@example.com", nil)

	ok, err := st.PromoteToExecutive(ctx, customer.ID, "hash", "REF-AAAA0000")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := st.GetUser(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleExecutive, got.Role)
	require.NotNil(t, got.ReferenceCode)
	assert.Equal(t, "REF-AAAA0000", *got.ReferenceCode)

	ok, err = st.PromoteToExecutive(ctx, admin.ID, "hash", "REF-BBBB0000")
	require.NoError(t, err)
	assert.False(t, ok, "admins cannot be promoted")
}

func TestResetToken(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)

	require.NoError(t, st.SetResetToken(ctx, u.ID, "tok", st.Now().Add(time.Hour)))

	got, err := st.GetUserByResetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	later := st.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = later.GetUserByResetToken(ctx, "tok")
	assert.ErrorIs(t, err, store.ErrNotFound, "expired token")

	require.NoError(t, st.ResetPassword(ctx, u.ID, "newhash"))
	_, err = st.GetUserByResetToken(ctx, "tok")
	assert.ErrorIs(t, err, store.ErrNotFound, "token cleared")
}

func TestDeleteUser_RemovesDependents(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()

	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	customer := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", &exec.ID)
	tdb := testutil.CreateTestDatabase(t, st, customer.ID, "shop.hospx.com", models.DomainSubdomain, st.Now().AddDate(0, 0, 10))
	p := testutil.CreateTestPayment(t, st, customer.ID, tdb.ID, "1000", models.PaymentCompleted)
	require.NoError(t, st.CreateCommission(ctx, &models.Commission{
		UserID: exec.ID, ReferredUserID: customer.ID, PaymentID: p.ID,
		CommissionAmount: decimal.NewFromInt(100), CommissionType: models.CommissionPercentage,
	}))

	require.NoError(t, st.DeleteUser(ctx, exec.ID))

	got, err := st.GetUser(ctx, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReferredBy, "referral link cleared")
	_, err = st.GetCommissionByPayment(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.DeleteUser(ctx, customer.ID))
	_, err = st.GetDatabase(ctx, tdb.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetPayment(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, st.DeleteUser(ctx, customer.ID), store.ErrNotFound)
}

func TestUserStats(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, st, models.RoleAdmin, "a@example.com", nil)
	testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	c := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	require.NoError(t, st.SetUserStatus(ctx, c.ID, models.UserInactive))

	stats, err := st.UserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Total: 3, Active: 2, Executives: 1, Admins: 1, Customers: 1}, stats)
}

func TestReferredUsers(t *testing.T) {
	st := testutil.SetupStore(t)
	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	c := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", &exec.ID)
	testutil.CreateTestUser(t, st, models.RoleUser, "other@example.com", nil)
	testutil.CreateTestDatabase(t, st, c.ID, "clinic.hospx.com", models.DomainSubdomain, st.Now().AddDate(0, 1, 0))

	rows, err := st.ReferredUsers(context.Background(), exec.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, c.ID, rows[0].ID)
	require.NotNil(t, rows[0].DomainName)
	assert.Equal(t, "clinic.hospx.com", *rows[0].DomainName)
}
