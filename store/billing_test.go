// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
	"github.com/Rajin-257/Hospx-Saas/testutil"
)

func TestPayments_CreateAndGet(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	tdb := testutil.CreateTestDatabase(t, st, u.ID, "pay.hospx.com", models.DomainSubdomain, st.Now())

	p := testutil.CreateTestPayment(t, st, u.ID, tdb.ID, "1500.50", models.PaymentPending)

	got, err := st.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, u.Email, got.UserEmail)
	require.NotNil(t, got.DatabaseID)
	assert.Equal(t, tdb.ID, *got.DatabaseID, "database_id copied from reference data")
	require.NotNil(t, got.DomainName)
	assert.Equal(t, "pay.hospx.com", *got.DomainName)
	assert.Equal(t, 1, got.ReferenceData.Period)
	assert.Equal(t, models.PeriodMonths, got.ReferenceData.PeriodType)

	notes := "checked"
	require.NoError(t, st.UpdatePaymentStatus(ctx, p.ID, models.PaymentFailed, &notes))
	got, err = st.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "checked", *got.Notes)

	ref := got.ReferenceData
	ref.RejectionReason = "duplicate"
	require.NoError(t, st.SetPaymentReferenceData(ctx, p.ID, ref))
	got, err = st.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "duplicate", got.ReferenceData.RejectionReason)

	assert.ErrorIs(t, st.UpdatePaymentStatus(ctx, "missing", models.PaymentFailed, nil), store.ErrNotFound)
}

func TestPayments_ListAndSearch(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	a := testutil.CreateTestUser(t, st, models.RoleUser, "alice@example.com", nil)
	b := testutil.CreateTestUser(t, st, models.RoleUser, "bob@example.com", nil)
	dbA := testutil.CreateTestDatabase(t, st, a.ID, "alice.hospx.com", models.DomainSubdomain, st.Now())
	dbB := testutil.CreateTestDatabase(t, st, b.ID, "bob.hospx.com", models.DomainSubdomain, st.Now())

	testutil.CreateTestPayment(t, st, a.ID, dbA.ID, "100", models.PaymentCompleted)
	testutil.CreateTestPayment(t, st, a.ID, dbA.ID, "200", models.PaymentPending)
	testutil.CreateTestPayment(t, st, b.ID, dbB.ID, "300", models.PaymentCompleted)

	today := st.Now()
	tomorrow := today.AddDate(0, 0, 1)
	tests := []struct {
		name   string
		filter store.PaymentFilter
		want   int
	}{
		{"all", store.PaymentFilter{}, 3},
		{"completed", store.PaymentFilter{Status: models.PaymentCompleted}, 2},
		{"by user", store.PaymentFilter{UserID: a.ID}, 2},
		{"search email", store.PaymentFilter{Search: "BOB"}, 1},
		{"today", store.PaymentFilter{Dates: store.DateRange{From: &today, To: &today}}, 3},
		{"from tomorrow", store.PaymentFilter{Dates: store.DateRange{From: &tomorrow}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := st.ListPayments(ctx, tt.filter, store.Page{})
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
			assert.Equal(t, tt.want, total)
		})
	}

	rows, total, err := st.SearchCompletedByEmail(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "pending payments are not searched")
	assert.Len(t, rows, 1)

	ids, err := st.PendingPaymentIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestPaymentStats(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", nil)
	tdb := testutil.CreateTestDatabase(t, st, u.ID, "stats.hospx.com", models.DomainSubdomain, st.Now())
	testutil.CreateTestPayment(t, st, u.ID, tdb.ID, "100", models.PaymentCompleted)
	testutil.CreateTestPayment(t, st, u.ID, tdb.ID, "250.25", models.PaymentCompleted)
	testutil.CreateTestPayment(t, st, u.ID, tdb.ID, "999", models.PaymentPending)

	stats, err := st.PaymentStats(ctx, "", store.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPayments)
	assert.Equal(t, 2, stats.CompletedPayments)
	assert.Equal(t, 1, stats.PendingPayments)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("350.25")), "revenue %s", stats.TotalRevenue)
	assert.True(t, stats.MonthlyRevenue.Equal(decimal.RequireFromString("350.25")))
	require.Len(t, stats.PaymentMethods, 1)
	assert.Equal(t, models.MethodCount{Method: models.MethodBkash, Count: 2}, stats.PaymentMethods[0])
}

func TestRevenueReport_GroupsByMonth(t *testing.T) {
	base := testutil.SetupStore(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, base, models.RoleUser, "c@example.com", nil)
	tdb := testutil.CreateTestDatabase(t, base, u.ID, "rev.hospx.com", models.DomainSubdomain, base.Now())

	jan := fixedClock(base, 2025, time.January, 5)
	feb := fixedClock(base, 2025, time.February, 20)
	testutil.CreateTestPayment(t, jan, u.ID, tdb.ID, "100", models.PaymentCompleted)
	testutil.CreateTestPayment(t, jan, u.ID, tdb.ID, "300", models.PaymentCompleted)
	testutil.CreateTestPayment(t, feb, u.ID, tdb.ID, "50", models.PaymentCompleted)
	testutil.CreateTestPayment(t, feb, u.ID, tdb.ID, "5000", models.PaymentPending)

	report, err := base.RevenueReport(ctx, store.DateRange{})
	require.NoError(t, err)
	require.Len(t, report.MonthlyData, 2)

	assert.Equal(t, "2025-02", report.MonthlyData[0].Month)
	assert.Equal(t, "February 2025", report.MonthlyData[0].MonthName)
	assert.Equal(t, 1, report.MonthlyData[0].PaymentCount)

	assert.Equal(t, "2025-01", report.MonthlyData[1].Month)
	assert.True(t, report.MonthlyData[1].Revenue.Equal(decimal.NewFromInt(400)))
	assert.True(t, report.MonthlyData[1].AverageOrder.Equal(decimal.NewFromInt(200)))

	// Mean of the monthly averages: (50 + 200) / 2
	assert.True(t, report.AverageOrder.Equal(decimal.NewFromInt(125)), "average %s", report.AverageOrder)

	require.Len(t, report.TopUsers, 1)
	assert.Equal(t, 3, report.TopUsers[0].OrderCount)
	assert.True(t, report.TopUsers[0].TotalRevenue.Equal(decimal.NewFromInt(450)))
}

func seedCommission(t *testing.T, st *store.Store, referrer, customer *models.User, dbID, amount, status string) *models.Commission {
	t.Helper()
	p := testutil.CreateTestPayment(t, st, customer.ID, dbID, "1000", models.PaymentCompleted)
	c := &models.Commission{
		UserID:           referrer.ID,
		ReferredUserID:   customer.ID,
		PaymentID:        p.ID,
		CommissionAmount: decimal.RequireFromString(amount),
		CommissionType:   models.CommissionPercentage,
		Status:           status,
	}
	require.NoError(t, st.CreateCommission(context.Background(), c))
	return c
}

func TestCommissions_OnePerPayment(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	c := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", &exec.ID)
	tdb := testutil.CreateTestDatabase(t, st, c.ID, "com.hospx.com", models.DomainSubdomain, st.Now())

	first := seedCommission(t, st, exec, c, tdb.ID, "100", models.CommissionPending)
	err := st.CreateCommission(ctx, &models.Commission{
		UserID: exec.ID, ReferredUserID: c.ID, PaymentID: first.PaymentID,
		CommissionAmount: decimal.NewFromInt(5), CommissionType: models.CommissionFixed,
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := st.GetCommission(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Email, got.ReferredUserEmail)
	assert.True(t, got.PaymentAmount.Equal(decimal.NewFromInt(1000)))
}

func TestMarkCommissionsPaid(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	c := testutil.CreateTestUser(t, st, models.RoleUser, "c@example.com", &exec.ID)
	tdb := testutil.CreateTestDatabase(t, st, c.ID, "paid.hospx.com", models.DomainSubdomain, st.Now())

	pending := seedCommission(t, st, exec, c, tdb.ID, "100", models.CommissionPending)
	cancelled := seedCommission(t, st, exec, c, tdb.ID, "50", models.CommissionCancelled)

	_, err := st.MarkCommissionsPaid(ctx, []string{pending.ID, "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := st.GetCommission(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPending, got.Status, "nothing changes when an id is unknown")

	n, err := st.MarkCommissionsPaid(ctx, []string{pending.ID, cancelled.ID, pending.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = st.GetCommission(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPaid, got.Status)
	assert.NotNil(t, got.PaidAt)

	got, err = st.GetCommission(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionCancelled, got.Status, "only pending rows are paid")

	n, err = st.UpdateCommissionStatus(ctx, []string{cancelled.ID}, models.CommissionPending)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCommissionReports(t *testing.T) {
	st := testutil.SetupStore(t)
	ctx := context.Background()
	exec := testutil.CreateTestUser(t, st, models.RoleExecutive, "e@example.com", nil)
	admin := testutil.CreateTestUser(t, st, models.RoleAdmin, "a@example.com", nil)
	c1 := testutil.CreateTestUser(t, st, models.RoleUser, "c1@example.com", &exec.ID)
	c2 := testutil.CreateTestUser(t, st, models.RoleUser, "c2@example.com", &admin.ID)
	db1 := testutil.CreateTestDatabase(t, st, c1.ID, "r1.hospx.com", models.DomainSubdomain, st.Now())
	db2 := testutil.CreateTestDatabase(t, st, c2.ID, "r2.hospx.com", models.DomainSubdomain, st.Now())

	seedCommission(t, st, exec, c1, db1.ID, "100", models.CommissionPaid)
	seedCommission(t, st, exec, c1, db1.ID, "40", models.CommissionPending)
	seedCommission(t, st, admin, c2, db2.ID, "10", models.CommissionCancelled)

	stats, err := st.CommissionStats(ctx, "", store.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCommissions)
	assert.Equal(t, 1, stats.PaidCommissions)
	assert.Equal(t, 1, stats.PendingCommissions)
	assert.Equal(t, 1, stats.CancelledCommissions)
	assert.True(t, stats.TotalAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, stats.PendingAmount.Equal(decimal.NewFromInt(40)))

	report, err := st.CommissionReport(ctx, store.CommissionFilter{})
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, exec.ID, report[0].UserID, "largest total first")
	assert.Equal(t, 1, report[0].ReferralCount)
	assert.Equal(t, 2, report[0].CommissionEntries)
	assert.True(t, report[0].PaidCommission.Equal(decimal.NewFromInt(100)))

	us, err := st.UserCommissionStats(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, us.TotalCommissions)
	assert.True(t, us.TotalEarned.Equal(decimal.NewFromInt(100)))
	assert.True(t, us.PendingEarnings.Equal(decimal.NewFromInt(40)))
	assert.NotNil(t, us.LatestCommission)

	empty, err := st.UserCommissionStats(ctx, c1.ID)
	require.NoError(t, err)
	assert.Nil(t, empty.FirstCommission)

	days, err := st.DailyCommissionSummary(ctx, store.CommissionFilter{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 3, days[0].Count)
	assert.Equal(t, 1, days[0].PaidCount)
	assert.True(t, days[0].PendingAmount.Equal(decimal.NewFromInt(40)))
}
