// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajin-257/Hospx-Saas/billing"
	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/controlpanel"
	"github.com/Rajin-257/Hospx-Saas/mailer"
	"github.com/Rajin-257/Hospx-Saas/middleware"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/provisioning"
	"github.com/Rajin-257/Hospx-Saas/store"
	"github.com/Rajin-257/Hospx-Saas/testutil"
)

// testEnv wires every handler over one test store with the control panel
// disabled and mail captured
type testEnv struct {
	st    *store.Store
	cfg   cliparse.Config
	mail  *mailer.Recorder
	auth  *AuthHandler
	api   *APIHandler
	user  *UserHandler
	pay   *PaymentHandler
	admin *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	st := testutil.SetupStore(t).WithClock(func() time.Time { return at })
	cfg := testutil.GetTestConfig()

	rec := &mailer.Recorder{}
	m := mailer.New(st, rec, cfg.BaseURL, cfg.Billing.TrialDays)
	panel := controlpanel.New(cfg.ControlPanel)
	prov := provisioning.New(st, panel, m, cfg)
	bs := billing.New(st, cfg.Billing)

	return &testEnv{
		st:    st,
		cfg:   cfg,
		mail:  rec,
		auth:  NewAuthHandler(st, cfg, prov, m),
		api:   NewAPIHandler(st, cfg, prov),
		user:  NewUserHandler(st, bs),
		pay:   NewPaymentHandler(st, bs),
		admin: NewAdminHandler(st, prov, bs, panel),
	}
}

// as attaches u to the request the way the session middleware does
func as(req *http.Request, u *models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), u))
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &models.ValidationError{Fields: map[string]string{"email": "email"}}, http.StatusBadRequest},
		{"store not found", fmt.Errorf("load: %w", store.ErrNotFound), http.StatusNotFound},
		{"payment not found", billing.ErrPaymentNotFound, http.StatusNotFound},
		{"user not found", provisioning.ErrUserNotFound, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"email taken", provisioning.ErrEmailTaken, http.StatusConflict},
		{"already completed", billing.ErrAlreadyCompleted, http.StatusConflict},
		{"billing forbidden", billing.ErrForbidden, http.StatusForbidden},
		{"role forbidden", provisioning.ErrForbidden, http.StatusForbidden},
		{"bad reference", provisioning.ErrInvalidReference, http.StatusBadRequest},
		{"bad status", fmt.Errorf("%w: %q", billing.ErrInvalidStatus, "x"), http.StatusBadRequest},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			serviceError(w, tt.err, "do thing")
			testutil.AssertStatus(t, w, tt.want)
		})
	}
}

func TestServiceError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	serviceError(w, errors.New("pq: password authentication failed"), "load users")

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, "Failed to load users", resp.Message)
}

func TestDateRangeFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?date_from=2025-01-01&date_to=2025-01-31", nil)
	dr, err := dateRangeFromQuery(req)
	require.NoError(t, err)
	require.NotNil(t, dr.From)
	require.NotNil(t, dr.To)
	assert.Equal(t, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), *dr.To)

	dr, err = dateRangeFromQuery(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Nil(t, dr.From)

	_, err = dateRangeFromQuery(httptest.NewRequest("GET", "/x?date_from=01/02/2025", nil))
	assert.Error(t, err)
}

func TestPageFromQuery(t *testing.T) {
	p := pageFromQuery(httptest.NewRequest("GET", "/x?page=3&per_page=500", nil))
	assert.Equal(t, 3, p.Number())
	assert.Equal(t, 100, p.Limit())

	p = pageFromQuery(httptest.NewRequest("GET", "/x?page=abc", nil))
	assert.Equal(t, 1, p.Number())
	assert.Equal(t, store.DefaultPerPage, p.Limit())
}

func TestDashboardFor(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", dashboardFor(&models.User{Role: models.RoleSuperAdmin}))
	assert.Equal(t, "/admin/dashboard", dashboardFor(&models.User{Role: models.RoleAdmin}))
	assert.Equal(t, "/user/dashboard", dashboardFor(&models.User{Role: models.RoleExecutive}))
}
