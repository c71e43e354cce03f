// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/testutil"
)

func TestValidateEndpoints(t *testing.T) {
	env := newTestEnv(t)
	exec := testutil.CreateTestUser(t, env.st, models.RoleExecutive, "exec@example.com", nil)
	customer := testutil.CreateTestUser(t, env.st, models.RoleUser, "taken@example.com", &exec.ID)
	testutil.CreateTestDatabase(t, env.st, customer.ID, "taken.hospx.com", models.DomainSubdomain, env.st.Now())
	testutil.CreateTestDatabase(t, env.st, customer.ID, "taken.example.org", models.DomainCustom, env.st.Now())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		value   string
		valid   bool
	}{
		{"email taken", env.api.ValidateEmail, "TAKEN@example.com", false},
		{"email free", env.api.ValidateEmail, "free@example.com", true},
		{"domain taken", env.api.ValidateDomain, "taken.example.org", false},
		{"domain free", env.api.ValidateDomain, "free.example.org", true},
		{"subdomain label taken", env.api.ValidateSubdomain, "taken", false},
		{"subdomain full name taken", env.api.ValidateSubdomain, "taken.hospx.com", false},
		{"subdomain free", env.api.ValidateSubdomain, "fresh", true},
		{"reference valid", env.api.ValidateReference, *exec.ReferenceCode, true},
		{"reference unknown", env.api.ValidateReference, "REF-NOPE0000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, testutil.MakeRequest("POST", "/api/validate", models.ValidateValueRequest{Value: tt.value}, nil))
			testutil.AssertStatus(t, w, http.StatusOK)

			var resp models.ReferenceValidationResponse
			testutil.AssertJSON(t, w, &resp)
			assert.Equal(t, tt.valid, resp.Valid, resp.Message)
		})
	}

	t.Run("reference names its owner", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.api.ValidateReference(w, testutil.MakeRequest("POST", "/api/validate-reference",
			models.ValidateValueRequest{Value: *exec.ReferenceCode}, nil))
		var resp models.ReferenceValidationResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Equal(t, exec.FullName, resp.ReferrerName)
	})

	t.Run("blank value", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.api.ValidateEmail(w, testutil.MakeRequest("POST", "/api/validate-email", models.ValidateValueRequest{Value: "  "}, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.st, models.RoleAdmin, "a@example.com", nil)
	customer := testutil.CreateTestUser(t, env.st, models.RoleUser, "c@example.com", nil)
	tdb := testutil.CreateTestDatabase(t, env.st, customer.ID, "c.hospx.com", models.DomainSubdomain, env.st.Now().AddDate(0, 1, 0))
	testutil.CreateTestPayment(t, env.st, customer.ID, tdb.ID, "1000", models.PaymentCompleted)

	w := httptest.NewRecorder()
	env.api.Stats(w, as(testutil.MakeRequest("GET", "/api/stats", nil, nil), admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp statsResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, 2, resp.Users.Total)
	assert.Equal(t, 1, resp.Databases.Total)
	assert.Equal(t, 1, resp.Payments.CompletedPayments)
	assert.True(t, resp.Payments.TotalRevenue.Equal(decimal.NewFromInt(1000)), resp.Payments.TotalRevenue.String())
}

func TestConfig(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.api.Config(w, testutil.MakeRequest("GET", "/api/config", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp configResponse
	testutil.AssertJSON(t, w, &resp)
	assert.True(t, resp.SubscriptionPrice.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "BDT", resp.Currency)
	assert.Equal(t, ".hospx.com", resp.SubdomainSuffix)
	assert.Equal(t, 15, resp.TrialDays)
	assert.NotContains(t, resp.PaymentMethods, models.MethodCard)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.api.Health(w, testutil.MakeRequest("GET", "/health", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Equal(t, "OK", w.Body.String())
}

