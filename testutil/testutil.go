// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Rajin-257/Hospx-Saas/auth"
	"github.com/Rajin-257/Hospx-Saas/cliparse"
	"github.com/Rajin-257/Hospx-Saas/db"
	"github.com/Rajin-257/Hospx-Saas/models"
	"github.com/Rajin-257/Hospx-Saas/store"
)

// TestPassword is the password of every staff account created by CreateTestUser
const TestPassword = "password123"

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// SetupStore returns a store over a fresh test database
func SetupStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration with the control
// panel and SMTP disabled
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  "sqlite",
		SessionSecret: "test-session-secret",
		BaseURL:       "http://localhost:3318",
		LogLevel:      "error",
		LogFormat:     "text",
		LoginRate:     1000,
		ControlPanel: cliparse.ControlPanelConfig{
			Port:     2003,
			DBPrefix: "edusofto_",
			DBUser:   "edusofto_tenant",
			Timeout:  5 * time.Second,
		},
		Billing: cliparse.BillingConfig{
			SubscriptionPrice: "1000",
			Currency:          "BDT",
			SubdomainSuffix:   ".hospx.com",
			TrialDays:         15,
		},
	}
}

// CreateTestUser inserts a user with the given role. Staff accounts get
// TestPassword and a reference code; customers get no password.
func CreateTestUser(t *testing.T, st *store.Store, role, email string, referredBy *string) *models.User {
	t.Helper()
	ctx := context.Background()

	u := &models.User{
		FullName:   "Test " + role,
		Email:      email,
		Phone:      "01712345678",
		Role:       role,
		ReferredBy: referredBy,
	}
	if role != models.RoleUser {
		hash, err := auth.HashPassword(TestPassword)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		u.PasswordHash = &hash
		code, err := auth.GenerateReferenceCode()
		if err != nil {
			t.Fatalf("Failed to generate reference code: %v", err)
		}
		u.ReferenceCode = &code
	}

	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	if u.ReferenceCode != nil {
		if _, err := st.CreateReferenceCode(ctx, *u.ReferenceCode, u.ID); err != nil {
			t.Fatalf("Failed to create test reference code: %v", err)
		}
	}
	return u
}

// CreateTestDatabase inserts a domain and a tenant database owned by userID
func CreateTestDatabase(t *testing.T, st *store.Store, userID, domainName, domainType string, expiry time.Time) *models.DatabaseDetail {
	t.Helper()
	ctx := context.Background()

	dbName := "edusofto_" + strings.ReplaceAll(domainName, ".", "_") + "_db"
	dom := &models.Domain{
		DomainName:   domainName,
		UserID:       userID,
		DatabaseName: &dbName,
		ExpiryDate:   expiry,
		DomainType:   domainType,
	}
	if err := st.CreateDomain(ctx, dom); err != nil {
		t.Fatalf("Failed to create test domain: %v", err)
	}

	tdb := &models.TenantDatabase{
		DatabaseName: dbName,
		UserID:       userID,
		DomainID:     &dom.ID,
		ExpiryDate:   expiry,
	}
	if err := st.CreateDatabase(ctx, tdb); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	detail, err := st.GetDatabase(ctx, tdb.ID)
	if err != nil {
		t.Fatalf("Failed to reload test database: %v", err)
	}
	return detail
}

// CreateTestPayment inserts a payment for databaseID with the given status
func CreateTestPayment(t *testing.T, st *store.Store, userID, databaseID, amount, status string) *models.Payment {
	t.Helper()

	txID := "TX" + auth.NewID()[:8]
	p := &models.Payment{
		UserID:        userID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "BDT",
		PaymentMethod: models.MethodBkash,
		TransactionID: &txID,
		Status:        status,
		PaymentType:   models.PaymentRenewal,
		ReferenceData: models.ReferenceData{
			DatabaseID: databaseID,
			Period:     1,
			PeriodType: models.PeriodMonths,
		},
	}
	if err := st.CreatePayment(context.Background(), p); err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}
	return p
}

// LoginAs creates a session for userID and returns its cookie
func LoginAs(t *testing.T, st *store.Store, cfg cliparse.Config, userID string) *http.Cookie {
	t.Helper()

	token, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("Failed to generate session token: %v", err)
	}
	if _, err := st.CreateSession(context.Background(), auth.HashToken(token, cfg.SessionSecret), userID); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
