// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rajin-257/Hospx-Saas/models"
)

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"login accepted", http.MethodPost, "/login", http.StatusOK, `{"redirect":"/admin/dashboard"}`},
		{"database created", http.MethodPost, "/admin/databases/create", http.StatusCreated, `{"id":"db-1"}`},
		{"implicit 200", http.MethodGet, "/health", 0, "ok"},
		{"payment missing", http.MethodGet, "/admin/payments/p-1", http.StatusNotFound, ""},
		{"panel failure", http.MethodPost, "/admin/webuzo/test", http.StatusBadGateway, "panel down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.body))
			})

			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(tt.method, tt.path, nil))

			if calls != 1 {
				t.Fatalf("Expected handler to run once, ran %d times", calls)
			}
			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			if w.Code != want {
				t.Errorf("Expected status %d, got %d", want, w.Code)
			}
			if w.Body.String() != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

func TestWithLogging_UsesRecorderOnce(t *testing.T) {
	var inner http.ResponseWriter
	handler := WithLogging(WithLogging(func(w http.ResponseWriter, r *http.Request) {
		inner = w
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/", nil))

	rec, ok := inner.(*statusRecorder)
	if !ok {
		t.Fatalf("Expected *statusRecorder, got %T", inner)
	}
	if rec.ResponseWriter != w {
		t.Error("Expected nested logging to share one recorder")
	}
	if rec.status != http.StatusTeapot {
		t.Errorf("Expected recorded status 418, got %d", rec.status)
	}
}

func TestJSONResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   interface{}
		want   string
	}{
		{"availability", http.StatusOK, models.ValidationResponse{Valid: true}, `{"valid":true}`},
		{"message", http.StatusAccepted, map[string]string{"message": "Payment submitted"}, `{"message":"Payment submitted"}`},
		{"error body", http.StatusConflict,
			models.ErrorResponse{Error: "Conflict", Message: "Domain is already taken"},
			`{"error":"Conflict","message":"Domain is already taken"}`},
		{"list", http.StatusOK, []string{"bkash", "nagad"}, `["bkash","nagad"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %q", ct)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		message       string
		expectedError string
	}{
		{"bad request", http.StatusBadRequest, "amount is required", "Bad Request"},
		{"unauthorized", http.StatusUnauthorized, "please log in", "Unauthorized"},
		{"forbidden", http.StatusForbidden, "access denied", "Forbidden"},
		{"not found", http.StatusNotFound, "payment not found", "Not Found"},
		{"conflict", http.StatusConflict, "payment already approved", "Conflict"},
		{"internal error", http.StatusInternalServerError, "database error", "Internal Server Error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}

			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestValidationErrorResponse(t *testing.T) {
	t.Run("field errors", func(t *testing.T) {
		err := models.Validate(models.LoginRequest{Email: "nope"})
		w := httptest.NewRecorder()

		ValidationErrorResponse(w, err)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
		var resp models.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Fields["email"] != "email" {
			t.Errorf("Expected email rule 'email', got %q", resp.Fields["email"])
		}
		if resp.Fields["password"] != "required" {
			t.Errorf("Expected password rule 'required', got %q", resp.Fields["password"])
		}
	})

	t.Run("other errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		ValidationErrorResponse(w, errors.New("unexpected EOF"))

		var resp models.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Message != "unexpected EOF" || resp.Fields != nil {
			t.Errorf("Expected plain error, got %+v", resp)
		}
	})
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"email":"a@example.com","password":"secret1"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.LoginRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Email != "a@example.com" {
			t.Errorf("Expected email 'a@example.com', got '%s'", parsed.Email)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.LoginRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.LoginRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"email":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.LoginRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for a body past the limit")
		}
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		body := `{"email":"a@example.com","unknown_field":"ignored"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.LoginRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		handler := CORS([]string{"https://admin.hospx.com"})(nextHandler)
		req := httptest.NewRequest("OPTIONS", "/payments", nil)
		req.Header.Set("Origin", "https://admin.hospx.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "https://admin.hospx.com" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials to be 'true'")
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Error("Expected POST in allowed methods")
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		handler := CORS([]string{"https://admin.hospx.com"})(nextHandler)
		req := httptest.NewRequest("GET", "/payments", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("Expected no Access-Control-Allow-Origin for an unknown origin")
		}
	})

	t.Run("no configured origins reflects the caller", func(t *testing.T) {
		handler := CORS(nil)(nextHandler)
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to reflect request origin")
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("Expected %s %q, got %q", header, want, got)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("Expected no HSTS on plain HTTP")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"proxy chain uses first hop", "103.4.145.2, 10.0.0.5", "", "10.0.0.1:443", "103.4.145.2"},
		{"forwarded beats real ip", "103.4.145.2", "198.51.100.9", "10.0.0.1:443", "103.4.145.2"},
		{"real ip beats remote", "", " 198.51.100.9 ", "10.0.0.1:443", "198.51.100.9"},
		{"remote host", "", "", "198.51.100.20:51000", "198.51.100.20"},
		{"remote without port", "", "", "198.51.100.20", "198.51.100.20"},
		{"ipv6 remote", "", "", "[2001:db8::7]:8080", "2001:db8::7"},
		{"ipv6 forwarded", "2001:db8::7", "", "127.0.0.1:9000", "2001:db8::7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := GetClientIP(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
