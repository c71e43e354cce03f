// cliparse/cliparse_test.go
package cliparse

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", "test-secret")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_SECRET", "from-env")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-session-secret", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.SessionSecret != "s1" {
		t.Errorf("CLI should override env: expected s1, got %q", cfg.SessionSecret)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("default port = %d, want 3318", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("default database type = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.BaseURL != "http://localhost:3318" {
		t.Errorf("default base URL = %q", cfg.BaseURL)
	}
	if cfg.ControlPanel.Port != 2003 {
		t.Errorf("default control panel port = %d, want 2003", cfg.ControlPanel.Port)
	}
	if cfg.ControlPanel.DBPrefix != "edusofto_" {
		t.Errorf("default db prefix = %q", cfg.ControlPanel.DBPrefix)
	}
	if cfg.ControlPanel.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v", cfg.ControlPanel.Timeout)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("default smtp port = %d, want 587", cfg.SMTP.Port)
	}
	if cfg.Billing.Price().String() != "1000" {
		t.Errorf("default price = %s, want 1000", cfg.Billing.Price())
	}
	if cfg.Billing.Currency != "BDT" {
		t.Errorf("default currency = %q", cfg.Billing.Currency)
	}
	if cfg.Billing.SubdomainSuffix != ".hospx.com" {
		t.Errorf("default suffix = %q", cfg.Billing.SubdomainSuffix)
	}
	if cfg.Billing.TrialDays != 15 {
		t.Errorf("default trial days = %d", cfg.Billing.TrialDays)
	}
	if cfg.LoginRate != 10 {
		t.Errorf("default login rate = %d", cfg.LoginRate)
	}
	if cfg.ControlPanelEnabled() || cfg.SMTPEnabled() {
		t.Error("integrations should be disabled without hosts")
	}
}

func TestSMTPEnabled(t *testing.T) {
	tests := []struct {
		name string
		smtp SMTPConfig
		want bool
	}{
		{"unset", SMTPConfig{}, false},
		{"host only", SMTPConfig{Host: "smtp.example.com", Port: 587}, false},
		{"user only", SMTPConfig{User: "mailer@example.com"}, false},
		{"host and user", SMTPConfig{Host: "smtp.example.com", User: "mailer@example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{SMTP: tt.smtp}
			if got := cfg.SMTPEnabled(); got != tt.want {
				t.Errorf("SMTPEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"SESSION_SECRET": "s"}},
		{"missing session secret", map[string]string{"DATABASE_URL": "file:x.db"}},
		{"bad port", map[string]string{"DATABASE_URL": "file:x.db", "SESSION_SECRET": "s", "PORT": "abc"}},
		{"bad database type", map[string]string{"DATABASE_URL": "file:x.db", "SESSION_SECRET": "s", "DATABASE_TYPE": "oracle"}},
		{"bad price", map[string]string{"DATABASE_URL": "file:x.db", "SESSION_SECRET": "s", "SUBSCRIPTION_PRICE": "free"}},
		{"zero trial", map[string]string{"DATABASE_URL": "file:x.db", "SESSION_SECRET": "s", "TRIAL_DAYS": "0"}},
		{"bad login rate", map[string]string{"DATABASE_URL": "file:x.db", "SESSION_SECRET": "s", "LOGIN_RATE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DATABASE_URL", "SESSION_SECRET", "PORT", "DATABASE_TYPE", "SUBSCRIPTION_PRICE", "TRIAL_DAYS", "LOGIN_RATE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFlags_SuffixNormalized(t *testing.T) {
	setRequired(t)
	t.Setenv("SUBDOMAIN_SUFFIX", "example.net")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Billing.SubdomainSuffix != ".example.net" {
		t.Errorf("suffix = %q, want .example.net", cfg.Billing.SubdomainSuffix)
	}
}
