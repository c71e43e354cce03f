package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	SessionSecret string
	SecureCookies bool
	BaseURL       string
	CORSOrigins   []string
	LogLevel      string
	LogFormat     string
	LoginRate     int

	ControlPanel ControlPanelConfig
	SMTP         SMTPConfig
	Billing      BillingConfig
}

// ControlPanelConfig holds Webuzo API credentials. An empty Host disables
// provisioning calls.
type ControlPanelConfig struct {
	Host     string        `env:"WEBUZO_HOST"`
	Port     int           `env:"WEBUZO_PORT,default=2003"`
	User     string        `env:"WEBUZO_USER"`
	Password string        `env:"WEBUZO_PASSWORD"`
	DBPrefix string        `env:"WEBUZO_DB_PREFIX,default=edusofto_"`
	DBUser   string        `env:"WEBUZO_DB_USER,default=edusofto_tenant"`
	Timeout  time.Duration `env:"WEBUZO_TIMEOUT,default=30s"`
}

// SMTPConfig holds outgoing mail settings. An empty Host disables sending.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Enabled reports whether there is a relay and an account to send as
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.User != ""
}

type BillingConfig struct {
	SubscriptionPrice string `env:"SUBSCRIPTION_PRICE,default=1000"`
	Currency          string `env:"CURRENCY,default=BDT"`
	SubdomainSuffix   string `env:"SUBDOMAIN_SUFFIX,default=.hospx.com"`
	TrialDays         int    `env:"TRIAL_DAYS,default=15"`
}

// Price returns the subscription price. ParseFlags guarantees it parses.
func (b BillingConfig) Price() decimal.Decimal {
	d, err := decimal.NewFromString(b.SubscriptionPrice)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseFlags validates flags and fills the rest of Config from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var corsOrigins string

	fs := flag.NewFlagSet("hospx", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or mysql)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in emails")
	fs.StringVar(&corsOrigins, "cors", "", "Comma-separated allowed CORS origins")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "mysql":
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if corsOrigins == "" {
		corsOrigins = os.Getenv("CORS_ORIGINS")
	}
	for _, o := range strings.Split(corsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	cfg.SecureCookies = os.Getenv("SECURE_COOKIES") == "true"
	cfg.LogLevel = envOr("LOG_LEVEL", "info")
	cfg.LogFormat = envOr("LOG_FORMAT", "text")

	cfg.LoginRate = 10
	if v := os.Getenv("LOGIN_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.New("invalid LOGIN_RATE env variable")
		}
		cfg.LoginRate = n
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	// Grouped settings have no flags
	if err := decodeEnv(&cfg.ControlPanel); err != nil {
		return Config{}, fmt.Errorf("control panel config: %w", err)
	}
	if err := decodeEnv(&cfg.SMTP); err != nil {
		return Config{}, fmt.Errorf("smtp config: %w", err)
	}
	if err := decodeEnv(&cfg.Billing); err != nil {
		return Config{}, fmt.Errorf("billing config: %w", err)
	}

	price, err := decimal.NewFromString(cfg.Billing.SubscriptionPrice)
	if err != nil || !price.IsPositive() {
		return Config{}, errors.New("invalid SUBSCRIPTION_PRICE env variable")
	}
	if !strings.HasPrefix(cfg.Billing.SubdomainSuffix, ".") {
		cfg.Billing.SubdomainSuffix = "." + cfg.Billing.SubdomainSuffix
	}
	if cfg.Billing.TrialDays < 1 {
		return Config{}, errors.New("TRIAL_DAYS must be at least 1")
	}

	return cfg, nil
}

// ControlPanelEnabled reports whether provisioning calls should be made
func (c Config) ControlPanelEnabled() bool {
	return c.ControlPanel.Host != ""
}

// SMTPEnabled reports whether outgoing mail is configured
func (c Config) SMTPEnabled() bool {
	return c.SMTP.Enabled()
}

func decodeEnv(target interface{}) error {
	err := envdecode.Decode(target)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
