// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

main loads a .env file (if present) before calling ParseFlags, so every
variable below may also live there.

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type (sqlite, postgres, mysql)
	-base-url        Public base URL used in emails
	-cors            Comma-separated allowed origins
	-session-secret  Session secret

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p (default 3318)
	DATABASE_URL   → -d (required)
	DATABASE_TYPE  → -t (default sqlite)
	BASE_URL       → -base-url
	CORS_ORIGINS   → -cors
	SESSION_SECRET → -session-secret (required)

Environment only:

	SECURE_COOKIES, LOG_LEVEL, LOG_FORMAT, LOGIN_RATE

Grouped settings are decoded with envdecode struct tags:

	WEBUZO_HOST, WEBUZO_PORT (2003), WEBUZO_USER, WEBUZO_PASSWORD,
	WEBUZO_DB_PREFIX (edusofto_), WEBUZO_DB_USER, WEBUZO_TIMEOUT (30s)

	SMTP_HOST, SMTP_PORT (587), SMTP_USER, SMTP_PASSWORD, SMTP_FROM

	SUBSCRIPTION_PRICE (1000), CURRENCY (BDT),
	SUBDOMAIN_SUFFIX (.hospx.com), TRIAL_DAYS (15)

CLI flags take precedence over environment variables. An empty WEBUZO_HOST
or SMTP_HOST disables that integration.
*/
package cliparse
