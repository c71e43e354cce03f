// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mailer renders and sends account emails: the welcome message
// after registration, generated credentials, and password reset links.
// Every attempt is written to email_logs with its outcome. Without SMTP
// settings nothing is sent and attempts are logged as failed.
package mailer
