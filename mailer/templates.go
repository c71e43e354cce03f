// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body>
<h1>{{template "title" .}}</h1>
{{template "content" .}}
<p>Best regards,<br>HospX Team</p>
</body>
</html>
`

var welcomeTemplate = mustParse(`
{{define "title"}}Welcome to HospX!{{end}}
{{define "content"}}
<h2>Hello {{.Name}}!</h2>
<p>Thank you for registering with our platform. Your account has been created successfully.</p>
<h3>Your Domain Details:</h3>
<p><strong>Domain:</strong> {{.Domain}}</p>
<p><strong>Database:</strong> A database has been created with {{.TrialDays}} days validity</p>
<p><strong>Status:</strong> Active</p>
<p>Your account is currently pending approval. Once an administrator assigns you a role, you will receive login credentials via email.</p>
{{end}}`)

var credentialsTemplate = mustParse(`
{{define "title"}}Account Activated!{{end}}
{{define "content"}}
<h2>Hello {{.Name}}!</h2>
<p>Your account has been activated and you can now access our platform.</p>
<h3>Your Login Credentials:</h3>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Password:</strong> {{.Password}}</p>
<p><strong>Reference Code:</strong> {{.ReferenceCode}}</p>
<p>Please change your password after your first login.</p>
<p><a href="{{.LoginURL}}">Log in</a></p>
{{end}}`)

var resetTemplate = mustParse(`
{{define "title"}}Password Reset{{end}}
{{define "content"}}
<h2>Hello {{.Name}}!</h2>
<p>We received a request to reset your password. Use the link below to choose a new one.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link expires {{.Expires}}. If you did not request a reset, ignore this email.</p>
{{end}}`)

func mustParse(body string) *template.Template {
	t := template.Must(template.New("layout").Parse(layout))
	return template.Must(t.Parse(body))
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	blankPattern = regexp.MustCompile(`\n\s*\n+`)
)

// render executes t and derives a plain text part by stripping tags
func render(to, subject string, t *template.Template, data interface{}) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %q: %w", subject, err)
	}
	body := buf.String()
	text := tagPattern.ReplaceAllString(body, "")
	text = strings.TrimSpace(blankPattern.ReplaceAllString(text, "\n\n"))
	return Message{To: to, Subject: subject, HTML: body, Text: text}, nil
}
